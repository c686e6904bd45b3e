package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"nihilism-server/internal/models"
	"nihilism-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	healthMessage  = "Nihilism game server is running. The loop continues..."
	welcomeMessage = "Welcome to the loop. You've been here before, even if you don't remember."
	restoredMsg    = "I remember you... welcome back to the loop."
	neverLeftMsg   = "You never left the loop."
	savedMessage   = "Your journey has been etched into the void."
)

// GameHandler serves the game API.
type GameHandler struct {
	gameService service.GameService
	logger      *zap.Logger
}

func NewGameHandler(gameService service.GameService, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		logger:      logger.Named("GameHandler"),
	}
}

// RegisterRoutes mounts the health check and the /api/game routes.
func (h *GameHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", HealthCheck)
	router.HEAD("/health", HealthCheck)
	router.GET("/api/health", HealthCheck)

	api := router.Group("/api/game")
	{
		api.POST("/new", h.newGame)
		api.GET("/load/:player_id", h.loadGame)
		api.POST("/save/:player_id", h.saveGame)
		api.DELETE("/save/:player_id", h.deleteSave)
		api.GET("/list", h.listSaves)

		api.GET("/:player_id", h.getGameState)
		api.POST("/:player_id/start", h.startNarrative)
		api.POST("/:player_id/choice", h.makeChoice)
		api.POST("/:player_id/reset", h.resetLoop)
		api.GET("/:player_id/ending", h.checkEnding)
	}
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Message: healthMessage})
}

func (h *GameHandler) newGame(c *gin.Context) {
	var req newGameRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	player, err := h.gameService.NewGame(c.Request.Context(), req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newGameResponse{Player: player, Message: welcomeMessage})
}

func (h *GameHandler) loadGame(c *gin.Context) {
	playerID, ok := parsePlayerID(c)
	if !ok {
		return
	}

	loaded, err := h.gameService.LoadGame(c.Request.Context(), playerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	msg := neverLeftMsg
	if loaded.FromStore {
		msg = restoredMsg
	}
	c.JSON(http.StatusOK, loadGameResponse{Player: loaded.Player, Message: msg, Found: true})
}

// saveGame reports store failures in the body with a 200, only an unknown
// player is an HTTP error.
func (h *GameHandler) saveGame(c *gin.Context) {
	playerID, ok := parsePlayerID(c)
	if !ok {
		return
	}

	err := h.gameService.SaveGame(c.Request.Context(), playerID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, saveGameResponse{Success: true, Message: savedMessage})
	case errors.Is(err, models.ErrPlayerNotFound):
		handleServiceError(c, err)
	default:
		c.JSON(http.StatusOK, saveGameResponse{Success: false, Message: fmt.Sprintf("Failed to save: %v", err)})
	}
}

func (h *GameHandler) deleteSave(c *gin.Context) {
	playerID, ok := parsePlayerID(c)
	if !ok {
		return
	}
	if err := h.gameService.DeleteSave(c.Request.Context(), playerID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GameHandler) listSaves(c *gin.Context) {
	ids, err := h.gameService.ListSaves(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	c.JSON(http.StatusOK, listSavesResponse{Saves: ids})
}

func (h *GameHandler) getGameState(c *gin.Context) {
	playerID, ok := parsePlayerID(c)
	if !ok {
		return
	}

	state, err := h.gameService.GetState(c.Request.Context(), playerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gameStateResponse{
		Player:        state.Player,
		CurrentMoment: state.CurrentMoment,
		Ending:        state.Ending,
	})
}

func (h *GameHandler) startNarrative(c *gin.Context) {
	playerID, ok := parsePlayerID(c)
	if !ok {
		return
	}
	var req startRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	res, err := h.gameService.StartNarrative(c.Request.Context(), playerID, req.UserInput)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toNarrativeResponse(res))
}

func (h *GameHandler) makeChoice(c *gin.Context) {
	playerID, ok := parsePlayerID(c)
	if !ok {
		return
	}
	var req choiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid choice request", zap.String("playerID", playerID.String()), zap.Error(err))
		abortBadRequest(c, models.ErrCodeValidation, "choice_id is required")
		return
	}

	res, err := h.gameService.MakeChoice(c.Request.Context(), playerID, req.ChoiceID, req.ChoiceText)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toNarrativeResponse(res))
}

func (h *GameHandler) resetLoop(c *gin.Context) {
	playerID, ok := parsePlayerID(c)
	if !ok {
		return
	}

	player, err := h.gameService.ResetLoop(c.Request.Context(), playerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resetResponse{
		Player:  player,
		Message: fmt.Sprintf("Loop #%d begins. Despite everything... it's still you.", player.CurrentLoop.Number),
	})
}

func (h *GameHandler) checkEnding(c *gin.Context) {
	playerID, ok := parsePlayerID(c)
	if !ok {
		return
	}

	ending, err := h.gameService.CheckEnding(c.Request.Context(), playerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, endingCheckResponse{HasEnding: ending != nil, Ending: ending})
}

func toNarrativeResponse(res *service.TurnResult) narrativeResponse {
	return narrativeResponse{
		Moment:        res.Moment,
		LoopNumber:    res.LoopNumber,
		NihilismScore: res.NihilismScore,
		Ending:        res.Ending,
	}
}

func parsePlayerID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("player_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		abortBadRequest(c, models.ErrCodeBadRequest, fmt.Sprintf("invalid player id %q", raw))
		return uuid.Nil, false
	}
	return id, true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		abortBadRequest(c, models.ErrCodeValidation, err.Error())
		return false
	}
	return true
}
