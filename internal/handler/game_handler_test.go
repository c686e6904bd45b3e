package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nihilism-server/internal/config"
	"nihilism-server/internal/messaging"
	"nihilism-server/internal/mocks"
	"nihilism-server/internal/models"
	"nihilism-server/internal/registry"
	"nihilism-server/internal/repository"
	"nihilism-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	gen    *mocks.MockGenerator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := repository.NewFilePlayerRepository(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	gen := mocks.NewMockGenerator(t)
	cfg := &config.Config{AutoSaveEnabled: true, AutoSaveIntervalChoices: 3}
	svc := service.NewGameService(registry.New(), nil, store, gen, messaging.NoopPublisher{}, cfg, zap.NewNop())

	router := gin.New()
	NewGameHandler(svc, zap.NewNop()).RegisterRoutes(router)
	return &testServer{router: router, gen: gen}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func generated(text string, ids ...string) models.NarrativeMoment {
	m := models.NarrativeMoment{ID: uuid.New(), Text: text, Mood: "melancholic"}
	for _, id := range ids {
		m.Choices = append(m.Choices, models.Choice{ID: id, Text: strings.ToUpper(id[:1]) + id[1:]})
	}
	return m
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[healthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, healthMessage, resp.Message)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodHead, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/health", nil).Code)
}

func TestGameFlow(t *testing.T) {
	s := newTestServer(t)

	// new game
	w := s.do(t, http.MethodPost, "/api/game/new", map[string]string{"name": "Natsuki"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[newGameResponse](t, w)
	assert.Equal(t, welcomeMessage, created.Message)
	require.NotNil(t, created.Player.Name)
	playerID := created.Player.ID
	base := "/api/game/" + playerID.String()

	// new games are autosaved
	w = s.do(t, http.MethodGet, "/api/game/list", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{playerID}, decode[listSavesResponse](t, w).Saves)

	// start
	s.gen.On("GenerateNarrative", mock.Anything, mock.Anything, (*string)(nil)).
		Return(generated("The clubroom is empty.", "wait", "abandon_them"), nil).Once()
	w = s.do(t, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	started := decode[narrativeResponse](t, w)
	assert.Equal(t, "The clubroom is empty.", started.Moment.Text)
	assert.Equal(t, uint64(1), started.LoopNumber)
	assert.Nil(t, started.Ending)

	// choice with the text taken from the offered moment
	s.gen.On("ProcessChoice", mock.Anything, mock.Anything, models.Choice{ID: "abandon_them", Text: "Abandon_them"}).
		Return(generated("The door closes behind you.", "return"), nil).Once()
	w = s.do(t, http.MethodPost, base+"/choice", map[string]string{"choice_id": "abandon_them"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	chosen := decode[narrativeResponse](t, w)
	assert.Equal(t, 5, chosen.NihilismScore)

	// state
	w = s.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[gameStateResponse](t, w)
	require.NotNil(t, state.CurrentMoment)
	assert.Equal(t, "The door closes behind you.", state.CurrentMoment.Text)
	assert.Equal(t, uint64(1), state.Player.Memory.DarkChoices)

	// reset
	w = s.do(t, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reset := decode[resetResponse](t, w)
	assert.Equal(t, "Loop #2 begins. Despite everything... it's still you.", reset.Message)
	assert.Equal(t, []string{"The door closes behind you."}, reset.Player.Memory.KeyMemories)

	// ending
	w = s.do(t, http.MethodGet, base+"/ending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ending := decode[endingCheckResponse](t, w)
	assert.False(t, ending.HasEnding)
	assert.Nil(t, ending.Ending)

	// save and load
	w = s.do(t, http.MethodPost, "/api/game/save/"+playerID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	saved := decode[saveGameResponse](t, w)
	assert.True(t, saved.Success)
	assert.Equal(t, savedMessage, saved.Message)

	w = s.do(t, http.MethodGet, "/api/game/load/"+playerID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	loaded := decode[loadGameResponse](t, w)
	assert.True(t, loaded.Found)
	assert.Equal(t, restoredMsg, loaded.Message)
	assert.Equal(t, uint64(2), loaded.Player.CurrentLoop.Number)

	// delete the save; the live player is still reachable
	w = s.do(t, http.MethodDelete, "/api/game/save/"+playerID.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/game/list", nil)
	assert.Empty(t, decode[listSavesResponse](t, w).Saves)

	w = s.do(t, http.MethodGet, "/api/game/load/"+playerID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, neverLeftMsg, decode[loadGameResponse](t, w).Message)
}

func TestErrors(t *testing.T) {
	s := newTestServer(t)
	unknown := "/api/game/" + uuid.NewString()

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"invalid uuid", http.MethodGet, "/api/game/not-a-uuid", nil, http.StatusBadRequest, models.ErrCodeBadRequest},
		{"unknown player state", http.MethodGet, unknown, nil, http.StatusNotFound, models.ErrCodePlayerNotFound},
		{"unknown player ending", http.MethodGet, unknown + "/ending", nil, http.StatusNotFound, models.ErrCodePlayerNotFound},
		{"unknown player reset", http.MethodPost, unknown + "/reset", nil, http.StatusNotFound, models.ErrCodePlayerNotFound},
		{"unknown player load", http.MethodGet, "/api/game/load/" + uuid.NewString(), nil, http.StatusNotFound, models.ErrCodePlayerNotFound},
		{"unknown player save", http.MethodPost, "/api/game/save/" + uuid.NewString(), nil, http.StatusNotFound, models.ErrCodePlayerNotFound},
		{"choice without id", http.MethodPost, unknown + "/choice", map[string]string{"choice_text": "Run"}, http.StatusBadRequest, models.ErrCodeValidation},
		{"name too long", http.MethodPost, "/api/game/new", map[string]string{"name": strings.Repeat("x", 65)}, http.StatusBadRequest, models.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decode[models.ErrorResponse](t, w).Code)
		})
	}
}

func TestNarratorFailureIsBadGateway(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/game/new", nil)
	require.Equal(t, http.StatusOK, w.Code)
	playerID := decode[newGameResponse](t, w).Player.ID

	s.gen.On("GenerateNarrative", mock.Anything, mock.Anything, mock.Anything).
		Return(models.NarrativeMoment{}, models.ErrNarrativeGenerationFailed).Once()
	w = s.do(t, http.MethodPost, "/api/game/"+playerID.String()+"/start", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, models.ErrCodeNarrativeFailed, decode[models.ErrorResponse](t, w).Code)

	s.gen.On("ProcessChoice", mock.Anything, mock.Anything, mock.Anything).
		Return(generated(""), nil).Once()
	w = s.do(t, http.MethodPost, "/api/game/"+playerID.String()+"/choice", map[string]string{"choice_id": "wait"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandleServiceErrorStoreUnavailable(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	handleServiceError(c, models.ErrStoreUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Len(t, c.Errors, 1)
}

func TestGinZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := gin.New()
	router.Use(GinZapLogger(zap.New(core)))
	router.GET("/health", HealthCheck)
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/boom", func(c *gin.Context) { handleServiceError(c, context.DeadlineExceeded) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, 0, logs.Len())

	req := httptest.NewRequest(http.MethodGet, "/missing?x=1", nil)
	req.Header.Set(requestIDHeader, "req-42")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "/missing?x=1", entry.ContextMap()["path"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}
