package handler

import (
	"nihilism-server/internal/models"

	"github.com/google/uuid"
)

// --- Request Structs ---

type newGameRequest struct {
	Name *string `json:"name" binding:"omitempty,max=64"`
}

type startRequest struct {
	UserInput *string `json:"user_input" binding:"omitempty,max=2000"`
}

type choiceRequest struct {
	ChoiceID   string `json:"choice_id" binding:"required,max=128"`
	ChoiceText string `json:"choice_text" binding:"max=1000"`
}

// --- Response Structs ---

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type newGameResponse struct {
	Player  *models.Player `json:"player"`
	Message string         `json:"message"`
}

type loadGameResponse struct {
	Player  *models.Player `json:"player"`
	Message string         `json:"message"`
	Found   bool           `json:"found"`
}

type saveGameResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type listSavesResponse struct {
	Saves []uuid.UUID `json:"saves"`
}

type gameStateResponse struct {
	Player        *models.Player          `json:"player"`
	CurrentMoment *models.NarrativeMoment `json:"current_moment"`
	Ending        *models.EndingRecord    `json:"ending"`
}

type narrativeResponse struct {
	Moment        models.NarrativeMoment `json:"moment"`
	LoopNumber    uint64                 `json:"loop_number"`
	NihilismScore int                    `json:"nihilism_score"`
	Ending        *models.EndingRecord   `json:"ending"`
}

type resetResponse struct {
	Player  *models.Player `json:"player"`
	Message string         `json:"message"`
}

type endingCheckResponse struct {
	HasEnding bool                 `json:"has_ending"`
	Ending    *models.EndingRecord `json:"ending"`
}
