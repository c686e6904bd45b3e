package models

// Error codes returned in ErrorResponse.Code.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodePlayerNotFound   = "PLAYER_NOT_FOUND"
	ErrCodeNarrativeFailed  = "NARRATIVE_FAILED"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse is the JSON body of every error returned by the API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
