package common

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse carries the text under both keys; dashboard clients read
// "message".
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message, Message: message})
}

// RespondWithServiceError maps err to a status and a client-safe message.
func RespondWithServiceError(w http.ResponseWriter, err error) {
	RespondWithError(w, HTTPStatusFromError(err), ClientMessage(err))
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
