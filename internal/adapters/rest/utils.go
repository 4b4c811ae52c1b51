package rest

import (
	"encoding/json"
	"net/http"
)

// WriteJSONError отправляет ErrorResponseDTO с заданным статусом
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, ErrorResponseDTO{Error: message})
}

// RespondWithJSON отправляет JSON-ответ. Статистика меняется во время прохода, поэтому ответы не кэшируются.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	w.Write(response)
}
