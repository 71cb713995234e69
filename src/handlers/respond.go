// backend/src/handlers/respond.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/financetrackr/backend/src/logger"
)

// sendJSONError writes a plain validation failure: {"error": "<reason>"}.
func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// sendCodedError writes a machine-readable failure:
// {"error": "<CODE>", "message": "<detail>"}.
func sendCodedError(w http.ResponseWriter, code string, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("Sending coded error to client", "code", code, "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}

// sendJSON writes payload with the given status.
func sendJSON(w http.ResponseWriter, payload any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Error encoding JSON response", "error", err)
	}
}
