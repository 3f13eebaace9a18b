package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DoyleJ11/skill-strike-backend/internal/auth"
	"github.com/DoyleJ11/skill-strike-backend/internal/engine"
	"github.com/DoyleJ11/skill-strike-backend/internal/hub"
	"github.com/DoyleJ11/skill-strike-backend/internal/lobby"
	"github.com/DoyleJ11/skill-strike-backend/internal/store"
	"github.com/DoyleJ11/skill-strike-backend/internal/types"
	wire "github.com/DoyleJ11/skill-strike-backend/pkg/types"
)

var errBadBody = errors.New("malformed request body")

// statusFor maps a domain error onto the HTTP status the client sees.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrRejected), errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, hub.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadBody), errors.Is(err, types.ErrUnknownType), errors.Is(err, engine.ErrInvalidSetup):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, lobby.ErrClosed), errors.Is(err, hub.ErrHubClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError hides the text of unexpected failures; rule violations are
// meant for the player and go out verbatim.
func writeError(w http.ResponseWriter, err error) int {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, wire.ServerMessage{Type: "Error", Error: msg})
	return status
}
