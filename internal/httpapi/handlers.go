package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"net/http"

	"github.com/DoyleJ11/skill-strike-backend/internal/auth"
	"github.com/DoyleJ11/skill-strike-backend/internal/engine"
	"github.com/DoyleJ11/skill-strike-backend/internal/hub"
	"github.com/DoyleJ11/skill-strike-backend/internal/lobby"
	"github.com/DoyleJ11/skill-strike-backend/internal/types"
	wire "github.com/DoyleJ11/skill-strike-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const codeAttempts = 8

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type PlayerInput struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type CreateGameRequest struct {
	TeamA []PlayerInput `json:"team_a"`
	TeamB []PlayerInput `json:"team_b"`
	Seed  *uint64       `json:"seed,omitempty"`
}

type SeatToken struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Team  string `json:"team"`
	Token string `json:"token,omitempty"`
}

type CreateGameResponse struct {
	Code    string              `json:"code"`
	Version int                 `json:"version"`
	Seed    uint64              `json:"seed"`
	Players []SeatToken         `json:"players"`
	State   *wire.StateSnapshot `json:"state"`
}

// CreateGame seats both rosters, deals from the configured deck and starts a
// lobby under a fresh code.
func (s *Server) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadBody, err))
		return
	}

	seed := mrand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}
	state, err := engine.NewGame(engine.Setup{
		TeamA: roster(req.TeamA),
		TeamB: roster(req.TeamB),
		Cards: s.Cards,
		Rules: s.Rules,
		Seed:  seed,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	var (
		code string
		lb   *lobby.Lobby
	)
	for range codeAttempts {
		code, err = GenerateCode()
		if err != nil {
			break
		}
		lb, err = s.Hub.Create(r.Context(), code, state)
		if !errors.Is(err, hub.ErrCodeTaken) {
			break
		}
		s.Logger.Debug("collision on code, regenerating", zap.String("game", code))
	}
	if err != nil {
		s.Logger.Error("create game", zap.Error(err))
		writeError(w, err)
		return
	}

	res := CreateGameResponse{
		Code:  lb.Code(),
		Seed:  seed,
		State: types.Snapshot(lb.Code(), 0, state, ""),
	}
	for _, team := range []engine.Team{engine.TeamA, engine.TeamB} {
		for _, p := range state.Teams[team].Players {
			tok, err := s.Auth.Issue(code, p.ID)
			if err != nil {
				s.Logger.Error("issue token", zap.String("game", code), zap.Error(err))
				writeError(w, err)
				return
			}
			res.Players = append(res.Players, SeatToken{ID: p.ID, Name: p.Name, Team: string(team), Token: tok})
		}
	}
	writeJSON(w, http.StatusCreated, res)
}

func roster(in []PlayerInput) []engine.Player {
	out := make([]engine.Player, 0, len(in))
	for _, p := range in {
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, engine.Player{ID: id, Name: p.Name})
	}
	return out
}

// GetGame returns the current snapshot. Identified players also see their
// own hand.
func (s *Server) GetGame(w http.ResponseWriter, r *http.Request) {
	lb, err := s.Hub.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}

	viewer := ""
	if token, claimed := auth.Credentials(r); token != "" || claimed != "" {
		id, err := s.Auth.Identify(lb.Code(), token, claimed)
		if err != nil {
			writeError(w, err)
			return
		}
		viewer = id.PlayerID
	}

	view, err := lb.View(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.ServerMessage{
		Type:    "StateSnapshot",
		Version: view.Version,
		State:   types.Snapshot(lb.Code(), view.Version, view.State, viewer),
	})
}

// PostAction applies one action for the identified caller and returns the
// resulting snapshot and events. The caller is identified before the game is
// looked up, so anonymous requests never reveal or revive a game.
func (s *Server) PostAction(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	token, claimed := auth.Credentials(r)
	id, err := s.Auth.Identify(code, token, claimed)
	if err != nil {
		writeError(w, err)
		return
	}

	lb, err := s.Hub.Get(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}

	var msg wire.ClientMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadBody, err))
		return
	}
	cmd, err := types.ToCommand(msg, id.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := lb.Do(r.Context(), cmd)
	if err != nil {
		if status := writeError(w, err); status == http.StatusInternalServerError {
			s.Logger.Error("apply action", zap.String("game", lb.Code()), zap.Error(err))
		}
		return
	}
	writeJSON(w, http.StatusOK, wire.ServerMessage{
		Type:    "Result",
		Version: res.Version,
		State:   types.Snapshot(lb.Code(), res.Version, res.State, id.PlayerID),
		Events:  types.Events(res.Events),
	})
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
