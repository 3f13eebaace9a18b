package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DoyleJ11/skill-strike-backend/internal/auth"
	"github.com/DoyleJ11/skill-strike-backend/internal/engine"
	"github.com/DoyleJ11/skill-strike-backend/internal/hub"
	"github.com/DoyleJ11/skill-strike-backend/internal/store"
	wire "github.com/DoyleJ11/skill-strike-backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, code)
}

func shieldDeck() []engine.Card {
	var cards []engine.Card
	for i := range 30 {
		cards = append(cards, engine.Card{ID: fmt.Sprintf("sh%d", i), Kind: engine.KindShield, ShieldValue: 2})
	}
	return cards
}

func newServer(t *testing.T, secret string) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return SetupRoutes(&Server{
		Hub:   hub.NewHub(ctx, store.NewMemory(), nil),
		Auth:  auth.NewAuthority(secret, time.Hour),
		Rules: engine.DefaultRules(),
		Cards: shieldDeck(),
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createGame(t *testing.T, h http.Handler) CreateGameResponse {
	t.Helper()
	seed := uint64(7)
	rec := do(t, h, http.MethodPost, "/games", CreateGameRequest{
		TeamA: []PlayerInput{{ID: "a1", Name: "Ada"}, {ID: "a2", Name: "Al"}},
		TeamB: []PlayerInput{{ID: "b1", Name: "Bo"}, {Name: "Bea"}},
		Seed:  &seed,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res CreateGameResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestCreateGame(t *testing.T) {
	h := newServer(t, "")
	res := createGame(t, h)

	assert.Len(t, res.Code, 6)
	assert.Equal(t, uint64(7), res.Seed)
	require.Len(t, res.Players, 4)
	assert.NotEmpty(t, res.Players[3].ID, "missing ids are generated")
	assert.Empty(t, res.Players[0].Token, "dev mode issues no tokens")
	assert.Equal(t, "a1", res.State.ActivePlayerID)
	assert.Equal(t, 30, res.State.Teams["b"].HP)
	assert.Empty(t, res.State.Hand)

	rec := do(t, h, http.MethodPost, "/games", CreateGameRequest{TeamA: []PlayerInput{{ID: "x"}}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/games", "not an object", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGame(t *testing.T) {
	h := newServer(t, "")
	res := createGame(t, h)

	rec := do(t, h, http.MethodGet, "/games/"+res.Code+"?player_id=a1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msg wire.ServerMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "StateSnapshot", msg.Type)
	assert.Len(t, msg.State.Hand, 5)

	rec = do(t, h, http.MethodGet, "/games/NOPE00", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostAction(t *testing.T) {
	h := newServer(t, "")
	res := createGame(t, h)
	path := "/games/" + res.Code + "/actions"
	asA1 := map[string]string{"X-Player-ID": "a1"}

	var snap wire.ServerMessage
	rec := do(t, h, http.MethodGet, "/games/"+res.Code, nil, asA1)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	card := snap.State.Hand[0].ID

	rec = do(t, h, http.MethodPost, path, wire.ClientMessage{Type: "play_effect", CardID: card}, asA1)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var msg wire.ServerMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "Result", msg.Type)
	assert.Equal(t, 1, msg.Version)
	assert.Equal(t, string(engine.EvtEffectPlayed), msg.Events[0].Type)
	assert.Len(t, msg.State.Teams["a"].Effects, 1)

	cases := []struct {
		name   string
		body   any
		header map[string]string
		want   int
	}{
		{"card already played", wire.ClientMessage{Type: "play_effect", CardID: card}, asA1, http.StatusConflict},
		{"not your turn", wire.ClientMessage{Type: "end_turn"}, map[string]string{"X-Player-ID": "b1"}, http.StatusConflict},
		{"unknown type", wire.ClientMessage{Type: "LockPick"}, asA1, http.StatusBadRequest},
		{"bad body", "nope", asA1, http.StatusBadRequest},
		{"anonymous", wire.ClientMessage{Type: "end_turn"}, nil, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, path, tc.body, tc.header)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			var msg wire.ServerMessage
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
			assert.Equal(t, "Error", msg.Type)
			assert.NotEmpty(t, msg.Error)
		})
	}
}

func TestPostAction_Tokens(t *testing.T) {
	h := newServer(t, "s3cret")
	res := createGame(t, h)
	path := "/games/" + res.Code + "/actions"

	var a1Token string
	for _, p := range res.Players {
		require.NotEmpty(t, p.Token)
		if p.ID == "a1" {
			a1Token = p.Token
		}
	}

	rec := do(t, h, http.MethodPost, path, wire.ClientMessage{Type: "end_turn"}, map[string]string{"X-Player-ID": "a1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "claimed id alone is not enough")

	rec = do(t, h, http.MethodPost, path, wire.ClientMessage{Type: "end_turn"}, map[string]string{"Authorization": "Bearer " + a1Token})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestPostAction_IdentifiesBeforeLookup(t *testing.T) {
	h := newServer(t, "s3cret")
	res := createGame(t, h)
	action := wire.ClientMessage{Type: "end_turn"}

	known := do(t, h, http.MethodPost, "/games/"+res.Code+"/actions", action, nil)
	unknown := do(t, h, http.MethodPost, "/games/NOPE00/actions", action, nil)
	assert.Equal(t, http.StatusUnauthorized, known.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code, "anonymous callers cannot probe codes")
	assert.JSONEq(t, known.Body.String(), unknown.Body.String())

	// a valid token for another game is refused the same way
	other := createGame(t, h)
	rec := do(t, h, http.MethodPost, "/games/NOPE00/actions", action,
		map[string]string{"Authorization": "Bearer " + other.Players[0].Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(engine.ErrMaxEffects))
	assert.Equal(t, http.StatusConflict, statusFor(fmt.Errorf("persist game: %w", store.ErrVersionConflict)))
	assert.Equal(t, http.StatusNotFound, statusFor(hub.ErrGameNotFound))
	assert.Equal(t, http.StatusUnauthorized, statusFor(auth.ErrUnauthorized))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestHealthz(t *testing.T) {
	rec := do(t, newServer(t, ""), http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
