package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/DoyleJ11/skill-strike-backend/internal/auth"
	"github.com/DoyleJ11/skill-strike-backend/internal/hub"
	"github.com/DoyleJ11/skill-strike-backend/internal/lobby"
	"github.com/DoyleJ11/skill-strike-backend/internal/logging"
	"github.com/DoyleJ11/skill-strike-backend/internal/types"
	wire "github.com/DoyleJ11/skill-strike-backend/pkg/types"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// Handler upgrades GET /ws?code=... to a game connection. Callers that
// identify as a player may send actions; anyone else only watches.
func Handler(h *hub.Hub, a *auth.Authority, logger *zap.Logger) http.HandlerFunc {
	logger = logging.OrNop(logger)
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		lb, err := h.Get(r.Context(), code)
		if errors.Is(err, hub.ErrGameNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("lookup game", zap.String("game", code), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		playerID, status := identify(r, lb, a)
		if status != http.StatusOK {
			http.Error(w, http.StatusText(status), status)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			logger.Debug("websocket accept", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := logger.With(zap.String("game", code), zap.String("client", clientID), zap.String("player", playerID))
		out := make(chan lobby.Snapshot, 8)

		select {
		case lb.Inbox() <- lobby.Join{ClientID: clientID, PlayerID: playerID, Outbox: out}:
		case <-lb.Done():
			conn.Close(websocket.StatusGoingAway, "game closed")
			return
		}
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-lb.Done():
			}
		}()
		log.Info("client connected")

		// Writer goroutine. It ends when the lobby closes out, which Leave,
		// a slow-client drop and shutdown all do.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := wire.ServerMessage{
					Type:    "StateSnapshot",
					Version: snap.Version,
					State:   types.Snapshot(code, snap.Version, snap.State, playerID),
					Events:  types.Events(snap.Events),
				}
				if err := write(writeCtx, conn, msg); err != nil {
					log.Debug("write snapshot", zap.Error(err))
					return
				}
			}
			// the lobby closed our outbox: we were too slow or the game stopped
			conn.Close(websocket.StatusGoingAway, "snapshot stream closed")
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read", zap.Error(err))
				}
				log.Info("client disconnected")
				return
			}

			var cm wire.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = write(r.Context(), conn, errorMessage("bad json"))
				continue
			}
			if playerID == "" {
				_ = write(r.Context(), conn, errorMessage(auth.ErrUnauthorized.Error()))
				continue
			}

			cmd, err := types.ToCommand(cm, playerID)
			if err != nil {
				_ = write(r.Context(), conn, errorMessage(err.Error()))
				continue
			}

			// Success comes back through the broadcast; only rejections are
			// answered directly.
			if _, err := lb.Do(r.Context(), cmd); err != nil {
				if errors.Is(err, lobby.ErrClosed) {
					return
				}
				log.Debug("action rejected", zap.String("cmd", cm.Type), zap.Error(err))
				_ = write(r.Context(), conn, errorMessage(err.Error()))
			}
		}
	}
}

// identify resolves the optional caller identity and checks they hold a seat
// in the game.
func identify(r *http.Request, lb *lobby.Lobby, a *auth.Authority) (string, int) {
	token, claimed := auth.Credentials(r)
	if token == "" && claimed == "" {
		return "", http.StatusOK
	}
	id, err := a.Identify(lb.Code(), token, claimed)
	if err != nil {
		return "", http.StatusUnauthorized
	}

	view, err := lb.View(r.Context())
	if err != nil {
		return "", http.StatusServiceUnavailable
	}
	if _, ok := view.State.TeamOf(id.PlayerID); !ok {
		return "", http.StatusForbidden
	}
	return id.PlayerID, http.StatusOK
}

func errorMessage(msg string) wire.ServerMessage {
	return wire.ServerMessage{Type: "Error", Error: msg}
}

func write(ctx context.Context, conn *websocket.Conn, msg wire.ServerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
