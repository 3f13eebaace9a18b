package hub

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/skill-strike-backend/internal/engine"
	"github.com/DoyleJ11/skill-strike-backend/internal/lobby"
	"github.com/DoyleJ11/skill-strike-backend/internal/logging"
	"github.com/DoyleJ11/skill-strike-backend/internal/store"
	"go.uber.org/zap"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrCodeTaken    = errors.New("game code already in use")
	ErrHubClosed    = errors.New("hub closed")
)

type HubMsg interface{ isHubMsg() }

type LobbyResult struct {
	Lobby *lobby.Lobby
	Err   error
}

// CreateLobby persists a brand-new game and starts its lobby.
type CreateLobby struct {
	Code  string
	State engine.State
	Reply chan LobbyResult
}

// GetLobby returns the live lobby for Code, reviving it from the store if
// this process has not seen it yet.
type GetLobby struct {
	Code  string
	Reply chan LobbyResult
}

type RemoveLobby struct {
	Code string
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	store   store.Store
	logger  *zap.Logger
	opts    lobby.Options
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHub(parent context.Context, st store.Store, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	logger = logging.OrNop(logger)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		store:   st,
		logger:  logger,
		opts:    lobby.Options{Store: st, Logger: logger},
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				msg.Reply <- h.create(msg.Code, msg.State)

			case GetLobby:
				msg.Reply <- h.get(msg.Code)

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					stop(lb)
					delete(h.lobbies, msg.Code)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(code string, state engine.State) LobbyResult {
	if h.lobbies[code] != nil {
		return LobbyResult{Err: ErrCodeTaken}
	}
	if err := h.store.Create(h.ctx, code, state); err != nil {
		if errors.Is(err, store.ErrExists) {
			return LobbyResult{Err: ErrCodeTaken}
		}
		return LobbyResult{Err: fmt.Errorf("create game %s: %w", code, err)}
	}

	lb := lobby.NewLobby(h.ctx, code, state, 0, h.opts)
	h.lobbies[code] = lb
	h.logger.Info("game created", zap.String("game", code))
	return LobbyResult{Lobby: lb}
}

func (h *Hub) get(code string) LobbyResult {
	if lb := h.lobbies[code]; lb != nil {
		return LobbyResult{Lobby: lb}
	}

	rec, err := h.store.Load(h.ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return LobbyResult{Err: ErrGameNotFound}
	}
	if err != nil {
		return LobbyResult{Err: fmt.Errorf("load game %s: %w", code, err)}
	}

	lb := lobby.NewLobby(h.ctx, code, rec.State, rec.Version, h.opts)
	h.lobbies[code] = lb
	h.logger.Info("game restored", zap.String("game", code), zap.Int("version", rec.Version))
	return LobbyResult{Lobby: lb}
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		stop(lb)
	}
	clear(h.lobbies)
	h.cancel()
}

func stop(lb *lobby.Lobby) {
	select {
	case lb.Inbox() <- lobby.Shutdown{}:
	case <-lb.Done():
	}
}

func (h *Hub) request(ctx context.Context, msg HubMsg, reply chan LobbyResult) (*lobby.Lobby, error) {
	select {
	case h.inbox <- msg:
	case <-h.done:
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.Lobby, res.Err
	case <-h.done:
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Create(ctx context.Context, code string, state engine.State) (*lobby.Lobby, error) {
	reply := make(chan LobbyResult, 1)
	return h.request(ctx, CreateLobby{Code: code, State: state, Reply: reply}, reply)
}

func (h *Hub) Get(ctx context.Context, code string) (*lobby.Lobby, error) {
	reply := make(chan LobbyResult, 1)
	return h.request(ctx, GetLobby{Code: code, Reply: reply}, reply)
}

// Done is closed once the hub loop has exited.
func (h *Hub) Done() <-chan struct{} { return h.done }
