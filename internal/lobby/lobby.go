package lobby

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/skill-strike-backend/internal/engine"
	"github.com/DoyleJ11/skill-strike-backend/internal/logging"
	"github.com/DoyleJ11/skill-strike-backend/internal/store"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("game closed")

type Msg interface{ isLobbyMsg() }

// FromClient asks the game to apply one command. Reply must be buffered; the
// lobby never blocks on it.
type FromClient struct {
	Cmd   engine.Command
	Reply chan Result
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	PlayerID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type Snapshot struct {
	Version int
	State   engine.State
	Events  []engine.Event
}

type View struct {
	Version    int
	NumClients int
	State      engine.State
}

type Result struct {
	Version int
	State   engine.State
	Events  []engine.Event
	Err     error
}

type Options struct {
	Store  store.Store
	Logger *zap.Logger
	Now    func() time.Time
}

type client struct {
	playerID string
	out      chan Snapshot
}

// Lobby owns one game. All reads and writes of the state happen on its loop
// goroutine, so actions for the same game are applied strictly one at a time.
type Lobby struct {
	code    string
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]client
	store   store.Store
	logger  *zap.Logger
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewLobby(parent context.Context, code string, initial engine.State, version int, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := &Lobby{
		code:    code,
		inbox:   make(chan Msg, 64),
		state:   initial,
		version: version,
		clients: make(map[string]client),
		store:   opts.Store,
		logger:  logging.OrNop(opts.Logger).With(zap.String("game", code)),
		now:     opts.Now,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ClientID] = client{playerID: msg.PlayerID, out: msg.Outbox}
				select {
				case msg.Outbox <- Snapshot{Version: l.version, State: l.state}:
				default:
				}
				l.logger.Debug("client joined", zap.String("client", msg.ClientID), zap.String("player", msg.PlayerID))

			case Leave:
				if c, ok := l.clients[msg.ClientID]; ok {
					close(c.out)
					delete(l.clients, msg.ClientID)
				}

			case FromClient:
				res, ok := l.apply(msg.Cmd)
				if msg.Reply != nil {
					msg.Reply <- res
				}
				if ok {
					l.broadcast(Snapshot{Version: res.Version, State: res.State, Events: res.Events})
				}

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.state,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// apply runs cmd through the engine and persists the result before making it
// current. Any failure leaves the lobby's state as it was.
func (l *Lobby) apply(cmd engine.Command) (Result, bool) {
	if cmd.At.IsZero() {
		cmd.At = l.now()
	}
	log := l.logger.With(zap.String("cmd", string(cmd.Type)), zap.String("player", cmd.PlayerID))

	events, next, err := engine.Apply(l.state, cmd)
	if err != nil {
		log.Debug("action rejected", zap.Error(err))
		return Result{Version: l.version, State: l.state, Err: err}, false
	}
	if err := engine.CheckInvariants(next); err != nil {
		log.Error("transition broke invariants", zap.Error(err))
		return Result{Version: l.version, State: l.state, Err: fmt.Errorf("invalid transition: %w", err)}, false
	}

	if l.store != nil {
		ctx, cancel := context.WithTimeout(l.ctx, 5*time.Second)
		err := l.store.Save(ctx, l.code, l.version+1, next)
		cancel()
		if err != nil {
			log.Error("persist game", zap.Int("version", l.version+1), zap.Error(err))
			if errors.Is(err, store.ErrVersionConflict) {
				l.reload()
			}
			return Result{Version: l.version, State: l.state, Err: fmt.Errorf("persist game: %w", err)}, false
		}
	}

	l.state = next
	l.version++
	if engine.ContainsEvent(events, engine.EvtGameCompleted) {
		log.Info("game completed", zap.String("winner", string(next.Winner)), zap.Int("turn", next.Turn.Number))
	}
	return Result{Version: l.version, State: l.state, Events: events}, true
}

// reload picks up a newer copy written by another process.
func (l *Lobby) reload() {
	ctx, cancel := context.WithTimeout(l.ctx, 5*time.Second)
	defer cancel()
	rec, err := l.store.Load(ctx, l.code)
	if err != nil {
		l.logger.Error("reload game", zap.Error(err))
		return
	}
	l.state = rec.State
	l.version = rec.Version
	l.broadcast(Snapshot{Version: l.version, State: l.state})
}

func (l *Lobby) shutdown() {
	for id, c := range l.clients {
		close(c.out) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, c := range l.clients {
		select {
		case c.out <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			l.logger.Warn("dropping slow client", zap.String("client", id))
			close(c.out)
			delete(l.clients, id)
		}
	}
}

// Do submits cmd and waits for the outcome. A rejected action comes back as
// the error with the unchanged state in the result.
func (l *Lobby) Do(ctx context.Context, cmd engine.Command) (Result, error) {
	reply := make(chan Result, 1)
	select {
	case l.inbox <- FromClient{Cmd: cmd, Reply: reply}:
	case <-l.done:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case res := <-reply:
		return res, res.Err
	case <-l.done:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// View returns the current state without racing the loop.
func (l *Lobby) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	select {
	case l.inbox <- GetState{Reply: reply}:
	case <-l.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-l.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (l *Lobby) Code() string { return l.code }

// Done is closed once the loop has exited.
func (l *Lobby) Done() <-chan struct{} { return l.done }

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }
