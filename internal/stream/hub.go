package stream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/pendsim/internal/pendulum"
	"github.com/san-kum/pendsim/internal/storage"
)

type Options struct {
	TickHz      int
	BroadcastHz int
	Logger      *slog.Logger
}

// Hub owns one pendulum and advances it on its own goroutine. All client
// bookkeeping happens on that goroutine through Inbox, so the pendulum is
// never shared.
type Hub struct {
	Inbox chan any

	done           chan struct{}
	cfg            pendulum.Config
	pend           *pendulum.Pendulum
	tickHz         int
	broadcastHz    int
	broadcastEvery int
	frames         int
	paused         bool
	clients        map[string]Conn
	nextID         int
	log            *slog.Logger
}

func NewHub(cfg pendulum.Config, opts Options) *Hub {
	if opts.TickHz <= 0 {
		opts.TickHz = DefaultTickHz
	}
	if opts.BroadcastHz <= 0 {
		opts.BroadcastHz = DefaultBroadcastHz
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	broadcastEvery := opts.TickHz / opts.BroadcastHz
	if broadcastEvery <= 0 {
		broadcastEvery = 1
	}

	return &Hub{
		Inbox:          make(chan any, 256),
		done:           make(chan struct{}),
		cfg:            cfg,
		pend:           pendulum.NewUnchecked(cfg),
		tickHz:         opts.TickHz,
		broadcastHz:    opts.BroadcastHz,
		broadcastEvery: broadcastEvery,
		clients:        make(map[string]Conn),
		nextID:         1,
		log:            opts.Logger,
	}
}

// Run advances and broadcasts until ctx is cancelled. Remaining clients are
// closed on return. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(h.tickHz))
	defer ticker.Stop()
	defer close(h.done)
	defer h.closeAll()

	h.log.Info("hub started", "tick_hz", h.tickHz, "broadcast_every", h.broadcastEvery)

	for {
		select {
		case <-ctx.Done():
			h.log.Info("hub stopped", "tick", h.pend.Tick())
			return
		case cmd := <-h.Inbox:
			h.handleCommand(cmd)
		case <-ticker.C:
			if !h.paused {
				h.pend.Advance()
			}
			h.frames++
			if h.frames%h.broadcastEvery == 0 {
				h.broadcastState()
			}
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

// submit queues cmd unless the hub has stopped.
func (h *Hub) submit(cmd any) bool {
	select {
	case h.Inbox <- cmd:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		id := fmt.Sprintf("c%d", h.nextID)
		h.nextID++
		h.clients[id] = c.Conn
		h.log.Debug("client joined", "client", id, "clients", len(h.clients))

		h.sendWelcome(id, c.Conn)
		if c.Reply != nil {
			c.Reply <- JoinResult{ClientID: id}
		}
	case Leave:
		h.removeClient(c.ClientID)
	case Control:
		h.handleControl(c)
	default:
		h.log.Warn("unknown hub command", "type", fmt.Sprintf("%T", cmd))
	}
}

func (h *Hub) handleControl(c Control) {
	switch c.Action {
	case ActionPause:
		h.paused = true
	case ActionResume:
		h.paused = false
	case ActionReset:
		h.pend = pendulum.NewUnchecked(h.cfg)
	default:
		h.log.Warn("unknown control action", "client", c.ClientID, "action", c.Action)
		return
	}
	h.log.Debug("control", "client", c.ClientID, "action", c.Action)
}

func (h *Hub) sendWelcome(id string, c Conn) {
	p := h.cfg.Params
	b, err := Encode(MsgWelcome, Welcome{
		ClientID:    id,
		TickHz:      h.tickHz,
		BroadcastHz: h.broadcastHz,
		Params: storage.Params{
			R1: storage.Number(p.R1), R2: storage.Number(p.R2),
			M1: storage.Number(p.M1), M2: storage.Number(p.M2),
		},
	})
	if err != nil {
		h.log.Error("encode welcome", "err", err)
		return
	}
	if err := c.Send(b); err != nil {
		h.removeClient(id)
	}
}

func (h *Hub) broadcastState() {
	if len(h.clients) == 0 {
		return
	}

	b, err := Encode(MsgState, stateFrom(h.pend.Snapshot(), h.paused))
	if err != nil {
		h.log.Error("encode state", "err", err)
		return
	}

	var failed []string
	for id, c := range h.clients {
		if err := c.Send(b); err != nil {
			h.log.Debug("send failed", "client", id, "err", err)
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		h.removeClient(id)
	}
}

func (h *Hub) removeClient(id string) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	_ = c.Close()
	delete(h.clients, id)
	h.log.Debug("client left", "client", id, "clients", len(h.clients))
}

func (h *Hub) closeAll() {
	for id := range h.clients {
		h.removeClient(id)
	}
}
