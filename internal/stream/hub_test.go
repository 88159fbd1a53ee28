package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/pendsim/internal/pendulum"
)

type fakeConn struct {
	sendCh chan []byte
	closed chan struct{}
	fail   bool
}

func newFakeConn(fail bool) *fakeConn {
	return &fakeConn{sendCh: make(chan []byte, 256), closed: make(chan struct{}), fail: fail}
}

func (f *fakeConn) Send(b []byte) error {
	if f.fail {
		return errors.New("broken pipe")
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	select {
	case f.sendCh <- cp:
	default:
	}
	return nil
}

func (f *fakeConn) Close() error {
	select {
	case <-f.closed:
	default:
		close(f.closed)
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(pendulum.DefaultConfig(), Options{TickHz: 200, BroadcastHz: 100, Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func join(t *testing.T, h *Hub, c Conn) string {
	t.Helper()
	reply := make(chan JoinResult, 1)
	h.Inbox <- Join{Conn: c, Reply: reply}
	res := <-reply
	if res.ClientID == "" {
		t.Fatal("expected client id")
	}
	return res.ClientID
}

func nextOfType[T any](t *testing.T, fc *fakeConn, msgType string) T {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case b := <-fc.sendCh:
			env, err := DecodeEnvelope(b)
			if err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.T != msgType {
				continue
			}
			out, err := DecodePayload[T](env)
			if err != nil {
				t.Fatalf("decode %s: %v", msgType, err)
			}
			return out
		case <-timeout:
			t.Fatalf("timed out waiting for %s", msgType)
		}
	}
}

func TestHubWelcomeThenState(t *testing.T) {
	h := startHub(t)
	fc := newFakeConn(false)
	id := join(t, h, fc)

	w := nextOfType[Welcome](t, fc, MsgWelcome)
	if w.ClientID != id {
		t.Errorf("expected client id %q, got %q", id, w.ClientID)
	}
	if w.TickHz != 200 || w.BroadcastHz != 100 {
		t.Errorf("unexpected rates %d/%d", w.TickHz, w.BroadcastHz)
	}
	if w.Params.Pendulum() != pendulum.DefaultConfig().Params {
		t.Errorf("unexpected params %+v", w.Params)
	}

	first := nextOfType[State](t, fc, MsgState)
	second := nextOfType[State](t, fc, MsgState)
	if second.Tick <= first.Tick {
		t.Errorf("expected advancing ticks, got %d then %d", first.Tick, second.Tick)
	}
}

func TestHubStateMatchesPendulum(t *testing.T) {
	h := startHub(t)
	fc := newFakeConn(false)
	join(t, h, fc)

	st := nextOfType[State](t, fc, MsgState)

	p := pendulum.NewUnchecked(pendulum.DefaultConfig())
	for i := uint64(0); i < st.Tick; i++ {
		p.Advance()
	}
	snap := p.Snapshot()
	if float64(st.Bob2.X) != snap.Bob2.X || float64(st.Bob2.Y) != snap.Bob2.Y {
		t.Errorf("tick %d: got bob2 (%v,%v), want %+v", st.Tick, st.Bob2.X, st.Bob2.Y, snap.Bob2)
	}
}

func TestHubPause(t *testing.T) {
	h := startHub(t)
	fc := newFakeConn(false)
	id := join(t, h, fc)

	h.Inbox <- Control{ClientID: id, Action: ActionPause}

	timeout := time.After(2 * time.Second)
	var last *State
	for {
		select {
		case <-timeout:
			t.Fatal("never observed a paused, stationary state")
		default:
		}
		st := nextOfType[State](t, fc, MsgState)
		if st.Paused && last != nil && last.Paused && last.Tick == st.Tick {
			return
		}
		last = &st
	}
}

func TestHubReset(t *testing.T) {
	h := startHub(t)
	fc := newFakeConn(false)
	id := join(t, h, fc)

	h.Inbox <- Control{ClientID: id, Action: ActionPause}
	nextOfType[State](t, fc, MsgState)
	h.Inbox <- Control{ClientID: id, Action: ActionReset}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case <-timeout:
			t.Fatal("never observed reset state")
		default:
		}
		if st := nextOfType[State](t, fc, MsgState); st.Tick == 0 {
			return
		}
	}
}

func TestHubDropsFailingClient(t *testing.T) {
	h := startHub(t)
	fc := newFakeConn(true)
	reply := make(chan JoinResult, 1)
	h.Inbox <- Join{Conn: fc, Reply: reply}
	<-reply

	select {
	case <-fc.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("failing client was not closed")
	}
}

func TestHubLeaveClosesClient(t *testing.T) {
	h := startHub(t)
	fc := newFakeConn(false)
	id := join(t, h, fc)

	h.Inbox <- Leave{ClientID: id}
	select {
	case <-fc.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("client was not closed on leave")
	}
}

func TestHubStopClosesClients(t *testing.T) {
	h := NewHub(pendulum.DefaultConfig(), Options{TickHz: 100, Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	fc := newFakeConn(false)
	join(t, h, fc)
	cancel()
	<-done

	select {
	case <-fc.closed:
	default:
		t.Error("expected client closed when hub stops")
	}
}

func TestSubmitAfterStop(t *testing.T) {
	h := NewHub(pendulum.DefaultConfig(), Options{TickHz: 100, Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Run(ctx)

	select {
	case <-h.Done():
	default:
		t.Fatal("expected Done closed after Run returns")
	}
	for i := 0; i < cap(h.Inbox)+1; i++ {
		if !h.submit(Leave{ClientID: "c1"}) {
			return
		}
	}
	t.Error("submit kept queueing after the hub stopped")
}

func TestEncodeRejectsEmpty(t *testing.T) {
	if _, err := Encode("", State{}); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := Encode(MsgState, nil); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := DecodeEnvelope(nil); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestHandlerStreamsOverWebsocket(t *testing.T) {
	h := startHub(t)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	env, err := DecodeEnvelope(msg)
	if err != nil || env.T != MsgWelcome {
		t.Fatalf("expected welcome, got %q (%v)", env.T, err)
	}

	ctrl, err := Encode(MsgControl, ControlRequest{Action: ActionPause})
	if err != nil {
		t.Fatalf("encode control: %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, ctrl); err != nil {
		t.Fatalf("write control: %v", err)
	}

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("read state: %v", err)
		}
		env, err := DecodeEnvelope(msg)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		st, err := DecodePayload[State](env)
		if err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if st.Paused {
			return
		}
	}
}
