package stream

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/san-kum/pendsim/internal/pendulum"
	"github.com/san-kum/pendsim/internal/storage"
)

const (
	MsgWelcome = "welcome"
	MsgState   = "state"
	MsgControl = "control"
)

const (
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionReset  = "reset"
)

const (
	DefaultTickHz      = 60
	DefaultBroadcastHz = 20
)

var ErrEmptyMessage = errors.New("stream: empty message")

// Envelope is the framing of every message in both directions.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

type Welcome struct {
	ClientID    string         `json:"clientId"`
	TickHz      int            `json:"tickHz"`
	BroadcastHz int            `json:"broadcastHz"`
	Params      storage.Params `json:"params"`
}

type Point struct {
	X storage.Number `json:"x"`
	Y storage.Number `json:"y"`
}

// State is one broadcast frame. Coordinates may be non-finite and are then
// sent as strings.
type State struct {
	Tick   uint64 `json:"tick"`
	Paused bool   `json:"paused,omitempty"`
	Bob1   Point  `json:"bob1"`
	Bob2   Point  `json:"bob2"`
}

type ControlRequest struct {
	Action string `json:"action"`
}

func stateFrom(s pendulum.Snapshot, paused bool) State {
	return State{
		Tick:   s.Tick,
		Paused: paused,
		Bob1:   Point{X: storage.Number(s.Bob1.X), Y: storage.Number(s.Bob1.Y)},
		Bob2:   Point{X: storage.Number(s.Bob2.X), Y: storage.Number(s.Bob2.Y)},
	}
}

func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("%w: envelope type", ErrEmptyMessage)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: payload for %q", ErrEmptyMessage, t)
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{T: t, P: pb})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, ErrEmptyMessage
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 {
		return out, fmt.Errorf("%w: payload for %q", ErrEmptyMessage, env.T)
	}
	err := json.Unmarshal(env.P, &out)
	return out, err
}
