package stream

// Conn is a client the hub can push frames to.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Join registers a client; the hub replies with its id.
type Join struct {
	Conn  Conn
	Reply chan<- JoinResult
}

type JoinResult struct {
	ClientID string
}

// Leave is issued when a client disconnects.
type Leave struct {
	ClientID string
}

// Control changes the running state of the shared pendulum.
type Control struct {
	ClientID string
	Action   string
}
