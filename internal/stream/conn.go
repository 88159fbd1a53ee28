package stream

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// sendQueue is the number of frames buffered per client before it counts as
// stalled.
const sendQueue = 32

var (
	ErrSlowClient   = errors.New("stream: client send queue full")
	ErrClientClosed = errors.New("stream: client closed")
)

// frameWriter is the subset of *websocket.Conn the writer goroutine uses.
type frameWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// queuedConn is a Conn whose Send never blocks. Frames go through a bounded
// queue drained by its own goroutine, so one stalled socket cannot hold up
// the hub's tick loop.
type queuedConn struct {
	w     frameWriter
	queue chan []byte
	dead  chan struct{}
	once  sync.Once
}

func newQueuedConn(w frameWriter, size int) *queuedConn {
	c := &queuedConn{
		w:     w,
		queue: make(chan []byte, size),
		dead:  make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *queuedConn) writeLoop() {
	defer close(c.dead)
	for b := range c.queue {
		_ = c.w.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.w.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = c.w.Close()
			return
		}
	}
}

// Send queues b. It fails once the writer has died or when the queue is
// full. Send and Close must be called from one goroutine.
func (c *queuedConn) Send(b []byte) error {
	select {
	case <-c.dead:
		return ErrClientClosed
	default:
	}
	select {
	case c.queue <- b:
		return nil
	default:
		return ErrSlowClient
	}
}

// Close stops the writer and closes the socket without waiting for queued
// frames.
func (c *queuedConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.queue)
		err = c.w.Close()
	})
	return err
}
