package stream

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	readLimit  = 1 << 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades requests to websockets and attaches them to the hub.
// Clients receive a welcome envelope followed by state frames and may send
// control envelopes.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			if _, ok := err.(websocket.HandshakeError); !ok {
				h.log.Warn("upgrade", "remote", r.RemoteAddr, "err", err)
			}
			return
		}

		conn := newQueuedConn(ws, sendQueue)
		reply := make(chan JoinResult, 1)
		if !h.submit(Join{Conn: conn, Reply: reply}) {
			conn.Close()
			return
		}
		var res JoinResult
		select {
		case res = <-reply:
		case <-h.done:
			conn.Close()
			return
		}
		h.log.Info("client connected", "client", res.ClientID, "remote", r.RemoteAddr)

		done := make(chan struct{})
		defer close(done)
		go pingLoop(ws, done)

		h.readLoop(res.ClientID, ws)

		h.submit(Leave{ClientID: res.ClientID})
		h.log.Info("client disconnected", "client", res.ClientID)
	})
}

func (h *Hub) readLoop(id string, ws *websocket.Conn) {
	ws.SetReadLimit(readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("read", "client", id, "err", err)
			}
			return
		}

		env, err := DecodeEnvelope(msg)
		if err != nil || env.T != MsgControl {
			h.log.Debug("ignored message", "client", id)
			continue
		}
		req, err := DecodePayload[ControlRequest](env)
		if err != nil {
			h.log.Debug("bad control payload", "client", id, "err", err)
			continue
		}
		if !h.submit(Control{ClientID: id, Action: req.Action}) {
			return
		}
	}
}

func pingLoop(ws *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
