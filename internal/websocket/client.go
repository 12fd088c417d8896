package websocket

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/shinyyama/centace-backend/internal/live"
	"github.com/shinyyama/centace-backend/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	actionTimeout  = 10 * time.Second
)

// NewUpgrader checks the Origin header with allow. A nil allow or a
// request without Origin is accepted.
func NewUpgrader(allow func(origin string) bool) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allow == nil || origin == "" {
				return true
			}
			if allow(origin) {
				return true
			}
			logging.Warn().Str("origin", origin).Msg("websocket: origin rejected")
			return false
		},
	}
}

// Client pumps one session's view to one connection and applies the
// commands it sends back. The session is closed when the client stops.
type Client struct {
	conn    *websocket.Conn
	session *live.Session
	send    chan Message
	done    chan struct{}
}

func NewClient(conn *websocket.Conn, session *live.Session) *Client {
	return &Client{
		conn:    conn,
		session: session,
		send:    make(chan Message, 64),
		done:    make(chan struct{}),
	}
}

// Run blocks until the connection ends.
func (c *Client) Run(ctx context.Context) {
	defer c.session.Close()

	go c.writePump()
	c.enqueue(c.snapshot())
	go c.forward()
	c.readPump(ctx)
	close(c.done)
}

func (c *Client) snapshot() Message {
	return Message{Type: MessageTypeSnapshot, Data: c.session.View()}
}

func (c *Client) forward() {
	last := c.session.Status()
	for {
		select {
		case <-c.done:
			return
		case <-c.session.Changes():
			view := c.session.View()
			if view.Status != last {
				last = view.Status
				c.enqueue(Message{Type: MessageTypeStatus, Data: StatusData{Status: string(view.Status)}})
			}
			c.enqueue(Message{Type: MessageTypeSnapshot, Data: view})
		case alert := <-c.session.Alerts():
			c.enqueue(Message{Type: MessageTypeAlert, Data: alert})
		}
	}
}

func (c *Client) enqueue(msg Message) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		logging.Warn().Str("uid", c.session.UserUID()).Str("type", msg.Type).Msg("websocket: send buffer full, message dropped")
	}
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("websocket: set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.Warn().Err(err).Str("uid", c.session.UserUID()).Msg("websocket: unexpected close")
			}
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.enqueue(Message{Type: MessageTypeError, Data: ErrorData{Action: "decode", Message: "malformed message"}})
			continue
		}
		c.handle(ctx, cmd)
	}
}

func (c *Client) handle(ctx context.Context, cmd Command) {
	actx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	var err error
	switch cmd.Type {
	case MessageTypePing:
		c.enqueue(Message{Type: MessageTypePong})
		return
	case MessageTypeMarkRead:
		err = c.session.MarkAsRead(actx, cmd.ID)
	case MessageTypeMarkAllRead:
		err = c.session.MarkAllAsRead(actx)
	case MessageTypeDelete:
		err = c.session.DeleteOne(actx, cmd.ID)
	default:
		c.enqueue(Message{Type: MessageTypeError, Data: ErrorData{Action: cmd.Type, Message: "unknown message type"}})
		return
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("action", cmd.Type).Uint64("id", cmd.ID).Msg("websocket: action failed")
		msg := "action failed, please retry"
		if errors.Is(err, live.ErrClosed) {
			msg = "session closed"
		}
		c.enqueue(Message{Type: MessageTypeError, Data: ErrorData{Action: cmd.Type, Message: msg}})
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			data, err := json.Marshal(msg)
			if err != nil {
				logging.Error().Err(err).Str("type", msg.Type).Msg("websocket: encode message")
				continue
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Debug().Err(err).Msg("websocket: write failed")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
