package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/inkfold/inkfold/core"
	"github.com/inkfold/inkfold/logging"
)

// Frame is the JSON envelope written to websocket peers. The event payload
// is the logical lifecycle contract; no further framing is prescribed.
type Frame struct {
	Channel string         `json:"channel"`
	Event   core.TaskEvent `json:"event"`
}

// WebSocketObserverOptions configures a WebSocketObserver.
type WebSocketObserverOptions struct {
	// WriteTimeout bounds each frame write so a dead peer cannot wedge the
	// observer's delivery goroutine indefinitely.
	WriteTimeout time.Duration
	Logger       logging.Logger
}

// WebSocketObserver forwards events as JSON frames over a websocket
// connection, adapting a remote UI surface (renderer window) into a hub
// observer. Writes are serialized; write failures are logged and the frame
// dropped, consistent with the bus's fire-and-forget contract.
type WebSocketObserver struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration
	logger       logging.Logger
	mu           sync.Mutex
}

// NewWebSocketObserver wraps an established websocket connection.
func NewWebSocketObserver(id string, conn *websocket.Conn, optFns ...func(o *WebSocketObserverOptions)) *WebSocketObserver {
	opts := WebSocketObserverOptions{
		WriteTimeout: 10 * time.Second,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &WebSocketObserver{
		id:           id,
		conn:         conn,
		writeTimeout: opts.WriteTimeout,
		logger:       opts.Logger,
	}
}

// ID returns the observer id used for addressed delivery.
func (o *WebSocketObserver) ID() string { return o.id }

// Notify implements Observer by writing one JSON frame to the peer.
func (o *WebSocketObserver) Notify(channel string, ev core.TaskEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.conn.SetWriteDeadline(time.Now().Add(o.writeTimeout)); err != nil {
		o.logger.Warn("websocket.observer.deadline observer=%s error=%v", o.id, err)
		return
	}

	if err := o.conn.WriteJSON(Frame{Channel: channel, Event: ev}); err != nil {
		o.logger.Warn("websocket.observer.write observer=%s task_id=%s error=%v", o.id, ev.TaskID, err)
	}
}

// Close sends a close frame and tears down the connection.
func (o *WebSocketObserver) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	deadline := time.Now().Add(o.writeTimeout)
	_ = o.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)

	return o.conn.Close()
}
