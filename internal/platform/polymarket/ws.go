package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// PriceUpdateHandler is called for every price tick decoded from the feed.
type PriceUpdateHandler func(domain.PriceUpdate)

// WSClient is a WebSocket client for the Polymarket CLOB market channel.
// It owns one connection; reconnecting is left to the caller.
type WSClient struct {
	wsURL string

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	handlerMu sync.RWMutex
	handlers  []PriceUpdateHandler

	// done is closed when the client is shut down.
	done chan struct{}
}

// NewWSClient creates a new WebSocket client for the given WebSocket URL.
//
// wsURL is the CLOB WebSocket endpoint, e.g. "wss://ws-subscriptions-clob.polymarket.com/ws/market".
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL: wsURL,
		done:  make(chan struct{}),
	}
}

// OnPriceUpdate registers a handler for decoded price ticks.
func (w *WSClient) OnPriceUpdate(h PriceUpdateHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Connect dials the WebSocket and starts the keep-alive pinger.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("polymarket/ws: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("polymarket/ws: connect: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	w.conn = conn

	go w.pingLoop(conn)
	return nil
}

// Subscribe asks for market-channel events for the given asset ids.
func (w *WSClient) Subscribe(assetIDs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("polymarket/ws: not connected")
	}
	return w.sendCommand(WSCommand{Type: "market", AssetIDs: assetIDs})
}

// Unsubscribe stops market-channel events for the given asset ids.
func (w *WSClient) Unsubscribe(assetIDs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("polymarket/ws: not connected")
	}
	return w.sendCommand(WSCommand{Type: "market", Operation: "unsubscribe", AssetIDs: assetIDs})
}

// ReadLoop reads frames and dispatches price ticks until the connection
// drops, ctx ends or the client is closed. A dropped connection is reported
// as an error wrapping domain.ErrWSDisconnect.
func (w *WSClient) ReadLoop(ctx context.Context) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("polymarket/ws: not connected")
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return nil
			default:
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("polymarket/ws: %w: %v", domain.ErrWSDisconnect, err)
		}
		w.handleMessage(message)
	}
}

// Close shuts down the WebSocket connection.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}
	return nil
}

// sendCommand sends a JSON command to the WebSocket. Caller must hold w.mu.
func (w *WSClient) sendCommand(cmd WSCommand) error {
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// pingLoop sends periodic ping messages to keep the WebSocket alive.
func (w *WSClient) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			current := w.conn
			var err error
			if current == conn {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				err = conn.WriteMessage(websocket.PingMessage, nil)
			}
			w.mu.Unlock()
			if current != conn || err != nil {
				return
			}
		}
	}
}

// handleMessage decodes a frame and fans its ticks out to the handlers.
func (w *WSClient) handleMessage(raw []byte) {
	events, err := DecodeWSMessage(raw)
	if err != nil {
		return // Silently drop unparseable messages.
	}

	w.handlerMu.RLock()
	handlers := w.handlers
	w.handlerMu.RUnlock()

	now := time.Now()
	for i := range events {
		for _, u := range events[i].PriceUpdates(now) {
			for _, h := range handlers {
				h(u)
			}
		}
	}
}
