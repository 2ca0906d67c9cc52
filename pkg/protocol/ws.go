package protocol

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

type WebSocket struct {
	mu     sync.Mutex
	conn   *ws.Conn
	url    string
	reconn time.Duration
}

func NewWebSocket(url string, reconn time.Duration) (*WebSocket, error) {
	log.Debug("init websocket protocol", "url", url)

	if reconn <= 0 {
		reconn = time.Second
	}

	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	return &WebSocket{conn: conn, url: url, reconn: reconn}, nil
}

func (web *WebSocket) Write(payload []byte) error {
	log.Debug("Write ws", "msg", string(payload))
	web.mu.Lock()
	defer web.mu.Unlock()
	return web.conn.WriteMessage(ws.TextMessage, payload)
}

func (web *WebSocket) Close() error {
	web.mu.Lock()
	defer web.mu.Unlock()
	return web.conn.Close()
}

type WsIncomeKind uint

const (
	CONN_CLOSE WsIncomeKind = iota
	READ_FAILURE
	READ_OK
)

type Income struct {
	kind WsIncomeKind
	msg  []byte
	err  error
}

func (web *WebSocket) Read() Income {
	web.mu.Lock()
	conn := web.conn
	web.mu.Unlock()

	_, msg, err := conn.ReadMessage()
	if err != nil {
		if WsIsClosed(err) {
			return Income{kind: CONN_CLOSE, err: err}
		}
		return Income{kind: READ_FAILURE, err: err}
	}

	log.Debug("Read ws", "msg", string(msg))
	return Income{kind: READ_OK, msg: msg}
}

// TryReconn redials until it succeeds or ctx is done.
func (web *WebSocket) TryReconn(ctx context.Context) error {
	for {
		conn, _, err := ws.DefaultDialer.DialContext(ctx, web.url, nil)
		if err == nil {
			web.mu.Lock()
			web.conn = conn
			web.mu.Unlock()
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(web.reconn):
		}
	}
}

func WsIsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
