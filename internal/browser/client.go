package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/kedrpeek/Voice-RVC/internal/metrics"
)

// Client is a minimal Chrome DevTools Protocol client over a websocket
// connection to one page target. Commands are correlated to replies by id;
// protocol events are ignored, since completion is detected by polling page
// state rather than by subscribing to load events.
type Client struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	metrics *metrics.Metrics

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan *response
	readErr error

	done      chan struct{}
	closeOnce sync.Once
}

// Dial discovers the page target serving pageURL on the given debugger
// address (host:port of Chrome's remote debugging endpoint) and attaches to
// it.
func Dial(ctx context.Context, debuggerAddr, pageURL string, logger *slog.Logger, m *metrics.Metrics) (*Client, error) {
	wsURL, err := findPageTarget(ctx, debuggerAddr, pageURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to attach to page target %s: %w", wsURL, err)
	}

	c := &Client{
		conn:    conn,
		logger:  logger,
		metrics: m,
		pending: make(map[int64]chan *response),
		done:    make(chan struct{}),
	}
	go c.readLoop()

	logger.Info("Attached to browser page target", slog.String("url", wsURL))
	return c, nil
}

// findPageTarget queries /json/list on the debugger endpoint and picks the
// page whose URL matches pageURL, falling back to the first page target.
func findPageTarget(ctx context.Context, debuggerAddr, pageURL string) (string, error) {
	listURL := fmt.Sprintf("http://%s/json/list", debuggerAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build target list request: %w", err)
	}

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		return "", fmt.Errorf("cannot reach Chrome debugger at %s (is Chrome running with --remote-debugging-port?): %w", debuggerAddr, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read target list: %w", err)
	}

	var targets []targetInfo
	if err := sonic.Unmarshal(body, &targets); err != nil {
		return "", fmt.Errorf("failed to parse target list: %w", err)
	}

	var fallback string
	for _, t := range targets {
		if t.Type != "page" || t.WebSocketDebuggerURL == "" {
			continue
		}
		if strings.HasPrefix(t.URL, pageURL) {
			return t.WebSocketDebuggerURL, nil
		}
		if fallback == "" {
			fallback = t.WebSocketDebuggerURL
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", fmt.Errorf("no page target found at %s; open %s in Chrome first", debuggerAddr, pageURL)
}

// Call issues one protocol command and decodes its result into out (when out
// is non-nil).
func (c *Client) Call(ctx context.Context, method string, params, out any) error {
	err := c.call(ctx, method, params, out)
	c.metrics.RecordBrowserCommand(err != nil)
	return err
}

func (c *Client) call(ctx context.Context, method string, params, out any) error {
	id := c.nextID.Add(1)

	payload, err := sonic.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode %s command: %w", method, err)
	}

	ch := make(chan *response, 1)
	c.mu.Lock()
	if c.readErr != nil {
		err := c.readErr
		c.mu.Unlock()
		return fmt.Errorf("browser connection lost: %w", err)
	}
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	writeErr := c.conn.WriteMessage(websocket.TextMessage, payload)
	c.writeMu.Unlock()
	if writeErr != nil {
		c.unregister(id)
		return fmt.Errorf("failed to send %s command: %w", method, writeErr)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("%s failed: %w", method, resp.Error)
		}
		if out != nil && resp.Result != nil {
			if err := sonic.Unmarshal(resp.Result, out); err != nil {
				return fmt.Errorf("failed to decode %s result: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.unregister(id)
		return ctx.Err()
	case <-c.done:
		c.mu.Lock()
		err := c.readErr
		c.mu.Unlock()
		return fmt.Errorf("browser connection lost: %w", err)
	}
}

func (c *Client) unregister(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// readLoop dispatches replies to their waiting callers until the connection
// fails or is closed.
func (c *Client) readLoop() {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.pending = make(map[int64]chan *response)
			c.mu.Unlock()
			close(c.done)
			return
		}

		var resp response
		if err := sonic.Unmarshal(msg, &resp); err != nil {
			c.logger.Debug("Discarding unparsable protocol frame", slog.String("error", err.Error()))
			continue
		}
		if resp.ID == 0 {
			// Protocol event, not a command reply.
			continue
		}

		c.mu.Lock()
		ch := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()

		if ch != nil {
			ch <- &resp
		}
	}
}

// Close tears down the websocket connection. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}
