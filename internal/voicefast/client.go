package voicefast

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/kapu/rush-maximizer-go/internal/obslog"
)

// State of the voice gateway connection.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateFailed       State = "failed"
)

// Transcript is one recognition result from the speech sidecar. Partial
// transcripts stream while the player is still talking; a final transcript
// closes the utterance and is what gets submitted as a query.
type Transcript struct {
	Type string `json:"type"` // "partial" or "final"
	Text string `json:"text"`
}

type TranscriptCallback func(tr Transcript)
type StateCallback func(s State)

// Client maintains a websocket to the speech-to-text sidecar. Raw audio
// chunks go out as binary frames; recognition results come back as JSON.
// The connection self-heals with bounded backoff.
type Client struct {
	url string

	mu    sync.RWMutex
	conn  *websocket.Conn
	state State

	onTranscript TranscriptCallback
	onState      StateCallback

	maxReconnects  int
	reconnectDelay time.Duration
	pingInterval   time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

func NewClient(url string, maxReconnects int, reconnectDelay time.Duration) *Client {
	return &Client{
		url:            url,
		state:          StateDisconnected,
		maxReconnects:  maxReconnects,
		reconnectDelay: reconnectDelay,
		pingInterval:   30 * time.Second,
		stopCh:         make(chan struct{}),
	}
}

// OnTranscript registers the single transcript consumer. Must be called
// before Connect.
func (c *Client) OnTranscript(cb TranscriptCallback) { c.onTranscript = cb }

// OnState registers the single state observer. Must be called before Connect.
func (c *Client) OnState(cb StateCallback) { c.onState = cb }

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.rootCtx, c.rootCancel = context.WithCancel(context.Background())
	c.setState(StateConnecting)

	if err := c.dial(ctx); err != nil {
		c.setState(StateFailed)
		c.scheduleReconnect()
		return err
	}
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		return err
	}
	// audio chunks can be large
	conn.SetReadLimit(1 << 20)

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.setState(StateConnected)

	c.wg.Add(2)
	go c.listen(conn)
	go c.pingLoop(conn)
	return nil
}

// SendAudio forwards one raw audio chunk to the recognizer.
func (c *Client) SendAudio(ctx context.Context, chunk []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Write(ctx, websocket.MessageBinary, chunk)
}

// FinishUtterance tells the recognizer to flush and emit a final transcript.
func (c *Client) FinishUtterance(ctx context.Context) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}
	return wsjson.Write(ctx, conn, map[string]string{"action": "finish"})
}

func (c *Client) listen(conn *websocket.Conn) {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		var tr Transcript
		if err := wsjson.Read(c.rootCtx, conn, &tr); err != nil {
			if c.isStopping() {
				return
			}
			obslog.L().Warn("voice_ws_read_error", zap.Error(err))
			c.dropConn(conn, websocket.StatusGoingAway, "reconnect")
			c.scheduleReconnect()
			return
		}
		if c.onTranscript != nil && tr.Text != "" {
			c.onTranscript(tr)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	defer c.wg.Done()
	t := time.NewTicker(c.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-c.stopCh:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(c.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				if c.isStopping() {
					return
				}
				c.dropConn(conn, websocket.StatusGoingAway, "ping failure")
				c.scheduleReconnect()
				return
			}
		}
	}
}

func (c *Client) scheduleReconnect() {
	if c.maxReconnects <= 0 {
		c.setState(StateFailed)
		return
	}
	c.setState(StateReconnecting)

	go func() {
		for attempt := 1; attempt <= c.maxReconnects; attempt++ {
			select {
			case <-c.stopCh:
				return
			case <-time.After(c.backoff(attempt)):
			}
			if err := c.dial(c.rootCtx); err != nil {
				obslog.L().Warn("voice_ws_reconnect_failed",
					zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			return
		}
		c.setState(StateFailed)
	}()
}

func (c *Client) backoff(attempt int) time.Duration {
	d := time.Duration(float64(c.reconnectDelay) * math.Pow(1.5, float64(attempt-1)))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	if c.onState != nil {
		c.onState(s)
	}
}

func (c *Client) dropConn(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	c.setState(StateDisconnected)
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close(code, reason)
}

func (c *Client) isStopping() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

func (c *Client) Close(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stopCh) })

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		if c.rootCancel != nil {
			c.rootCancel()
		}
		c.setState(StateDisconnected)
		return nil
	}
}
