package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/duality-sheet/internal/platform/errors"
	"github.com/louisbranch/duality-sheet/internal/platform/telemetry/metrics"
	"github.com/louisbranch/duality-sheet/internal/platform/timeouts"
)

// Status is the connection state of a Client.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	// StatusDisconnected is terminal: the client gave up or was closed.
	StatusDisconnected Status = "disconnected"
)

// DefaultSchedule is the reconnect delay schedule. Attempts past the end
// reuse the last delay.
var DefaultSchedule = []time.Duration{time.Second, 5 * time.Second}

// DefaultMaxAttempts caps reconnect attempts after a drop.
const DefaultMaxAttempts = 3

// Handler receives character changes. Calls come from the client's read
// goroutine, one at a time.
type Handler interface {
	CharacterChanged(id string, patch map[string]any)
	CharacterRemoved(id string)
}

// Refresher refetches campaign state from the authoritative store.
type Refresher func(ctx context.Context) (State, error)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the connection logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records reconnects and received messages on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithSchedule overrides DefaultSchedule and DefaultMaxAttempts.
func WithSchedule(maxAttempts int, delays ...time.Duration) Option {
	return func(c *Client) {
		if len(delays) > 0 {
			c.delays = delays
		}
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
	}
}

// WithRefresher sets how state is refetched on refresh_required.
func WithRefresher(fn Refresher) Option {
	return func(c *Client) { c.refresh = fn }
}

// Client is a campaign live-update channel client.
type Client struct {
	url         string
	campaignID  string
	handler     Handler
	refresh     Refresher
	delays      []time.Duration
	maxAttempts int
	logger      *zap.Logger
	metrics     *metrics.Metrics

	mu     sync.Mutex
	state  State
	status Status
	conn   *websocket.Conn
}

// NewClient returns a client for the campaign channel at url. handler may be
// nil.
func NewClient(url, campaignID string, handler Handler, opts ...Option) *Client {
	c := &Client{
		url:         strings.TrimSpace(url),
		campaignID:  campaignID,
		handler:     handler,
		delays:      DefaultSchedule,
		maxAttempts: DefaultMaxAttempts,
		logger:      zap.NewNop(),
		status:      StatusIdle,
		state:       State{CampaignID: campaignID},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the local campaign state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Status returns the connection status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) setStatus(status Status) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

// Run connects and processes messages until ctx is done or the server closes
// the channel normally. Unexpected drops are retried on the reconnect
// schedule; when it runs out Run returns a LIVE_DISCONNECTED error.
func (c *Client) Run(ctx context.Context) error {
	if c.url == "" {
		return c.disconnected(ctx, errors.New("live url is required"))
	}
	c.setStatus(StatusConnecting)
	conn, err := c.dial(ctx)
	if err != nil {
		c.logger.Warn("live connect failed", zap.String("campaign_id", c.campaignID), zap.Error(err))
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return c.disconnected(ctx, permanent.Unwrap())
		}
		conn, err = c.reconnect(ctx)
		if err != nil {
			return c.disconnected(ctx, err)
		}
	}

	for {
		c.attach(conn)
		if err := c.rejoin(ctx); err != nil {
			c.logger.Warn("live rejoin failed", zap.Error(err))
		}
		err := c.readLoop(ctx, conn)
		c.attach(nil)

		if ctx.Err() != nil {
			conn.Close(websocket.StatusNormalClosure, "client closed")
			c.setStatus(StatusDisconnected)
			return nil
		}
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			c.setStatus(StatusDisconnected)
			return nil
		}
		conn.CloseNow()
		c.logger.Warn("live connection lost", zap.String("campaign_id", c.campaignID), zap.Error(err))

		conn, err = c.reconnect(ctx)
		if err != nil {
			return c.disconnected(ctx, err)
		}
	}
}

func (c *Client) disconnected(ctx context.Context, err error) error {
	c.setStatus(StatusDisconnected)
	if ctx.Err() != nil {
		return nil
	}
	return apperrors.Wrap(apperrors.CodeLiveDisconnected, "live channel disconnected", err)
}

func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	if conn != nil {
		c.status = StatusConnected
	}
	c.mu.Unlock()
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeouts.LiveDial)
	defer cancel()
	conn, resp, err := websocket.Dial(dialCtx, c.url, nil)
	if err != nil {
		err = fmt.Errorf("dial %s: %w", c.url, err)
		if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	return conn, nil
}

// scheduleBackOff yields a fixed delay schedule and stops after max delays.
type scheduleBackOff struct {
	delays []time.Duration
	max    int
	n      int
}

func (b *scheduleBackOff) NextBackOff() time.Duration {
	if b.n >= b.max || len(b.delays) == 0 {
		return backoff.Stop
	}
	d := b.delays[min(b.n, len(b.delays)-1)]
	b.n++
	return d
}

func (b *scheduleBackOff) Reset() { b.n = 0 }

func (c *Client) reconnect(ctx context.Context) (*websocket.Conn, error) {
	var schedule backoff.BackOff = &scheduleBackOff{delays: c.delays, max: c.maxAttempts}
	var lastErr error
	for {
		delay := schedule.NextBackOff()
		if delay == backoff.Stop {
			if lastErr == nil {
				lastErr = errors.New("no reconnect attempts allowed")
			}
			return nil, lastErr
		}
		c.setStatus(StatusReconnecting)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		c.metrics.RecordLiveReconnect(ctx)
		conn, err := c.dial(ctx)
		if err == nil {
			return conn, nil
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return nil, permanent.Unwrap()
		}
		lastErr = err
		c.logger.Warn("live reconnect failed",
			zap.String("campaign_id", c.campaignID),
			zap.Duration("after", delay),
			zap.Error(err),
		)
	}
}

func (c *Client) rejoin(ctx context.Context) error {
	c.mu.Lock()
	version := c.state.Version
	c.mu.Unlock()
	return c.send(ctx, TypeRejoin, RejoinPayload{CampaignID: c.campaignID, Version: version})
}

// UpdateState sends a partial state patch. Local state changes when the
// server echoes it back.
func (c *Client) UpdateState(ctx context.Context, patch map[string]any) error {
	return c.send(ctx, TypeUpdateState, patch)
}

func (c *Client) send(ctx context.Context, t MessageType, data any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return apperrors.New(apperrors.CodeLiveDisconnected, "live channel is not connected")
	}
	msg, err := NewMessage(t, data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", t, err)
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", t, err)
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("live message ignored", zap.Error(err))
			continue
		}
		c.metrics.RecordLiveMessage(ctx, string(msg.Type))
		c.handle(ctx, msg)
	}
}

func (c *Client) handle(ctx context.Context, msg Message) {
	c.mu.Lock()
	next, change, err := Apply(c.state, msg)
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("live message rejected", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}
	c.state = next
	c.mu.Unlock()

	if change.Error != "" {
		c.logger.Warn("live channel error", zap.String("campaign_id", c.campaignID), zap.String("message", change.Error))
	}
	if change.Refresh {
		c.refetch(ctx)
		return
	}
	c.dispatch(change)
}

func (c *Client) refetch(ctx context.Context) {
	if c.refresh == nil {
		c.logger.Warn("live refresh requested without a refresher", zap.String("campaign_id", c.campaignID))
		return
	}
	fresh, err := c.refresh(ctx)
	if err != nil {
		c.logger.Warn("live refresh failed", zap.String("campaign_id", c.campaignID), zap.Error(err))
		return
	}
	if fresh.CampaignID == "" {
		fresh.CampaignID = c.campaignID
	}
	fresh.normalize()

	c.mu.Lock()
	previous := c.state
	c.state = fresh.Clone()
	c.mu.Unlock()

	c.dispatch(replaced(previous, fresh))
}

func (c *Client) dispatch(change Change) {
	if c.handler == nil {
		return
	}
	for _, id := range change.CharacterIDs() {
		c.handler.CharacterChanged(id, change.Characters[id])
	}
	for _, id := range change.Removed {
		c.handler.CharacterRemoved(id)
	}
}
