package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
)

// Client talks to one controller over one session. A Client is meant to serve a single
// authorization flow and then be dropped; it is not safe for concurrent use.
type Client struct {
	cfg       Config
	transport *Transport
	logger    *zap.Logger
	// initErr is set when the transport could not be built; every call then fails as a
	// transport error.
	initErr error
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger; nil keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Client with its own Transport and cookie jar.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("controller", cfg.BaseURL), zap.String("site", cfg.site()))
	c.transport, c.initErr = NewTransport(cfg, c.logger)
	return c
}

// Factory builds a new Client with a fresh session on every call.
type Factory func() *Client

// NewFactory returns a Factory over cfg that logs through logger.
func NewFactory(cfg Config, logger *zap.Logger) Factory {
	return func() *Client {
		return New(cfg, WithLogger(logger))
	}
}

// Login authenticates against each known login path in order and stops at the first
// success. Without a username and password it fails without touching the network.
func (c *Client) Login(ctx context.Context) bool {
	if !c.cfg.hasCredentials() {
		c.logger.Warn("controller username or password not configured")
		return false
	}
	if c.initErr != nil {
		c.logger.Error("controller transport unavailable", zap.Error(c.initErr))
		return false
	}

	body := &loginRequest{Username: c.cfg.Username, Password: c.cfg.Password, Remember: true}
	for _, path := range loginPaths {
		res := c.call(loginDecisions, func() (RawResponse, error) {
			return c.transport.PostNoRedirect(ctx, path, body)
		})
		c.logResult("login attempt", path, res)
		if res.OK() {
			c.logger.Info("controller login succeeded", zap.String("path", path), zap.String("rule", res.Rule))
			return true
		}
	}
	c.logger.Warn("controller login failed on all endpoints")
	return false
}

// AuthorizeGuest grants network access to mac for minutes. The session must already be
// logged in. No retry is attempted.
func (c *Client) AuthorizeGuest(ctx context.Context, mac string, minutes int) bool {
	return c.authorizeGuest(ctx, mac, minutes).OK()
}

func (c *Client) authorizeGuest(ctx context.Context, mac string, minutes int) Result {
	mac = NormalizeMAC(mac)
	if mac == "" {
		c.logger.Warn("authorize guest called without a MAC address")
		return Result{Outcome: AuthFailure, Kind: KindAuthorizationRejected, Rule: "empty-mac"}
	}
	if c.initErr != nil {
		return transportResult(c.initErr)
	}

	path := c.cfg.sitePath(pathStaMgr)
	res := c.call(authorizeDecisions, func() (RawResponse, error) {
		return c.transport.Post(ctx, path, &stamgrRequest{Cmd: cmdAuthorize, MAC: mac, Minutes: minutes})
	})
	c.logResult("authorize guest", path, res, zap.String("mac", mac), zap.Int("minutes", minutes))
	return res
}

// TestConnection reports whether the controller answers at all. Any status below 500
// counts as reachable.
func (c *Client) TestConnection(ctx context.Context) bool {
	if c.initErr != nil {
		c.logger.Error("controller transport unavailable", zap.Error(c.initErr))
		return false
	}

	timeout := c.cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := c.transport.Get(ctx, pathRoot)
	if err != nil {
		c.logger.Warn("controller unreachable", zap.Error(err))
		return false
	}
	c.logger.Debug("connection test", zap.Int("status", raw.Status))
	return raw.Status < 500
}

// GetClients lists the stations of the configured site. Failures yield an empty list.
func (c *Client) GetClients(ctx context.Context) []ClientRecord {
	data, ok := c.query(ctx, c.cfg.sitePath(pathStatSta))
	if !ok {
		return []ClientRecord{}
	}
	var clients []ClientRecord
	if err := json.Unmarshal(data, &clients); err != nil {
		c.logger.Warn("unexpected client list payload", zap.Error(err))
		return []ClientRecord{}
	}
	if clients == nil {
		clients = []ClientRecord{}
	}
	c.logger.Debug("clients listed", zap.Int("count", len(clients)))
	return clients
}

// Health returns the site health report. Failures yield an empty snapshot.
func (c *Client) Health(ctx context.Context) HealthSnapshot {
	data, ok := c.query(ctx, c.cfg.sitePath(pathHealth))
	if !ok {
		return HealthSnapshot{}
	}
	snapshot, err := decodeHealth(data)
	if err != nil {
		c.logger.Warn("unexpected health payload", zap.Error(err))
		return HealthSnapshot{}
	}
	return snapshot
}

func (c *Client) query(ctx context.Context, path string) (json.RawMessage, bool) {
	if c.initErr != nil {
		return nil, false
	}
	var raw RawResponse
	res := c.call(queryDecisions, func() (RawResponse, error) {
		var err error
		raw, err = c.transport.Get(ctx, path)
		return raw, err
	})
	c.logResult("status query", path, res)
	if !res.OK() {
		return nil, false
	}
	return newReply(raw).env.Data, true
}

func (c *Client) call(table decisionTable, send func() (RawResponse, error)) Result {
	raw, err := send()
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Err: err}
		}
		return transportResult(err)
	}
	return table.decide(raw)
}

func (c *Client) logResult(msg, path string, res Result, fields ...zap.Field) {
	fields = append(fields,
		zap.String("path", path),
		zap.Int("status", res.Status),
		zap.String("outcome", res.Outcome.String()),
		zap.String("rule", res.Rule),
	)
	if res.OK() {
		c.logger.Debug(msg, fields...)
		return
	}
	fields = append(fields, zap.String("kind", string(res.Kind)), zap.String("detail", res.Detail))
	c.logger.Warn(msg, fields...)
}

// decodeHealth accepts both the array of subsystems newer controllers send and a single
// health object.
func decodeHealth(data json.RawMessage) (HealthSnapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return HealthSnapshot{}, nil
	}
	if trimmed[0] == '{' {
		var one SubsystemHealth
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return HealthSnapshot{}, err
		}
		return HealthSnapshot{Subsystems: []SubsystemHealth{one}}, nil
	}
	var many []SubsystemHealth
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return HealthSnapshot{}, err
	}
	return HealthSnapshot{Subsystems: many}, nil
}
