package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"time"

	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SessionTokenBytes is the entropy of a session token (256 bits).
const SessionTokenBytes = 32

const (
	attemptsKeyPrefix = "attempts:"
	sessionKeyPrefix  = "session:"
)

// attemptRecord counts consecutive failures from one address.
type attemptRecord struct {
	Count       int       `json:"count"`
	LastAttempt time.Time `json:"lastAttempt"`
}

// Session is the state stored for an issued token.
type Session struct {
	CreatedAt time.Time `json:"createdAt"`
	Address   string    `json:"address"`
}

// Gate guards the admin area.
type Gate struct {
	state  State
	cfg    config.AdminConfig
	now    func() time.Time
	random io.Reader
	logger *zap.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithRandom overrides the token entropy source.
func WithRandom(r io.Reader) Option {
	return func(g *Gate) { g.random = r }
}

// NewGate creates a Gate over the given state.
func NewGate(state State, cfg config.AdminConfig, logger *zap.Logger, opts ...Option) *Gate {
	g := &Gate{
		state:  state,
		cfg:    cfg,
		now:    time.Now,
		random: rand.Reader,
		logger: logger.Named("auth_gate"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Login runs the full sign-in flow for one request. The lockout is checked
// before the credential, so a correct password from a locked address is
// still refused. On ErrWrongPassword the caller must wait FailureDelay
// before responding.
func (g *Gate) Login(ctx context.Context, address, password string) (string, error) {
	if err := g.CheckRateLimit(ctx, address); err != nil {
		return "", err
	}

	if !g.cfg.Configured() {
		g.logger.Error("admin login attempted without a configured credential")
		return "", domain.ErrAdminNotConfigured
	}

	if password == "" {
		if err := g.RecordAttempt(ctx, address, false); err != nil {
			return "", err
		}
		return "", domain.ErrEmptyPassword
	}

	if !g.VerifyCredential(password) {
		if err := g.RecordAttempt(ctx, address, false); err != nil {
			return "", err
		}
		g.logger.Warn("admin login failed", zap.String("client_ip", address))
		return "", domain.ErrWrongPassword
	}

	if err := g.RecordAttempt(ctx, address, true); err != nil {
		return "", err
	}

	token, err := g.IssueSession(ctx, address)
	if err != nil {
		return "", err
	}

	g.logger.Info("admin session issued", zap.String("client_ip", address))
	return token, nil
}

// Logout removes a session. Unknown tokens are ignored.
func (g *Gate) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return g.state.Delete(ctx, sessionKeyPrefix+token)
}

// CheckRateLimit returns ErrRateLimited while the address is locked. A
// window that has fully elapsed since the last failure resets the counter.
func (g *Gate) CheckRateLimit(ctx context.Context, address string) error {
	rec, ok, err := g.attempts(ctx, address)
	if err != nil || !ok {
		return err
	}

	if g.now().Sub(rec.LastAttempt) > g.cfg.LockoutWindow {
		return g.state.Delete(ctx, attemptsKeyPrefix+address)
	}

	if rec.Count >= g.cfg.MaxAttempts {
		return domain.ErrRateLimited
	}
	return nil
}

// RecordAttempt clears the counter on success and increments it on failure.
func (g *Gate) RecordAttempt(ctx context.Context, address string, success bool) error {
	key := attemptsKeyPrefix + address
	if success {
		return g.state.Delete(ctx, key)
	}

	rec, ok, err := g.attempts(ctx, address)
	if err != nil {
		return err
	}

	now := g.now()
	if !ok || now.Sub(rec.LastAttempt) > g.cfg.LockoutWindow {
		rec = attemptRecord{}
	}
	rec.Count++
	rec.LastAttempt = now

	return g.put(ctx, key, rec, g.cfg.LockoutWindow)
}

// VerifyCredential compares the submitted password with the configured one.
// A bcrypt hash takes precedence over the plain password.
func (g *Gate) VerifyCredential(submitted string) bool {
	if g.cfg.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(g.cfg.PasswordHash), []byte(submitted)) == nil
	}
	if g.cfg.Password == "" {
		return false
	}
	return ConstantTimeEqual(submitted, g.cfg.Password)
}

// ConstantTimeEqual compares two strings in time that depends only on the
// longer length. Both are zero-padded to a common length before comparison.
func ConstantTimeEqual(a, b string) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	pa := make([]byte, n)
	pb := make([]byte, n)
	copy(pa, a)
	copy(pb, b)

	sameLen := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	return subtle.ConstantTimeCompare(pa, pb)&sameLen == 1
}

// IssueSession creates a session for address and returns its token.
func (g *Gate) IssueSession(ctx context.Context, address string) (string, error) {
	buf := make([]byte, SessionTokenBytes)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	s := Session{CreatedAt: g.now(), Address: address}
	if err := g.put(ctx, sessionKeyPrefix+token, s, g.cfg.SessionTTL); err != nil {
		return "", err
	}
	return token, nil
}

// ValidateSession accepts a token strictly younger than the session TTL.
// Expired sessions are deleted on check. The address only matters when
// BindSessionToAddress is set.
func (g *Gate) ValidateSession(ctx context.Context, token, address string) error {
	if token == "" {
		return domain.ErrSessionInvalid
	}

	key := sessionKeyPrefix + token
	raw, ok, err := g.state.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSessionInvalid
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		_ = g.state.Delete(ctx, key)
		return domain.ErrSessionInvalid
	}

	if g.now().Sub(s.CreatedAt) >= g.cfg.SessionTTL {
		if err := g.state.Delete(ctx, key); err != nil {
			g.logger.Warn("failed to delete expired session", zap.Error(err))
		}
		return domain.ErrSessionInvalid
	}

	if g.cfg.BindSessionToAddress && s.Address != address {
		g.logger.Warn("session presented from a different address",
			zap.String("client_ip", address),
			zap.String("issued_to", s.Address),
		)
		return domain.ErrSessionInvalid
	}

	return nil
}

// FailureDelay returns the randomized wait imposed after a wrong password.
func (g *Gate) FailureDelay() time.Duration {
	d := g.cfg.FailureDelayMin
	if g.cfg.FailureDelayJitter > 0 {
		d += mrand.N(g.cfg.FailureDelayJitter)
	}
	return d
}

func (g *Gate) attempts(ctx context.Context, address string) (attemptRecord, bool, error) {
	var rec attemptRecord
	raw, ok, err := g.state.Get(ctx, attemptsKeyPrefix+address)
	if err != nil || !ok {
		return rec, false, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, false, nil
	}
	return rec, true, nil
}

func (g *Gate) put(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return g.state.Set(ctx, key, raw, ttl)
}
