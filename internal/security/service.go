package security

import (
	"context"
	"log/slog"
	"time"
)

// Service owns the mutable edge-security state for the process: the rate
// limit windows, the session table, the CSRF token registry and the event
// log. It is constructed once at startup and passed by reference to the
// middleware and handlers.
type Service struct {
	Log      *EventLog
	Limiter  *RateLimiter
	Tokens   *TokenManager
	Sessions *SessionStore
}

// Config carries the tunables for the security core.
type Config struct {
	SigningKey       string
	AuthTokenTTL     time.Duration
	RateLimitWindow  time.Duration
	RateLimitMax     int
	EventLogCapacity int
}

// NewService wires the core components from one config.
func NewService(cfg Config) *Service {
	return &Service{
		Log:      NewEventLog(cfg.EventLogCapacity),
		Limiter:  NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax),
		Tokens:   NewTokenManager(cfg.SigningKey, cfg.AuthTokenTTL),
		Sessions: NewSessionStore(cfg.AuthTokenTTL),
	}
}

// RunSweeper periodically evicts expired rate windows, CSRF tokens and
// sessions until ctx is cancelled. Entries are also dropped lazily on
// access; the sweeper bounds memory for identifiers that never return.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			windows := s.Limiter.Sweep(now)
			tokens := s.Tokens.SweepCSRF(now)
			sessions := s.Sessions.Sweep(now)
			if logger != nil && windows+tokens+sessions > 0 {
				logger.Debug("security sweep",
					slog.Int("rate_windows", windows),
					slog.Int("csrf_tokens", tokens),
					slog.Int("sessions", sessions),
				)
			}
		}
	}
}
