package upstream

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/gridline/gridline/internal/common/apperrors"
)

// Credential is the upstream login pair. Supplied from the environment and
// never persisted.
type Credential struct {
	Email  string
	Secret string
}

// AuthManager owns login, session verification, and re-authentication. It is
// a two-state machine: Unauthenticated and Authenticated, with transitions
// driven by Login and Verify outcomes.
type AuthManager struct {
	client        *Client
	session       *SessionStore
	attempts      uint
	retryDelay    time.Duration
	authenticated atomic.Bool
}

// NewAuthManager creates an auth manager over the given client and session
// store. attempts bounds login retries; retryDelay is the fixed delay between
// attempts.
func NewAuthManager(client *Client, session *SessionStore, attempts uint, retryDelay time.Duration) *AuthManager {
	if attempts == 0 {
		attempts = 1
	}
	return &AuthManager{
		client:     client,
		session:    session,
		attempts:   attempts,
		retryDelay: retryDelay,
	}
}

// passwordDigest computes the upstream wire digest:
// base64(sha256(secret + lowercase(email))).
func passwordDigest(cred Credential) string {
	sum := sha256.Sum256([]byte(cred.Secret + strings.ToLower(cred.Email)))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Login authenticates against the upstream auth endpoint. On success the
// response cookies replace the session and the state becomes Authenticated.
// Failure is reported as false rather than an error so callers can apply
// their own retry policy.
func (a *AuthManager) Login(ctx context.Context, cred Credential) bool {
	status, _, cookies, err := a.client.do(ctx, RequestOptions{
		Method: http.MethodPost,
		Path:   "/auth",
		Body: map[string]string{
			"email":    cred.Email,
			"password": passwordDigest(cred),
		},
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("upstream login request failed")
		a.authenticated.Store(false)
		return false
	}
	if status < 200 || status >= 300 {
		log.Ctx(ctx).Warn().Int("status", status).Msg("upstream login rejected")
		a.authenticated.Store(false)
		return false
	}
	if len(cookies) == 0 {
		log.Ctx(ctx).Warn().Err(ErrNoSessionCookies).Msg("upstream login rejected")
		a.authenticated.Store(false)
		return false
	}

	a.session.Set(cookies)
	a.authenticated.Store(true)
	log.Ctx(ctx).Info().Msg("upstream session established")
	return true
}

// Verify issues a lightweight authenticated probe. Returns true only on
// HTTP 200; any other status or transport failure returns false without
// raising an error.
func (a *AuthManager) Verify(ctx context.Context) bool {
	if a.session.IsEmpty() {
		a.authenticated.Store(false)
		return false
	}
	status, _, _, err := a.client.do(ctx, RequestOptions{
		Method: http.MethodGet,
		Path:   "/data/doc",
	})
	ok := err == nil && status == http.StatusOK
	a.authenticated.Store(ok)
	return ok
}

// EnsureAuthenticated verifies the session and, if stale or absent, logs in
// with a bounded retry policy (fixed delay between attempts). Exhausting the
// retries is reported as an error, not a crash; the process keeps serving in
// a degraded state.
func (a *AuthManager) EnsureAuthenticated(ctx context.Context, cred Credential) apperrors.Error {
	if a.Verify(ctx) {
		return nil
	}

	err := retry.Do(
		func() error {
			if !a.Login(ctx, cred) {
				return errors.New("login rejected")
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(a.attempts),
		retry.Delay(a.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return ErrLoginExhausted.Err(err)
	}
	return nil
}

// IsAuthenticated reports the last observed authentication state without
// issuing a probe.
func (a *AuthManager) IsAuthenticated() bool {
	return a.authenticated.Load()
}
