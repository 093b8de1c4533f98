package upstream

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCred = Credential{Email: "driver@example.com", Secret: "hunter2"}

func TestPasswordDigestNormalizesEmailCase(t *testing.T) {
	upper := passwordDigest(Credential{Email: "DRIVER@Example.COM", Secret: "hunter2"})
	lower := passwordDigest(Credential{Email: "driver@example.com", Secret: "hunter2"})
	assert.Equal(t, upper, lower)
	assert.NotEmpty(t, upper)

	other := passwordDigest(Credential{Email: "driver@example.com", Secret: "other"})
	assert.NotEqual(t, lower, other)
}

func TestLoginEstablishesSession(t *testing.T) {
	f := newFakeUpstream(t)
	client, session := newTestClient(t, f)
	auth := NewAuthManager(client, session, 1, time.Millisecond)

	require.True(t, session.IsEmpty())
	require.True(t, auth.Login(context.Background(), testCred))
	assert.False(t, session.IsEmpty())
	assert.True(t, auth.IsAuthenticated())
}

func TestLoginRejectedReportsFalse(t *testing.T) {
	f := newFakeUpstream(t)
	client, session := newTestClient(t, f)
	auth := NewAuthManager(client, session, 1, time.Millisecond)

	f.setLoginFailures(1)
	assert.False(t, auth.Login(context.Background(), testCred))
	assert.True(t, session.IsEmpty())
	assert.False(t, auth.IsAuthenticated())
}

func TestLoginWithoutSessionCookiesFails(t *testing.T) {
	f := newFakeUpstream(t)
	client, session := newTestClient(t, f)
	auth := NewAuthManager(client, session, 1, time.Millisecond)

	// Accepted credentials but no Set-Cookie header leaves no usable session.
	f.setLoginNoCookies(true)
	assert.False(t, auth.Login(context.Background(), testCred))
	assert.True(t, session.IsEmpty())
	assert.False(t, auth.IsAuthenticated())
}

func TestVerifyProbesSession(t *testing.T) {
	f := newFakeUpstream(t)
	client, session := newTestClient(t, f)
	auth := NewAuthManager(client, session, 1, time.Millisecond)

	// No session yet.
	assert.False(t, auth.Verify(context.Background()))

	require.True(t, auth.Login(context.Background(), testCred))
	assert.True(t, auth.Verify(context.Background()))

	// A stale cookie set fails the probe without raising an error.
	session.Set([]*http.Cookie{{Name: "authtoken", Value: "expired"}})
	assert.False(t, auth.Verify(context.Background()))
	assert.False(t, auth.IsAuthenticated())
}

func TestEnsureAuthenticatedRetriesUntilSuccess(t *testing.T) {
	f := newFakeUpstream(t)
	client, session := newTestClient(t, f)
	auth := NewAuthManager(client, session, 5, 10*time.Millisecond)

	f.setLoginFailures(2)
	start := time.Now()
	err := auth.EnsureAuthenticated(context.Background(), testCred)
	elapsed := time.Since(start)

	require.Nil(t, err)
	assert.Equal(t, 3, f.attempts())
	assert.True(t, auth.IsAuthenticated())
	// Two delays between the three attempts.
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestEnsureAuthenticatedExhaustsAttempts(t *testing.T) {
	f := newFakeUpstream(t)
	client, session := newTestClient(t, f)
	auth := NewAuthManager(client, session, 2, time.Millisecond)

	f.setLoginFailures(10)
	err := auth.EnsureAuthenticated(context.Background(), testCred)

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrLoginExhausted))
	assert.True(t, errors.Is(err, ErrAuth))
	assert.Equal(t, 2, f.attempts())
	assert.False(t, auth.IsAuthenticated())
}

func TestEnsureAuthenticatedSkipsLoginWhenVerified(t *testing.T) {
	f := newFakeUpstream(t)
	client, session := newTestClient(t, f)
	auth := NewAuthManager(client, session, 5, time.Millisecond)

	require.True(t, auth.Login(context.Background(), testCred))
	attemptsAfterLogin := f.attempts()

	require.Nil(t, auth.EnsureAuthenticated(context.Background(), testCred))
	assert.Equal(t, attemptsAfterLogin, f.attempts())
}
