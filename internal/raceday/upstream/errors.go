package upstream

import (
	"net/http"

	"github.com/gridline/gridline/internal/common/apperrors"
)

var (
	// ErrUpstream is the base error for transport and protocol failures
	// against the remote racing service.
	ErrUpstream apperrors.Error = apperrors.New("upstream error").SetStatusCode(http.StatusBadGateway)

	// ErrUpstreamStatus indicates a non-2xx upstream response. The status
	// and response body are attached as causes for operator diagnostics.
	ErrUpstreamStatus apperrors.Error = ErrUpstream.New("unexpected upstream status")

	// ErrMalformedEnvelope indicates an indirection envelope without a
	// usable pointer URL, or a schedule payload without a session list.
	ErrMalformedEnvelope apperrors.Error = ErrUpstream.New("malformed indirection envelope")

	// ErrUpstreamDecode indicates an upstream payload that did not decode
	// into the expected shape.
	ErrUpstreamDecode apperrors.Error = ErrUpstream.New("unable to decode upstream payload")

	// ErrAuth is the base error for authentication failures.
	ErrAuth apperrors.Error = apperrors.New("upstream authentication failed").SetStatusCode(http.StatusUnauthorized)

	// ErrNoSessionCookies indicates a login response without session cookies.
	ErrNoSessionCookies apperrors.Error = ErrAuth.New("no session cookies returned")

	// ErrLoginExhausted indicates the bounded login retry policy gave up.
	ErrLoginExhausted apperrors.Error = ErrAuth.New("login attempts exhausted")
)
