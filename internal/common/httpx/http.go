// Package httpx provides HTTP request and response handling utilities for the
// gridline API surface. It standardizes JSON responses and converts
// application errors into client-safe error bodies.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gridline/gridline/internal/common/apperrors"
)

// GetRequestData parses a JSON request body into data. Only POST and PUT
// requests carry bodies in this API.
func GetRequestData(r *http.Request, data any) error {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return ErrReqMethodNotSupported()
	}
	if r.Body == nil {
		log.Ctx(r.Context()).Error().Msg("empty request body")
		return ErrUnableToParseReqData()
	}
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		return ErrUnableToParseReqData()
	}
	return nil
}

// Response is the result of a request handler: a status code and a value to
// serialize as JSON.
type Response struct {
	StatusCode int
	Response   any
}

// RequestHandler is the handler signature used by gridline routes.
type RequestHandler func(r *http.Request) (*Response, error)

// WrapHttpRsp adapts a RequestHandler into an http.HandlerFunc with uniform
// error handling. Raw upstream error bodies never reach the client; only the
// apperrors description is serialized.
func WrapHttpRsp(handler RequestHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			if httperror, ok := err.(*Error); ok {
				if httperror.Detail != "" {
					log.Ctx(r.Context()).Error().Str("detail", httperror.Detail).Msg("request failed")
				}
				httperror.Send(w)
			} else if appErr, ok := err.(apperrors.Error); ok {
				statusCode := appErr.StatusCode()
				if statusCode == 0 {
					statusCode = http.StatusInternalServerError
				}
				// The full cause chain can carry upstream response bodies;
				// it goes to the log only, never to the client.
				log.Ctx(r.Context()).Error().Str("detail", appErr.ErrorAll()).Msg("request failed")
				(&Error{
					StatusCode:  statusCode,
					Description: appErr.Error(),
				}).Send(w)
			} else {
				ErrApplicationError().Send(w)
			}
			return
		}
		if rsp == nil {
			ErrApplicationError().Send(w)
			return
		}
		SendJsonRsp(r.Context(), w, rsp.StatusCode, rsp.Response)
	}
}
