/*
Package logx provides a structured logging wrapper based on zerolog.

This file contains the HTTP logging hooks: a chi middleware for requests the attached UI
sends to the local bridge, and an http.RoundTripper for calls the core makes to the backend.
*/
package logx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestLogger returns an HTTP middleware that logs each bridge request.
// It creates a logger per request and injects it into the request context.
func RequestLogger() func(next http.Handler) http.Handler {
	baseLogger := Logger()

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			requestID := middleware.GetReqID(r.Context())

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger := baseLogger.With().
				Str("component", "bridge").
				Str("request_id", requestID).
				Str("request_method", r.Method).
				Str("request_uri", r.RequestURI).
				Logger()

			r = r.WithContext(logger.WithContext(r.Context()))

			t1 := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()

			logEvent := logger.Debug()
			if status >= 500 {
				logEvent = logger.Error()
			} else if status >= 400 {
				logEvent = logger.Warn()
			}

			logEvent.
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(t1)).
				Msg("Request completed")
		}

		return http.HandlerFunc(fn)
	}
}

// Transport wraps an http.RoundTripper and logs every outbound backend call.
// The Authorization header is never logged.
type Transport struct {
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	logger := Logger().With().
		Str("component", "backend").
		Str("request_id", r.Header.Get("X-Request-ID")).
		Str("request_method", r.Method).
		Str("request_path", r.URL.Path).
		Bool("authenticated", r.Header.Get("Authorization") != "").
		Logger()

	t1 := time.Now()
	res, err := base.RoundTrip(r)
	if err != nil {
		logger.Warn().Err(err).Dur("latency", time.Since(t1)).Msg("Backend call failed")
		return nil, err
	}

	logEvent := logger.Debug()
	if res.StatusCode >= 500 {
		logEvent = logger.Error()
	} else if res.StatusCode >= 400 {
		logEvent = logger.Warn()
	}

	logEvent.
		Int("status", res.StatusCode).
		Dur("latency", time.Since(t1)).
		Msg("Backend call completed")

	return res, nil
}
