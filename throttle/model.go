package throttle

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

var (
	// ErrMustNotBeZero rejects non-positive rate or burst settings.
	ErrMustNotBeZero = errors.New("must be greater than zero")
	// ErrWaitingFailed wraps a limiter wait that ended before a token was granted.
	ErrWaitingFailed = errors.New("limiter waiting failed")
	// ErrContextEnded reports a request context that expired around the wait.
	ErrContextEnded = errors.New("throttle context ended")
)

// Config defines the throttler's
// Requests Per Second and Burst Rate.
type Config struct {
	RPS   int
	Burst int
}

// throttle is an http.RoundTripper, using the time/rate token
// bucket limiter to restrict outbound calls.
type throttle struct {
	limiter *rate.Limiter
	rps     int
	burst   int
	next    http.RoundTripper
	logFn   func() *slog.Logger
}
