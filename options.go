package generatepdfs

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/generatepdfs/throttle"
)

// Option is a functional option for configuring a [Client] via [Connect].
type Option func(*options) error
type options struct {
	baseURL           string
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
	tracer            trace.Tracer
}

// WithBaseURL points the client at a different API endpoint, trimming
// any trailing slash. The default is the production service; overriding
// it is mainly useful for test servers and staging environments.
func WithBaseURL(baseURL string) Option {
	return func(c *options) error {
		if baseURL == "" {
			return errors.New("base URL must not be empty")
		}
		c.baseURL = strings.TrimSuffix(baseURL, "/")
		return nil
	}
}

// WithClient replaces the default [http.Client] used by the [Client].
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given
// requests per second and burst capacity, keeping the client inside the
// service's rate limits.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used to span each API operation. Without
// it, spans are no-ops and no trace context is propagated.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// GenerateOption is a functional option for [Client.GenerateFromHTML].
type GenerateOption func(*generateOpts) error

type generateOpts struct {
	cssPath string
	images  []Image
}

// WithCSS attaches a local stylesheet to the conversion. The file is
// base64-encoded into the payload alongside the HTML. An empty path is
// rejected as an [InvalidArgumentError].
func WithCSS(path string) GenerateOption {
	return func(opts *generateOpts) error {
		if path == "" {
			return &InvalidArgumentError{
				Reason: "CSS path must not be empty",
				Err:    ErrInvalidArgument,
			}
		}
		opts.cssPath = path
		return nil
	}
}

// WithImages attaches local images referenced by the HTML document.
// Calls accumulate. Entries missing a name or path, or whose file
// cannot be read, are dropped from the payload rather than failing
// the conversion.
func WithImages(images ...Image) GenerateOption {
	return func(opts *generateOpts) error {
		opts.images = append(opts.images, images...)
		return nil
	}
}
