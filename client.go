package generatepdfs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/generatepdfs/download"
	"github.com/adamwoolhether/generatepdfs/throttle"
)

// defaultBaseURL is the production conversion API endpoint.
const defaultBaseURL = "https://api.generatepdfs.com"

// Client talks to the generatepdfs.com conversion API. It wraps the
// std-lib *http.Client, which can be customized via optional funcs
// passed to [Connect]. Configuration is immutable after construction,
// so a Client is safe for concurrent use.
type Client struct {
	baseURL  string
	apiToken string

	c      *http.Client
	logger *slog.Logger
	tracer trace.Tracer
}

// Connect returns a Client authenticated with the given API token.
// No request is made and the token's format is not validated; a bad
// token surfaces as [ErrAuthFailure] on first use.
func Connect(apiToken string, optFns ...Option) (*Client, error) {
	client := &Client{
		baseURL:  defaultBaseURL,
		apiToken: apiToken,
		c:        &http.Client{},
		logger:   slog.Default(),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.baseURL != "" {
		client.baseURL = opts.baseURL
	}

	if opts.client != nil {
		client.c = opts.client
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	} else {
		client.tracer = noop.NewTracerProvider().Tracer("no-op tracer")
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	return client, nil
}

// GenerateFromHTML submits a local HTML file for conversion. The file's
// raw bytes (and any stylesheet or images added via options) are
// base64-encoded into the request payload. The returned handle usually
// starts out StatusPending; observe progress with [PDF.Refresh].
//
// Image entries that are incomplete or unreadable are dropped from the
// payload without failing the call.
func (c *Client) GenerateFromHTML(ctx context.Context, htmlPath string, optFns ...GenerateOption) (*PDF, error) {
	ctx, span := c.tracer.Start(ctx, "generatepdfs.GenerateFromHTML")
	defer span.End()

	var opts generateOpts
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying generate option: %w", err)
		}
	}

	html, err := os.ReadFile(htmlPath)
	if err != nil {
		return nil, &InvalidArgumentError{
			Reason: fmt.Sprintf("HTML file not found or not readable: %s", htmlPath),
			Err:    fmt.Errorf("%w: %w", ErrInvalidArgument, err),
		}
	}

	body := htmlGenerateRequest{HTML: base64.StdEncoding.EncodeToString(html)}

	if opts.cssPath != "" {
		css, err := os.ReadFile(opts.cssPath)
		if err != nil {
			return nil, &InvalidArgumentError{
				Reason: fmt.Sprintf("CSS file not found or not readable: %s", opts.cssPath),
				Err:    fmt.Errorf("%w: %w", ErrInvalidArgument, err),
			}
		}
		body.CSS = base64.StdEncoding.EncodeToString(css)
	}

	for _, img := range opts.images {
		p, err := img.payload()
		if err != nil {
			c.logger.Debug("dropping image from payload", "name", img.Name, "path", img.Path, "error", err)
			continue
		}
		body.Images = append(body.Images, p)
	}

	return c.generate(ctx, body)
}

// GenerateFromURL submits a public URL for conversion. The URL must be
// syntactically valid; no reachability check is performed.
func (c *Client) GenerateFromURL(ctx context.Context, rawURL string) (*PDF, error) {
	ctx, span := c.tracer.Start(ctx, "generatepdfs.GenerateFromURL")
	defer span.End()

	if !validURL(rawURL) {
		return nil, &InvalidArgumentError{
			Reason: fmt.Sprintf("Invalid URL: %s", rawURL),
			Err:    ErrInvalidArgument,
		}
	}

	span.SetAttributes(attribute.String("url", rawURL))

	return c.generate(ctx, urlGenerateRequest{URL: rawURL})
}

// GetPDF fetches the current state of the document with the given id.
func (c *Client) GetPDF(ctx context.Context, id int) (*PDF, error) {
	ctx, span := c.tracer.Start(ctx, "generatepdfs.GetPDF")
	defer span.End()

	if id <= 0 {
		return nil, &InvalidArgumentError{
			Reason: fmt.Sprintf("Invalid PDF ID: %d", id),
			Err:    ErrInvalidArgument,
		}
	}

	span.SetAttributes(attribute.Int("pdf.id", id))

	req, err := c.request(ctx, http.MethodGet, "/pdfs/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}

	return c.do(req)
}

// DownloadPDF fetches raw document bytes from downloadURL, fully
// buffered in memory. The URL is treated as opaque and absolute,
// usually taken from [PDF.DownloadURL]; the client's bearer token
// accompanies the request since download URLs are token-guarded.
func (c *Client) DownloadPDF(ctx context.Context, downloadURL string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "generatepdfs.DownloadPDF")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}
	c.decorate(req)

	var data []byte
	readBody := func(resp *http.Response) error {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading body: %w", err)
		}
		data = b

		return nil
	}

	if err := c.exec(req, readBody); err != nil {
		return nil, err
	}

	return data, nil
}

// DownloadPDFToFile streams the document at downloadURL to destPath
// without buffering it in memory. Data goes to a temp file in the same
// directory, which is renamed to destPath on success and removed on
// failure. See the download package for checksum verification,
// progress logging, and skip-existing options.
func (c *Client) DownloadPDFToFile(ctx context.Context, downloadURL, destPath string, opts ...download.Option) error {
	ctx, span := c.tracer.Start(ctx, "generatepdfs.DownloadPDFToFile")
	defer span.End()

	if destPath == "" {
		return errors.New("destPath must not be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return fmt.Errorf("instantiating request: %w", err)
	}
	c.decorate(req)

	dlFunc := func(resp *http.Response) error {
		if err := download.Handle(ctx, resp.Body, resp.ContentLength, destPath, c.logger, opts...); err != nil {
			return fmt.Errorf("download: %w", err)
		}

		return nil
	}

	return c.exec(req, dlFunc)
}

// generate submits a conversion payload and parses the returned resource.
func (c *Client) generate(ctx context.Context, body any) (*PDF, error) {
	req, err := c.request(ctx, http.MethodPost, "/pdfs/generate", body)
	if err != nil {
		return nil, err
	}

	return c.do(req)
}

// request builds an authenticated API request against the base URL.
// The JSON body is encoded eagerly so errors surface before any I/O.
func (c *Client) request(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return nil, fmt.Errorf("encoding request payload: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &payload)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	c.decorate(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// decorate applies the headers every outbound request carries: the
// bearer token, a unique request ID, and any active trace context.
func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("X-Request-Id", uuid.New().String())
	otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
}

// do fires a request whose response carries a document envelope.
func (c *Client) do(req *http.Request) (*PDF, error) {
	var env envelope
	decodeBody := func(resp *http.Response) error {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return fmt.Errorf("decoding body: %w", err)
		}

		return nil
	}

	if err := c.exec(req, decodeBody); err != nil {
		return nil, err
	}

	if env.Data == nil {
		return nil, &InvalidArgumentError{
			Reason: "Invalid API response: missing data",
			Err:    ErrInvalidArgument,
		}
	}

	return newPDF(c, env.Data)
}

// exec runs the request and the injected function on success. Success
// is any 2xx status; anything else returns an *UnexpectedStatusError
// holding up to maxErrBodySize of the response body.
func (c *Client) exec(req *http.Request, fn execFn) error {
	resp, err := c.c.Do(req)
	if err != nil {
		return fmt.Errorf("exec http do: %w", err)
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err = io.Copy(io.Discard, resp.Body); err != nil {
				c.logger.Error("failed to discard unused body", "error", err)
			}
		}
		if err = resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}

		cause := ErrUnexpectedStatusCode
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			cause = fmt.Errorf("%w: %w", ErrUnexpectedStatusCode, ErrAuthFailure)
		}

		return &UnexpectedStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(b),
			Err:        cause,
		}
	}

	if err := fn(resp); err != nil {
		discardBody = false
		return fmt.Errorf("exec fn: %w", err)
	}

	return nil
}
