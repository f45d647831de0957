package generatepdfs

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Status reports a document's position in the conversion lifecycle:
// pending, then processing, ending in completed or failed. The set is
// open; values the service adds later pass through untouched.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// PDF is an immutable handle to one conversion job on the service.
// Handles are created by the [Client] from server responses and hold a
// non-owning back-reference to it for delegated network calls.
// [PDF.Refresh] returns a new handle rather than mutating the receiver.
type PDF struct {
	id          int
	name        string
	status      Status
	downloadURL string
	createdAt   time.Time

	client *Client
}

// newPDF builds a handle from the raw resource, rejecting incomplete data.
func newPDF(c *Client, data *pdfData) (*PDF, error) {
	if data.ID == 0 || data.Name == "" || data.Status == "" || data.DownloadURL == "" || data.CreatedAt == "" {
		return nil, &InvalidArgumentError{
			Reason: "Invalid PDF data structure",
			Err:    ErrInvalidArgument,
		}
	}

	createdAt, err := time.Parse(time.RFC3339Nano, data.CreatedAt)
	if err != nil {
		return nil, &InvalidArgumentError{
			Reason: fmt.Sprintf("Invalid created_at format: %s", data.CreatedAt),
			Err:    fmt.Errorf("%w: %w", ErrInvalidArgument, err),
		}
	}

	return &PDF{
		id:          data.ID,
		name:        data.Name,
		status:      Status(data.Status),
		downloadURL: data.DownloadURL,
		createdAt:   createdAt,
		client:      c,
	}, nil
}

// ID returns the server-assigned document identifier.
func (p *PDF) ID() int { return p.id }

// Name returns the server-assigned filename.
func (p *PDF) Name() string { return p.name }

// Status returns the conversion status observed when the handle was built.
func (p *PDF) Status() Status { return p.status }

// DownloadURL returns the URL the finished document is served from.
// It is only authoritative alongside the owning client's token.
func (p *PDF) DownloadURL() string { return p.downloadURL }

// CreatedAt returns the document's server-side creation time.
func (p *PDF) CreatedAt() time.Time { return p.createdAt }

// IsReady reports whether the document finished converting and can be
// downloaded. Only the exact status "completed" counts; failed and
// unknown values return false. The check is case-sensitive.
func (p *PDF) IsReady() bool {
	return p.status == StatusCompleted
}

// Download fetches the finished document's bytes, fully buffered.
// If the document has not reached StatusCompleted it fails with a
// [RuntimeError] wrapping [ErrNotReady] before any request is made;
// call [PDF.Refresh] to observe the current status first.
func (p *PDF) Download(ctx context.Context) ([]byte, error) {
	if !p.IsReady() {
		return nil, &RuntimeError{
			Reason: fmt.Sprintf("PDF is not ready yet. Current status: %s", p.status),
			Err:    ErrNotReady,
		}
	}

	return p.client.DownloadPDF(ctx, p.downloadURL)
}

// DownloadToFile fetches the finished document and writes it to path.
// The write is a plain one-shot write, not atomic; a failure may leave
// a partial file behind. For large documents prefer
// [Client.DownloadPDFToFile], which streams to a temp file and renames.
func (p *PDF) DownloadToFile(ctx context.Context, path string) error {
	data, err := p.Download(ctx)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &RuntimeError{
			Reason: fmt.Sprintf("Failed to write PDF to file: %s", path),
			Err:    err,
		}
	}

	return nil
}

// Refresh re-fetches the resource and returns a new handle with the
// server's current view. The receiver is never modified.
func (p *PDF) Refresh(ctx context.Context) (*PDF, error) {
	return p.client.GetPDF(ctx, p.id)
}
