package generatepdfs

import "net/http"

// maxErrBodySize caps the amount of response body read when
// building an error for a non-2xx status code. This prevents
// unbounded memory usage when a large response arrives with a
// wrong status.
const maxErrBodySize = 4 << 10 // 4KB

// execFn represents a func to operate on a response.
type execFn func(response *http.Response) error

// htmlGenerateRequest is the JSON body for an HTML submission. The
// html key is always present, even for an empty document, since its
// presence is what selects the HTML conversion mode; css and images
// appear only when supplied.
type htmlGenerateRequest struct {
	HTML   string         `json:"html"`
	CSS    string         `json:"css,omitempty"`
	Images []imagePayload `json:"images,omitempty"`
}

// urlGenerateRequest is the JSON body for a URL submission.
type urlGenerateRequest struct {
	URL string `json:"url"`
}

// imagePayload is a single image attachment with base64-encoded content.
type imagePayload struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	MIMEType string `json:"mime_type"`
}

// envelope wraps every document response from the service.
// Data stays nil when the "data" key is absent or null.
type envelope struct {
	Data *pdfData `json:"data"`
}

// pdfData is the raw document resource as the service reports it.
type pdfData struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	DownloadURL string `json:"download_url"`
	CreatedAt   string `json:"created_at"`
}
