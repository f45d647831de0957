package generatepdfs

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
)

// defaultMIMEType is used for files whose extension is not in mimeTypes.
const defaultMIMEType = "application/octet-stream"

// mimeTypes maps lowercased file extensions to the content types the
// conversion service renders inline.
var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// Image declares a local image file to embed in an HTML conversion.
// Name is the identifier the HTML document references it by, and Path
// points at the file on disk. MIMEType is optional; when empty it is
// derived from the file extension.
//
// Entries that fail [Image.Validate] or whose file cannot be read are
// dropped from the request rather than failing the conversion.
type Image struct {
	Name     string `json:"name" validate:"required"`
	Path     string `json:"path" validate:"required"`
	MIMEType string `json:"mime_type,omitempty"`
}

// Validate reports whether the image declaration is complete enough to
// attach to a request. It returns [FieldErrors] naming each missing
// field, letting callers pre-check entries the client would otherwise
// drop silently.
func (img Image) Validate() error {
	return checkStruct(img)
}

// payload reads and encodes the image into its wire form.
func (img Image) payload() (imagePayload, error) {
	if err := img.Validate(); err != nil {
		return imagePayload{}, err
	}

	data, err := os.ReadFile(img.Path)
	if err != nil {
		return imagePayload{}, err
	}

	return imagePayload{
		Name:     img.Name,
		Content:  base64.StdEncoding.EncodeToString(data),
		MIMEType: img.resolveMIMEType(),
	}, nil
}

// resolveMIMEType prefers the caller-supplied override, then the file
// extension. Unknown extensions fall back to a generic binary type.
func (img Image) resolveMIMEType() string {
	if img.MIMEType != "" {
		return img.MIMEType
	}

	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(img.Path))]; ok {
		return mt
	}

	return defaultMIMEType
}
