package recipecontent

import (
	"bytes"
	"io"
)

// MaxImageSize is the largest accepted image, in bytes
const MaxImageSize int64 = 10 * 1024 * 1024

// Allowed image MIME types
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]bool{
	MimeTypeJPEG: true,
	MimeTypePNG:  true,
	MimeTypeWebP: true,
}

// IsAllowedImageType reports whether mimeType is on the image allow-list.
// The comparison is exact; parameters such as "; charset=" are not stripped.
func IsAllowedImageType(mimeType string) bool {
	return allowedImageTypes[mimeType]
}

// File is an upload candidate: a blob with the MIME type and size its
// sender declared. Neither is verified against the content.
type File struct {
	Name string
	Type string
	Size int64
	Body io.Reader
}

// NewFile wraps data as a File declaring mimeType
func NewFile(name, mimeType string, data []byte) *File {
	return &File{
		Name: name,
		Type: mimeType,
		Size: int64(len(data)),
		Body: bytes.NewReader(data),
	}
}
