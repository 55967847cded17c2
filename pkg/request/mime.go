package request

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

const genericBinaryType = "application/octet-stream"

// guessContentType resolves a part content type from the file extension,
// falling back to content sniffing and finally to a generic binary type.
func guessContentType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	if mt, err := mimetype.DetectFile(path); err == nil && mt != nil {
		return mt.String()
	}
	return genericBinaryType
}
