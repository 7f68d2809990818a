package http

import (
	"mime"
	"path/filepath"
)

// GetMimeType guesses the content type for a file name, falling back to
// octet-stream.
func GetMimeType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
