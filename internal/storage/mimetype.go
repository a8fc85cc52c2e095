package storage

import (
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMimeType is used when neither the extension nor the content identify the type.
const DefaultMimeType = "application/octet-stream"

// fallbackTypes covers common extensions missing from Go's builtin table on
// hosts without a mime.types file.
var fallbackTypes = map[string]string{
	".txt":  "text/plain",
	".csv":  "text/csv",
	".md":   "text/markdown",
	".mp4":  "video/mp4",
	".mp3":  "audio/mpeg",
	".zip":  "application/zip",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
}

// DetectMimeType resolves the content type from the file extension first, then
// by sniffing data. Media type parameters such as charset are dropped.
func DetectMimeType(fileName string, data []byte) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return stripParams(t)
		}
		if t, ok := fallbackTypes[ext]; ok {
			return t
		}
	}
	if len(data) > 0 {
		if t := stripParams(mimetype.Detect(data).String()); t != "" {
			return t
		}
	}
	return DefaultMimeType
}

func stripParams(t string) string {
	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return ""
	}
	return mediaType
}
