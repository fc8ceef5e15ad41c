package staticfile

import (
	"mime"
	"path/filepath"
	"strings"
)

const octetStream = "application/octet-stream"

// extraMimeTypes supplements mime.TypeByExtension for extensions the Go
// runtime's table (or the host's mime.types) may not know.
var extraMimeTypes = map[string]string{
	".aac":    "audio/aac",
	".apng":   "image/apng",
	".avif":   "image/avif",
	".avi":    "video/x-msvideo",
	".bmp":    "image/bmp",
	".bz2":    "application/x-bzip2",
	".eot":    "application/vnd.ms-fontobject",
	".epub":   "application/epub+zip",
	".gz":     "application/gzip",
	".ico":    "image/vnd.microsoft.icon",
	".ics":    "text/calendar; charset=utf-8",
	".jsonld": "application/ld+json; charset=utf-8",
	".md":     "text/markdown; charset=utf-8",
	".mid":    "audio/midi",
	".midi":   "audio/midi",
	".mjs":    "text/javascript; charset=utf-8",
	".mp3":    "audio/mpeg",
	".mp4":    "video/mp4",
	".oga":    "audio/ogg",
	".ogv":    "video/ogg",
	".opus":   "audio/opus",
	".otf":    "font/otf",
	".rar":    "application/vnd.rar",
	".tar":    "application/x-tar",
	".ttf":    "font/ttf",
	".txt":    "text/plain; charset=utf-8",
	".wasm":   "application/wasm",
	".weba":   "audio/webm",
	".webm":   "video/webm",
	".webp":   "image/webp",
	".woff":   "font/woff",
	".woff2":  "font/woff2",
	".xml":    "application/xml; charset=utf-8",
	".zip":    "application/zip",
	".7z":     "application/x-7z-compressed",
}

// MimeFor infers a content type from the file extension alone. Unknown or
// missing extensions resolve to application/octet-stream.
func MimeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return octetStream
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	if t, ok := extraMimeTypes[ext]; ok {
		return t
	}
	return octetStream
}
