package documents

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxExtLen = 10

// NewStorageKey names stored content as <unix-millis>-<uuid><ext>.
func NewStorageKey(now time.Time, originalName string) string {
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.NewString(), sanitizeExt(originalName))
}

// IsStorageKey reports whether key has the shape NewStorageKey produces.
func IsStorageKey(key string) bool {
	millis, rest, ok := strings.Cut(key, "-")
	if !ok || millis == "" || strings.Trim(millis, "0123456789") != "" || len(rest) < 36 {
		return false
	}
	if _, err := uuid.Parse(rest[:36]); err != nil {
		return false
	}
	ext := rest[36:]
	return ext == "" || sanitizeExt(ext) == ext
}

func sanitizeExt(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := strings.ToLower(path.Ext(base))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, c := range ext[1:] {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return ""
		}
	}
	return ext
}

// IsPDF reports whether a declared media type is PDF.
func IsPDF(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/pdf"
}

// displayName strips directories and characters unsafe in a quoted header value.
func displayName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, c := range base {
		switch {
		case c == '"' || c == '\\' || c < 0x20 || c == 0x7f:
			continue
		case c > 0x7e:
			b.WriteRune('_')
		default:
			b.WriteRune(c)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" || out == "." || out == "/" {
		return "download"
	}
	return out
}

// ContentDisposition builds an attachment header for name.
func ContentDisposition(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, displayName(name))
}

func contentTypeFor(name, declared string) string {
	if declared != "" {
		return declared
	}
	if typ := mime.TypeByExtension(path.Ext(name)); typ != "" {
		return typ
	}
	return "application/octet-stream"
}
