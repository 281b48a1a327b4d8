package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	whitespaceRun = regexp.MustCompile(`[\s\p{Zs}]+`)
	unsafeChars   = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// SanitizeName turns a display name into a path-safe object name segment.
// Whitespace runs, leading and trailing ones included, collapse to a single
// underscore and anything outside [A-Za-z0-9._-] is dropped.
func SanitizeName(name string) string {
	clean := whitespaceRun.ReplaceAllString(name, "_")
	return unsafeChars.ReplaceAllString(clean, "")
}

// ObjectPath builds {ownerId}/{epochMillis}_{sanitizedName}. A name with no
// safe characters left becomes "file".
func ObjectPath(ownerID uint64, at time.Time, name string) string {
	clean := SanitizeName(name)
	if clean == "" {
		clean = "file"
	}
	return fmt.Sprintf("%d/%d_%s", ownerID, at.UnixMilli(), clean)
}

// ContentType returns a MIME type by file extension.
func ContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".ppt":
		return "application/vnd.ms-powerpoint"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".zip":
		return "application/zip"
	case ".mp3":
		return "audio/mpeg"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
