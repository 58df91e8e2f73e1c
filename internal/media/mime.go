package media

import (
	"mime"
	"strings"
)

// Extension maps a MIME type to the file extension used for storage keys.
// Parameters such as "; codecs=opus" are ignored; unknown types get "".
func Extension(mimeType string) string {
	base := baseType(mimeType)
	switch {
	case base == "audio/ogg":
		return ".ogg"
	case base == "audio/mpeg":
		return ".mp3"
	case base == "audio/webm":
		return ".webm"
	case strings.HasPrefix(base, "image/"):
		return ".jpg"
	case base == "application/pdf":
		return ".pdf"
	case base == "application/msword":
		return ".doc"
	case base == "application/vnd.ms-excel":
		return ".xls"
	case base == "video/mp4":
		return ".mp4"
	default:
		return ""
	}
}

func IsAudio(mimeType string) bool { return strings.HasPrefix(baseType(mimeType), "audio/") }

func IsImage(mimeType string) bool { return strings.HasPrefix(baseType(mimeType), "image/") }

// guessMime fills in a MIME type from the message type when the provider sent none.
func guessMime(messageType string) string {
	switch messageType {
	case "audio":
		return "audio/ogg"
	case "image":
		return "image/jpeg"
	case "sticker":
		return "image/webp"
	case "video":
		return "video/mp4"
	case "document":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func baseType(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
