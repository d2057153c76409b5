// Package fileinfo classifies attachment MIME types and formats sizes and
// timestamps the way the exchange UI displays them.
package fileinfo

import (
	"fmt"
	"strings"
	"time"
)

// Kind buckets a file for display purposes.
type Kind int

const (
	KindOther Kind = iota
	KindImage
	KindDocument
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindDocument:
		return "document"
	default:
		return "other"
	}
}

var documentTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       {},
	"text/plain": {},
}

// Classify buckets a MIME type: image/* is an image, the fixed office/PDF
// set is a document, everything else is other.
func Classify(fileType string) Kind {
	if strings.HasPrefix(fileType, "image/") {
		return KindImage
	}
	if _, ok := documentTypes[fileType]; ok {
		return KindDocument
	}
	return KindOther
}

// FormatSize renders a byte count: verbatim under 1024, otherwise KB or MB
// with one decimal place.
func FormatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}

// FormatRelative renders how long ago t was relative to now: "Just now"
// under a minute, then minute/hour/day buckets, and an absolute month/day
// once a week has passed.
func FormatRelative(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
