package processing

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	SourceLocal = "local"
	SourceDrive = "gdrive"
)

// Metadata describes where an indexed bulletin came from.
type Metadata struct {
	Path       string
	Source     string
	ImportedAt time.Time
	Title      string
}

func NewMetadata(path, source string, now time.Time) Metadata {
	base := filepath.Base(path)
	return Metadata{
		Path:       path,
		Source:     source,
		ImportedAt: now,
		Title:      strings.TrimSuffix(base, filepath.Ext(base)),
	}
}
