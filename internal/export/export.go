// Package export writes recorded sessions to CSV or JSON files.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"focusflow/internal/core/model"
)

var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts a format name. An empty name is inferred from the
// extension of path.
func ParseFormat(name, path string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch Format(name) {
	case FormatCSV, FormatJSON:
		return Format(name), nil
	}
	return "", fmt.Errorf("parse format %q: %w", name, ErrUnknownFormat)
}

// Write exports doc to path in format.
func Write(doc model.AppState, format Format, path string) error {
	switch format {
	case FormatCSV:
		return ToCSV(doc, path)
	case FormatJSON:
		return ToJSON(doc, path)
	}
	return fmt.Errorf("export %q: %w", format, ErrUnknownFormat)
}
