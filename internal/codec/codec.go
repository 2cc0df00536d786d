// Package codec encodes networks, scenarios and reports to files.
package codec

import (
	"fmt"
	"io"
	"strings"
)

// Importer decodes a document into v
type Importer interface {
	Parse(r io.Reader, v any) error
	Format() string
}

// Exporter encodes v as a document
type Exporter interface {
	Export(v any, w io.Writer) error
	Format() string
}

// Codec is both an Importer and an Exporter
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec for a format name
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// ForPath picks a codec from a file extension
func ForPath(path string) (Codec, error) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return nil, fmt.Errorf("cannot infer format of %s", path)
	}
	return ForFormat(path[i+1:])
}
