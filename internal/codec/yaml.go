package codec

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse decodes YAML into v. An empty document is an error.
func (c *YAMLCodec) Parse(r io.Reader, v any) error {
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse YAML: empty document")
		}
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Export writes v as YAML
func (c *YAMLCodec) Export(v any, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
