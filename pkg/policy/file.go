package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a policy document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the encoding from a file extension (default YAML).
func FormatFromPath(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes a policy document and prepares it. Unknown keys are an
// error so a misspelt cutoff cannot silently disable its check.
func Parse(data []byte, format Format) (*Policy, error) {
	var p Policy
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to parse policy JSON: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse policy YAML: %w", err)
		}
	}
	return Prepare(p)
}

// Load reads a YAML or JSON policy file.
// Unlike optional tool configuration, a missing policy file is an error.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	p, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// FileSource implements ports.PolicySource for a policy file on disk.
type FileSource struct {
	Path string
}

// NewFileSource creates a source reading path on every Load.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads and prepares the policy file.
func (s *FileSource) Load(ctx context.Context) (*Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(s.Path)
}

// Marshal encodes p in the given format.
func Marshal(p *Policy, format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(p, "", "  ")
	}
	return yaml.Marshal(p)
}
