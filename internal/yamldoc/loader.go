// Package yamldoc decodes YAML configuration documents.
package yamldoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/document"
)

// Parse decodes YAML data into the YAML file shape. Unknown keys fail.
func Parse(data []byte) (*File, error) {
	var f File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(&f)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: document is empty", config.ErrMalformedDocument)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse configuration YAML: %v", config.ErrMalformedDocument, err)
	}

	return &f, nil
}

// ParseConfig reads a configuration document.
func ParseConfig(r io.Reader, name string) (*document.Static, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration %s: %w", name, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, err
	}

	return &document.Static{Resource: name, Config: f.Config()}, nil
}

// Marshal serializes a configuration document to YAML.
func Marshal(cfg *document.Config) ([]byte, error) {
	return yaml.Marshal(FromConfig(cfg))
}
