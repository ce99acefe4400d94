package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"reflect"
	"strings"

	"sqlmap-builder/config"
	"sqlmap-builder/internal/ctxlog"
	"sqlmap-builder/internal/document"
	"sqlmap-builder/internal/hcldoc"
	"sqlmap-builder/internal/xmldoc"
	"sqlmap-builder/internal/yamldoc"
)

var (
	// ErrNoSource is returned when a Source sets none of its variants.
	ErrNoSource = errors.New("no configuration source")
	// ErrAmbiguousSource is returned when a Source sets more than one variant.
	ErrAmbiguousSource = errors.New("more than one configuration source")
)

// Format is the syntax of a configuration document.
type Format int

const (
	FormatXML Format = iota
	FormatYAML
	FormatHCL
)

// String returns the lower-case format name.
func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatYAML:
		return "yaml"
	case FormatHCL:
		return "hcl"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat resolves a format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "xml":
		return FormatXML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "hcl":
		return FormatHCL, nil
	default:
		return 0, fmt.Errorf("unknown configuration format %q", name)
	}
}

// FormatFor guesses the format from a file extension. Unknown extensions
// are XML.
func FormatFor(name string) Format {
	f, err := ParseFormat(strings.TrimPrefix(path.Ext(name), "."))
	if err != nil {
		return FormatXML
	}

	return f
}

// Source is the input of one build: exactly one of Text, Bytes or
// Configuration.
//
// The builder owns Text and Bytes for the duration of the call and closes
// them before it returns, whatever the outcome.
type Source struct {
	// Text is a decoded character stream. An encoding declared by the
	// document is ignored.
	Text io.ReadCloser
	// Bytes is a raw byte stream decoded with the document's declared
	// encoding.
	Bytes io.ReadCloser
	// Configuration is an already built graph.
	Configuration *config.Configuration

	// Environment selects the environment to build; empty means the
	// document default.
	Environment string
	// Properties override the document's properties.
	Properties map[string]string
	// Format of Text or Bytes.
	Format Format
	// Name identifies the document in diagnostics.
	Name string
}

func (s Source) variants() int {
	n := 0
	if s.Text != nil {
		n++
	}

	if s.Bytes != nil {
		n++
	}

	if s.Configuration != nil {
		n++
	}

	return n
}

func (s Source) validate() error {
	switch s.variants() {
	case 0:
		return ErrNoSource
	case 1:
		return nil
	default:
		return ErrAmbiguousSource
	}
}

func (s Source) name() string {
	if s.Name != "" {
		return s.Name
	}

	return "configuration." + s.Format.String()
}

// close releases every supplied stream. Close errors are logged and
// dropped so they never hide the build result.
func (s Source) close(ctx context.Context) {
	log := ctxlog.FromContext(ctx)

	for _, rc := range []io.ReadCloser{s.Text, s.Bytes} {
		if rc == nil {
			continue
		}

		if err := rc.Close(); err != nil {
			log.Debug("closing configuration source failed", "resource", s.name(), "error", err)
		}

		if sameStream(s.Text, s.Bytes) {
			break
		}
	}
}

// sameStream reports whether a and b are one stream. Values whose dynamic
// type cannot be compared are treated as distinct.
func sameStream(a, b io.ReadCloser) bool {
	if a == nil || b == nil || reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}

	return reflect.ValueOf(a).Comparable() && a == b
}

// decode parses the stream variant into a document.
func (s Source) decode() (document.Document, error) {
	r, enc := s.Text, xmldoc.Text
	if r == nil {
		r, enc = s.Bytes, xmldoc.Bytes
	}

	switch s.Format {
	case FormatXML:
		return xmldoc.ParseConfig(r, enc, s.name())
	case FormatYAML:
		return yamldoc.ParseConfig(r, s.name())
	case FormatHCL:
		return hcldoc.ParseConfig(r, s.name())
	default:
		return nil, fmt.Errorf("unknown configuration format %s", s.Format)
	}
}
