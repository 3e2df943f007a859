package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a document on disk.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the decoder for a path by its extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadFile reads a single document from path, decodes it according to its
// extension and validates it.
func LoadFile[T ValidatingSpec](path string) (T, error) {
	var zero T

	file, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("opening file: %w", err)
	}

	// Ignoring close error - file is read-only, error is not actionable
	defer func() { _ = file.Close() }()

	spec, err := Decode[T](file, FormatFor(path))
	if err != nil {
		return zero, fmt.Errorf("loading %s: %w", filepath.Base(path), err)
	}
	return spec, nil
}

// Decode reads a document from r in the given format and validates it.
func Decode[T ValidatingSpec](r io.Reader, format Format) (T, error) {
	var spec T

	data, err := io.ReadAll(r)
	if err != nil {
		return spec, fmt.Errorf("reading document: %w", err)
	}

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &spec)
	default:
		err = json.Unmarshal(data, &spec)
	}
	if err != nil {
		return spec, fmt.Errorf("unmarshalling document: %w", err)
	}

	v := reflect.ValueOf(spec)
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return spec, fmt.Errorf("document is empty")
	}

	if err := spec.Validate(); err != nil {
		return spec, fmt.Errorf("validating document: %w", err)
	}

	return spec, nil
}
