package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for catalog files that are neither
// YAML, JSON nor CUE.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// LoadFile reads and validates a catalog file. The format is chosen by
// extension: .yaml, .yml and .json are decoded as YAML, .cue as CUE.
func LoadFile(path string) ([]Movie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(path, data)
}

// Parse validates catalog data. name selects the format and is used in
// error messages.
func Parse(name string, data []byte) ([]Movie, error) {
	v, err := newValidator()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		movies, err := decodeYAML(name, data)
		if err != nil {
			return nil, err
		}
		return v.checkMovies(name, movies)
	case ".cue":
		return v.decodeCUE(name, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

func decodeYAML(name string, data []byte) ([]Movie, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &ValidationError{File: name, Field: "yaml", Message: err.Error()}
	}
	return doc.Movies, nil
}
