// Package loader reads performances, section maps and overrides from files.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/padflow/internal/domain/model"
)

// Format identifies a file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatMIDI Format = "midi"
)

// Sentinel errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrDecode            = errors.New("decode failed")
)

// FormatOf picks a format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".mid", ".midi", ".smf":
		return FormatMIDI, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// LoadPerformance reads a performance from a JSON, YAML or Standard MIDI file.
func LoadPerformance(path string) (model.Performance, error) {
	f, err := FormatOf(path)
	if err != nil {
		return model.Performance{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Performance{}, fmt.Errorf("read performance: %w", err)
	}
	return DecodePerformance(bytes.NewReader(data), f)
}

// DecodePerformance reads a performance in format f.
func DecodePerformance(r io.Reader, f Format) (model.Performance, error) {
	var p model.Performance
	switch f {
	case FormatMIDI:
		return decodeMIDI(r)
	case FormatJSON, FormatYAML:
		if err := decode(r, f, &p); err != nil {
			return model.Performance{}, err
		}
		return p, nil
	}
	return p, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// LoadSections reads a list of section maps from a JSON or YAML file.
func LoadSections(path string) ([]model.SectionMap, error) {
	var sections []model.SectionMap
	if err := loadDocument(path, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// LoadOverrides reads overrides keyed by event index, e.g. {"3": {"hand": "left", "finger": "index"}}.
func LoadOverrides(path string) (model.Overrides, error) {
	var o model.Overrides
	if err := loadDocument(path, &o); err != nil {
		return nil, err
	}
	return o, nil
}

// LoadRequest reads a complete solve request from a JSON or YAML file.
func LoadRequest(path string) (model.SolveRequest, error) {
	var req model.SolveRequest
	if err := loadDocument(path, &req); err != nil {
		return model.SolveRequest{}, err
	}
	return req, nil
}

func loadDocument(path string, v any) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	if f == FormatMIDI {
		return fmt.Errorf("%w: %q holds no %T", ErrUnsupportedFormat, path, v)
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return decode(file, f, v)
}

func decode(r io.Reader, f Format, v any) error {
	var err error
	switch f {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(v)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(v)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, f, err)
	}
	return nil
}
