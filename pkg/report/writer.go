package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// Format selects the serialization of a written report.
type Format string

// Output formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// lz4Extension triggers frame compression of the serialized report.
const lz4Extension = ".lz4"

// WriteJSON serializes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("encode report json: %w", err)
	}

	return nil
}

// WriteYAML serializes the report as YAML.
func WriteYAML(w io.Writer, r *Report) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()

	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("encode report yaml: %w", err)
	}

	return nil
}

// FormatForPath picks the output format from the file extension,
// looking through a trailing .lz4.
func FormatForPath(path string) Format {
	trimmed := strings.TrimSuffix(path, lz4Extension)

	switch filepath.Ext(trimmed) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// WriteFile writes the report to path, choosing format from the
// extension and lz4-compressing when the path ends in .lz4.
func WriteFile(path string, r *Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer file.Close()

	var w io.Writer = file

	var lz4Writer *lz4.Writer

	if strings.HasSuffix(path, lz4Extension) {
		lz4Writer = lz4.NewWriter(file)
		w = lz4Writer
	}

	var writeErr error

	switch FormatForPath(path) {
	case FormatYAML:
		writeErr = WriteYAML(w, r)
	case FormatJSON:
		writeErr = WriteJSON(w, r)
	}

	if lz4Writer != nil {
		if err := lz4Writer.Close(); err != nil && writeErr == nil {
			writeErr = fmt.Errorf("close lz4 writer: %w", err)
		}
	}

	return writeErr
}

// ReadFile loads a previously written JSON report, transparently
// decompressing .lz4 files. Used by the search subcommand.
func ReadFile(path string) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file

	if strings.HasSuffix(path, lz4Extension) {
		reader = lz4.NewReader(file)
	}

	var loaded Report

	trimmed := strings.TrimSuffix(path, lz4Extension)

	switch filepath.Ext(trimmed) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(reader).Decode(&loaded); err != nil {
			return nil, fmt.Errorf("decode report yaml: %w", err)
		}
	default:
		if err := json.NewDecoder(reader).Decode(&loaded); err != nil {
			return nil, fmt.Errorf("decode report json: %w", err)
		}
	}

	return &loaded, nil
}
