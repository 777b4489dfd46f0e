package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// FormatForPath picks the document format from a file extension.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", &Error{
			Code:    ErrorCodeUnsupportedFormat,
			Field:   path,
			Message: "expected a .json, .yaml, .yml or .toml file",
		}
	}
}

// LoadFile reads a context document from disk. A cdk.json-shaped document (with a top-level
// "context" object) is unwrapped first.
func LoadFile(path string) (Tables, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return Tables{}, err
	}

	//nolint:gosec // Path is supplied by the operator.
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, &Error{Code: ErrorCodeReadFailed, Field: path, Message: "cannot read file", Err: err}
	}
	return Parse(data, format)
}

// Parse decodes a context document in the given format.
func Parse(data []byte, format string) (Tables, error) {
	doc := map[string]any{}

	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	default:
		return Tables{}, &Error{Code: ErrorCodeUnsupportedFormat, Message: fmt.Sprintf("unknown format %q", format)}
	}
	if err != nil {
		return Tables{}, &Error{Code: ErrorCodeInvalidValue, Message: fmt.Sprintf("cannot parse %s document", format), Err: err}
	}

	if inner, ok := doc["context"].(map[string]any); ok {
		doc = inner
	}
	return TablesFromMap(doc)
}
