package ratetables

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Document formats accepted by LoadReader.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// LoadFile reads a JSON or YAML tables document, chosen by file extension,
// and compiles it.
func LoadFile(path string) (*Tables, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(formatForPath(path))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading rate tables %s, %w", path, err)
	}
	return decode(v)
}

// LoadReader reads a tables document in the given format and compiles it.
func LoadReader(r io.Reader, format string) (*Tables, error) {
	format = strings.ToLower(format)
	switch format {
	case "yml":
		format = FormatYAML
	case FormatYAML, FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported rate table format %q", format)
	}
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading rate tables, %w", err)
	}
	return decode(v)
}

// LoadBytes is LoadReader over a byte slice.
func LoadBytes(b []byte, format string) (*Tables, error) {
	return LoadReader(bytes.NewReader(b), format)
}

func decode(v *viper.Viper) (*Tables, error) {
	var t Tables
	if err := v.Unmarshal(&t); err != nil {
		return nil, fmt.Errorf("unable to decode rate tables, %w", err)
	}
	if err := t.Compile(); err != nil {
		return nil, err
	}
	return &t, nil
}

func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}
