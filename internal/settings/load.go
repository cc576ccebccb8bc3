package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a settings file encoding.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

type fileModel struct {
	Frameworks map[string]frameworkModel `yaml:"frameworks" toml:"frameworks"`
	Settings   []settingModel            `yaml:"settings" toml:"settings"`
}

type frameworkModel struct {
	Properties map[string]string `yaml:"properties" toml:"properties"`
}

type settingModel struct {
	Framework  string            `yaml:"framework" toml:"framework"`
	Path       []string          `yaml:"path" toml:"path"`
	Attributes map[string]string `yaml:"attributes" toml:"attributes"`
}

// LoadFile reads a settings file, choosing the decoder by extension.
func LoadFile(path string) (*Store, error) {
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = YAML
	case ".toml":
		format = TOML
	default:
		return nil, fmt.Errorf("unsupported settings file %s: expected .yaml, .yml or .toml", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	store, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings file %s: %w", path, err)
	}
	return store, nil
}

// Parse decodes settings from data.
func Parse(data []byte, format Format) (*Store, error) {
	var m fileModel
	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case TOML:
		md, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, err
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, fmt.Errorf("unknown settings keys: %v", undec)
		}
	default:
		return nil, fmt.Errorf("unsupported settings format %q", format)
	}
	return m.store()
}

func (m fileModel) store() (*Store, error) {
	names := make([]string, 0, len(m.Frameworks))
	for name := range m.Frameworks {
		names = append(names, name)
	}
	sort.Strings(names)

	frameworks := make([]*Framework, 0, len(names))
	for _, name := range names {
		props := m.Frameworks[name].Properties
		if props == nil {
			props = map[string]string{}
		}
		frameworks = append(frameworks, &Framework{Name: name, Properties: props})
	}

	var out []Setting
	for i, sm := range m.Settings {
		if sm.Framework != "" {
			if _, ok := m.Frameworks[sm.Framework]; !ok {
				return nil, fmt.Errorf("settings[%d]: unknown framework %q", i, sm.Framework)
			}
		}
		path := make([]Scope, 0, len(sm.Path))
		for _, p := range sm.Path {
			sc, err := ParseScope(p)
			if err != nil {
				return nil, fmt.Errorf("settings[%d]: %w", i, err)
			}
			path = append(path, sc)
		}
		attrs := make([]string, 0, len(sm.Attributes))
		for a := range sm.Attributes {
			attrs = append(attrs, a)
		}
		sort.Strings(attrs)
		for _, a := range attrs {
			out = append(out, Setting{Framework: sm.Framework, Path: path, Attribute: a, Value: sm.Attributes[a]})
		}
	}
	return New(frameworks, out), nil
}
