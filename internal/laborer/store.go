package laborer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store supplies the ordered list of laborers. Implementations may be backed by
// a remote directory, so callers must not cache individual entries.
type Store interface {
	Laborers(ctx context.Context) (*Laborers, error)
}

//go:embed directory.yaml
var defaultDirectory []byte

// Directory is the on-disk shape of a laborer store file.
type Directory struct {
	Skills   []string   `json:"skills"`
	Laborers []*Laborer `json:"laborers"`
}

// StaticStore holds a directory loaded once at startup.
type StaticStore struct {
	laborers *Laborers
	catalog  []string
}

// NewStatic validates the laborers and wraps them in a store. When catalog is
// empty the distinct skills of the laborers are used.
func NewStatic(laborers *Laborers, catalog []string) (*StaticStore, error) {
	if laborers == nil {
		laborers = &Laborers{}
	}
	if err := laborers.Validate(); err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		catalog = laborers.Skills()
	}
	return &StaticStore{
		laborers: &Laborers{Items: append([]*Laborer(nil), laborers.Items...)},
		catalog:  append([]string(nil), catalog...),
	}, nil
}

// Default returns the built-in directory. It panics if the embedded file is broken.
func Default() *StaticStore {
	dir, err := ParseDirectory(defaultDirectory, ".yaml")
	if err != nil {
		panic(fmt.Errorf("parse embedded directory: %w", err))
	}
	store, err := NewStatic(New(dir.Laborers...), dir.Skills)
	if err != nil {
		panic(fmt.Errorf("validate embedded directory: %w", err))
	}
	return store
}

// Laborers returns a copy of the stored list so callers can not reorder the store.
func (s *StaticStore) Laborers(_ context.Context) (*Laborers, error) {
	return &Laborers{Items: append([]*Laborer(nil), s.laborers.Items...)}, nil
}

// Catalog returns the skills offered as filter chips.
func (s *StaticStore) Catalog() []string {
	return append([]string(nil), s.catalog...)
}

// LoadFile reads a directory from a YAML or JSON file, chosen by extension.
func LoadFile(path string) (*Directory, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read laborers file %s: %w", path, err)
	}

	dir, err := ParseDirectory(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse laborers file %s: %w", path, err)
	}
	return dir, nil
}

// ParseDirectory decodes directory data. ext selects the format: ".json" or
// anything else for YAML.
func ParseDirectory(data []byte, ext string) (*Directory, error) {
	var raw map[string]any
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}

	var dir Directory
	cfg := &mapstructure.DecoderConfig{
		Result:           &dir,
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}

	return &dir, nil
}
