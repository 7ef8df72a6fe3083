package group

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Source resolves a group by name.
type Source interface {
	Group(name string) (*Group, bool)
}

// Store holds the named groups known to the application. It is filled at
// startup and read concurrently by scrape runs.
type Store struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

// NewStore returns a store holding groups.
func NewStore(groups ...*Group) (*Store, error) {
	s := &Store{groups: make(map[string]*Group, len(groups))}
	for _, g := range groups {
		if err := s.Add(g); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers a group; names are unique ignoring case.
func (s *Store) Add(g *Group) error {
	if g == nil {
		return fmt.Errorf("add scraper group: nil group")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(g.Name())
	if _, exists := s.groups[key]; exists {
		return fmt.Errorf("scraper group %s already defined", g.Name())
	}
	s.groups[key] = g
	return nil
}

// Group implements Source.
func (s *Store) Group(name string) (*Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[strings.ToLower(strings.TrimSpace(name))]
	return g, ok
}

// Names returns the group names sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g.Name())
	}
	sort.Strings(out)
	return out
}

// groupFile is the on-disk layout of a group file.
type groupFile struct {
	Name   string            `toml:"name" yaml:"name"`
	Fields map[string]string `toml:"fields" yaml:"fields"`
}

// LoadFile reads one group from a .toml, .yaml or .yml file. The group name
// defaults to the file name without extension.
func LoadFile(path string) (*Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scraper group: %w", err)
	}

	var file groupFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("parse scraper group %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("parse scraper group %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("scraper group %s: unsupported file type", path)
	}

	name := strings.TrimSpace(file.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return New(name, file.Fields)
}

// LoadDir adds every group file found directly in dir. A missing directory
// is not an error.
func (s *Store) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read scraper group dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".toml", ".yaml", ".yml":
		default:
			continue
		}
		g, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		if err := s.Add(g); err != nil {
			return err
		}
	}
	return nil
}
