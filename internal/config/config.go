package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

// Project file names, in lookup order.
const (
	JSONFile = "liteshell.json"
	TOMLFile = "liteshell.toml"
)

const (
	DefaultName  = "liteshell_project"
	DefaultEntry = "index.html"
	DefaultHost  = "127.0.0.1"
)

var (
	// ErrMissingUUID is returned for a project file without a uuid.
	ErrMissingUUID = errors.New("project uuid is required")
	// ErrUnsupportedFormat is returned for a project file that is neither JSON nor TOML.
	ErrUnsupportedFormat = errors.New("unsupported project file format")
)

// WindowConfig describes the main window.
type WindowConfig struct {
	Title      string      `json:"title,omitempty" toml:"title,omitempty"`
	Theme      string      `json:"theme,omitempty" toml:"theme,omitempty"`
	Size       *[2]float64 `json:"size,omitempty" toml:"size,omitempty"`
	MinSize    *[2]float64 `json:"minSize,omitempty" toml:"minSize,omitempty"`
	MaxSize    *[2]float64 `json:"maxSize,omitempty" toml:"maxSize,omitempty"`
	Position   *[2]float64 `json:"position,omitempty" toml:"position,omitempty"`
	Resizable  *bool       `json:"resizable,omitempty" toml:"resizable,omitempty"`
	Fullscreen bool        `json:"fullscreen,omitempty" toml:"fullscreen,omitempty"`
	Devtools   bool        `json:"devtools,omitempty" toml:"devtools,omitempty"`
}

// MenuItem is one entry of the application menu. A zero ID marks a
// non-clickable item such as a submenu header.
type MenuItem struct {
	ID          uint32     `json:"id,omitempty" toml:"id,omitempty"`
	Label       string     `json:"label" toml:"label"`
	Accelerator string     `json:"accelerator,omitempty" toml:"accelerator,omitempty"`
	Submenu     []MenuItem `json:"submenu,omitempty" toml:"submenu,omitempty"`
}

// ServerConfig controls where the bridge listens.
type ServerConfig struct {
	Host string `json:"host,omitempty" toml:"host,omitempty"`
	Port int    `json:"port,omitempty" toml:"port,omitempty"`
}

// Project is the content of the project options file.
type Project struct {
	Name        string       `json:"name" toml:"name"`
	UUID        string       `json:"uuid" toml:"uuid"`
	Version     string       `json:"version,omitempty" toml:"version,omitempty"`
	Icon        string       `json:"icon,omitempty" toml:"icon,omitempty"`
	Entry       string       `json:"entry,omitempty" toml:"entry,omitempty"`
	Title       string       `json:"title,omitempty" toml:"title,omitempty"`
	Description string       `json:"description,omitempty" toml:"description,omitempty"`
	Window      WindowConfig `json:"window,omitzero" toml:"window,omitempty"`
	Menu        []MenuItem   `json:"menu,omitempty" toml:"menu,omitempty"`
	Server      ServerConfig `json:"server,omitzero" toml:"server,omitempty"`
}

// DefaultProject returns a fresh project with a new uuid.
func DefaultProject() *Project {
	return &Project{
		Name: DefaultName,
		UUID: uuid.NewString(),
	}
}

// ApplyDefaults fills the fields left empty by the project file.
func (p *Project) ApplyDefaults() {
	if p.Entry == "" {
		p.Entry = DefaultEntry
	}
	if p.Window.Title == "" {
		p.Window.Title = p.Name
	}
	if p.Server.Host == "" {
		p.Server.Host = DefaultHost
	}
}

// Validate checks that the project values are usable.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name must not be empty")
	}
	if strings.ContainsAny(p.Name, `/\`) {
		return errors.New("name must not contain path separators")
	}
	if p.UUID == "" {
		return ErrMissingUUID
	}
	if _, err := uuid.Parse(p.UUID); err != nil {
		return fmt.Errorf("invalid uuid %q: %w", p.UUID, err)
	}
	switch p.Window.Theme {
	case "", "light", "dark":
	default:
		return fmt.Errorf("window.theme must be light or dark, got %q", p.Window.Theme)
	}
	if p.Server.Port < 0 || p.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", p.Server.Port)
	}
	if p.Entry != "" && filepath.IsAbs(p.Entry) {
		return errors.New("entry must be relative to the work dir")
	}
	return validateMenu(p.Menu, make(map[uint32]bool))
}

func validateMenu(items []MenuItem, seen map[uint32]bool) error {
	for _, item := range items {
		if item.ID != 0 {
			if seen[item.ID] {
				return fmt.Errorf("duplicate menu id %d", item.ID)
			}
			seen[item.ID] = true
		}
		if err := validateMenu(item.Submenu, seen); err != nil {
			return err
		}
	}
	return nil
}

// TopLevelMenuIDs returns the ids of the clickable top-level menu items in order.
func (p *Project) TopLevelMenuIDs() []uint32 {
	var ids []uint32
	for _, item := range p.Menu {
		if item.ID != 0 {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// LoadFile reads a project file, choosing the decoder by extension.
func LoadFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p := &Project{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, p)
	case ".toml":
		err = toml.Unmarshal(data, p)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if p.UUID == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingUUID)
	}
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// SaveFile writes p to path in the format matching its extension.
func SaveFile(path string, p *Project) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(p, "", "  ")
	case ".toml":
		data, err = toml.Marshal(p)
	default:
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// GetOrCreate loads the project file in dir. When neither liteshell.json nor
// liteshell.toml exists a default liteshell.json is written first.
func GetOrCreate(dir string) (*Project, string, error) {
	for _, name := range []string{JSONFile, TOMLFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			p, err := LoadFile(path)
			return p, path, err
		} else if !os.IsNotExist(err) {
			return nil, "", err
		}
	}

	path := filepath.Join(dir, JSONFile)
	p := DefaultProject()
	if err := SaveFile(path, p); err != nil {
		return nil, "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	p.ApplyDefaults()
	return p, path, nil
}
