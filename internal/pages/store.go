package pages

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Options are the per-subscribe-page widget settings.
type Options struct {
	Include      bool
	Theme        string
	Size         string
	LanguageFile string
}

type rawOptions struct {
	Include      *bool  `json:"include,omitempty" yaml:"include,omitempty"`
	Theme        string `json:"theme,omitempty" yaml:"theme,omitempty" validate:"omitempty,oneof=light dark"`
	Size         string `json:"size,omitempty" yaml:"size,omitempty" validate:"omitempty,oneof=normal compact"`
	LanguageFile string `json:"language_file,omitempty" yaml:"language_file,omitempty"`
}

type rawConfig struct {
	Global rawOptions            `json:"global" yaml:"global"`
	Pages  map[string]rawOptions `json:"pages" yaml:"pages"`
}

type snapshot struct {
	global Options
	pages  map[string]Options
}

// Store serves page options from a JSON or YAML file and reloads it when the
// file's modification time changes.
type Store struct {
	path     string
	validate *validator.Validate

	mu      sync.Mutex
	current *snapshot
	modTime time.Time
}

// Open loads path once; later lookups reload it when it changes.
func Open(path string, v *validator.Validate) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("page settings file path is empty")
	}
	if v == nil {
		v = validator.New()
	}
	s := &Store{path: path, validate: v}
	if err := s.Refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// Refresh rereads the file if its modification time moved. On error the last
// good settings stay in effect.
func (s *Store) Refresh() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("could not stat page settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && info.ModTime().Equal(s.modTime) {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("could not open page settings: %w", err)
	}

	snap, err := parse(data, formatOf(s.path), s.validate)
	if err != nil {
		return err
	}

	s.current = snap
	s.modTime = info.ModTime()
	return nil
}

// Page returns the options for id merged over the global defaults. The bool
// is false when the page has no entry of its own. A reload failure is
// returned alongside the last good options.
func (s *Store) Page(id string) (Options, bool, error) {
	err := s.Refresh()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Options{}, false, err
	}
	if opts, ok := s.current.pages[id]; ok {
		return opts, true, err
	}
	return s.current.global, false, err
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func parse(data []byte, format string, v *validator.Validate) (*snapshot, error) {
	var cfg rawConfig
	var err error
	if format == "yaml" {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not parse page settings: %w", err)
	}

	normalise(&cfg.Global)
	if err := v.Struct(cfg.Global); err != nil {
		return nil, fmt.Errorf("invalid global page settings: %w", err)
	}

	base := Options{
		Include:      true,
		Theme:        cfg.Global.Theme,
		Size:         cfg.Global.Size,
		LanguageFile: cfg.Global.LanguageFile,
	}
	if cfg.Global.Include != nil {
		base.Include = *cfg.Global.Include
	}

	pages := make(map[string]Options, len(cfg.Pages))
	for id, raw := range cfg.Pages {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("page settings id cannot be empty")
		}
		normalise(&raw)
		if err := v.Struct(raw); err != nil {
			return nil, fmt.Errorf("invalid settings for page %s: %w", id, err)
		}
		p := base
		if raw.Include != nil {
			p.Include = *raw.Include
		}
		if raw.Theme != "" {
			p.Theme = raw.Theme
		}
		if raw.Size != "" {
			p.Size = raw.Size
		}
		if raw.LanguageFile != "" {
			p.LanguageFile = raw.LanguageFile
		}
		pages[id] = p
	}

	return &snapshot{global: base, pages: pages}, nil
}

func normalise(r *rawOptions) {
	r.Theme = strings.ToLower(strings.TrimSpace(r.Theme))
	r.Size = strings.ToLower(strings.TrimSpace(r.Size))
	r.LanguageFile = strings.TrimSpace(r.LanguageFile)
}
