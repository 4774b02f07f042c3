package lens

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hectorBrown/icl-y2-project/pkg/core"
	"github.com/hectorBrown/icl-y2-project/pkg/loaders"
	"github.com/hectorBrown/icl-y2-project/pkg/system"
)

const (
	builtinGroup      = "Built-in Lenses"
	prescriptionGroup = "Prescriptions"
	prescriptionIDTag = "file:"
)

// ErrUnknownLens is returned when a name matches no preset, prescription or file
var ErrUnknownLens = errors.New("unknown lens")

// DefaultSearchPaths are the directories scanned for prescription files
var DefaultSearchPaths = []string{"lenses", "../lenses"}

// Info describes a lens design available for loading
type Info struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Design name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "prescription"
	FilePath    string `json:"filePath"`    // Path to the YAML file (prescription type only)
	Variant     string `json:"variant"`     // Variant name (optional)
}

// Group is a named set of related designs
type Group struct {
	Name   string `json:"name"`
	Lenses []Info `json:"lenses"`
}

// Catalogue resolves lens names against the built-in presets and the
// prescription files found in its search directories
type Catalogue struct {
	dirs   []string
	logger core.Logger
}

// NewCatalogue creates a catalogue that scans the first existing directory
// of dirs. A nil logger discards warnings.
func NewCatalogue(logger core.Logger, dirs ...string) *Catalogue {
	if logger == nil {
		logger = core.NopLogger()
	}
	return &Catalogue{dirs: dirs, logger: logger}
}

var defaultCatalogue = NewCatalogue(nil, DefaultSearchPaths...)

// List returns every design known to the default catalogue
func List() ([]Info, error) {
	return defaultCatalogue.List()
}

// Load resolves a name through the default catalogue
func Load(name string) (*system.System, Info, error) {
	return defaultCatalogue.Load(name)
}

// Builtins returns the preset designs in their declared order
func Builtins() []Info {
	infos := make([]Info, len(presets))
	for i, p := range presets {
		infos[i] = withDefaults(p.info)
	}
	return infos
}

func withDefaults(info Info) Info {
	info.Group = builtinGroup
	info.Type = "builtin"
	if info.Variant != "" {
		info.DisplayName = fmt.Sprintf("%s - %s", info.Name, info.Variant)
	} else {
		info.DisplayName = info.Name
	}
	return info
}

func (c *Catalogue) searchDir() string {
	for _, dir := range c.dirs {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return dir
		}
	}
	return ""
}

// Prescriptions scans the search directory for YAML prescriptions
func (c *Catalogue) Prescriptions() ([]Info, error) {
	dir := c.searchDir()
	if dir == "" {
		return []Info{}, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan lens directory: %v", err)
		}
		files = append(files, matches...)
	}

	var lenses []Info
	for _, path := range files {
		p, err := loaders.LoadPrescription(path)
		if err != nil {
			c.logger.Printf("Warning: skipping %s: %v\n", path, err)
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		name := p.Name
		if name == stem {
			name = titleCase(stem)
		}
		lenses = append(lenses, Info{
			ID:          prescriptionIDTag + stem,
			Name:        name,
			DisplayName: name,
			Description: p.Description,
			Group:       prescriptionGroup,
			Type:        "prescription",
			FilePath:    path,
		})
	}

	sort.Slice(lenses, func(i, j int) bool {
		return lenses[i].DisplayName < lenses[j].DisplayName
	})
	return lenses, nil
}

// List returns presets and discovered prescriptions sorted by display name
func (c *Catalogue) List() ([]Info, error) {
	found, err := c.Prescriptions()
	if err != nil {
		return nil, err
	}
	all := append(Builtins(), found...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].DisplayName < all[j].DisplayName
	})
	return all, nil
}

// Groups returns the catalogue grouped by category, built-in designs first
func (c *Catalogue) Groups() ([]Group, error) {
	all, err := c.List()
	if err != nil {
		return nil, err
	}

	groupMap := make(map[string][]Info)
	for _, info := range all {
		groupMap[info.Group] = append(groupMap[info.Group], info)
	}

	var names []string
	for name := range groupMap {
		if name != builtinGroup {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var groups []Group
	if builtins, ok := groupMap[builtinGroup]; ok {
		groups = append(groups, Group{Name: builtinGroup, Lenses: builtins})
	}
	for _, name := range names {
		groups = append(groups, Group{Name: name, Lenses: groupMap[name]})
	}
	return groups, nil
}

// Load resolves name as a preset ID, a discovered prescription (by ID or
// file stem) or a path to a prescription file
func (c *Catalogue) Load(name string) (*system.System, Info, error) {
	if name == "" {
		return nil, Info{}, fmt.Errorf("%w: empty name", ErrUnknownLens)
	}

	for _, p := range presets {
		if p.info.ID == name {
			return p.build(), withDefaults(p.info), nil
		}
	}

	found, err := c.Prescriptions()
	if err != nil {
		return nil, Info{}, err
	}
	for _, info := range found {
		if info.ID == name || info.ID == prescriptionIDTag+name {
			sys, _, err := buildPrescription(info.FilePath)
			return sys, info, err
		}
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".yaml" || ext == ".yml" {
		sys, p, err := buildPrescription(name)
		if err != nil {
			return nil, Info{}, err
		}
		stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		return sys, Info{
			ID:          prescriptionIDTag + stem,
			Name:        p.Name,
			DisplayName: p.Name,
			Description: p.Description,
			Group:       prescriptionGroup,
			Type:        "prescription",
			FilePath:    name,
		}, nil
	}

	return nil, Info{}, fmt.Errorf("%w: %q", ErrUnknownLens, name)
}

func buildPrescription(path string) (*system.System, *loaders.Prescription, error) {
	p, err := loaders.LoadPrescription(path)
	if err != nil {
		return nil, nil, err
	}
	sys, err := p.Build()
	return sys, p, err
}

// titleCase converts a filename-style string to title case
// e.g., "double-gauss" -> "Double Gauss"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
