package loaders

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/hectorBrown/icl-y2-project/pkg/element"
	"github.com/hectorBrown/icl-y2-project/pkg/optics"
	"github.com/hectorBrown/icl-y2-project/pkg/system"
)

// maxPathLength bounds accepted file paths
const maxPathLength = 512

// Prescription is a lens design read from YAML
type Prescription struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Materials   map[string]Material `yaml:"materials"`
	Surfaces    []Surface           `yaml:"surfaces"`

	baseDir string // Directory table files are resolved against; empty when parsed from a stream
}

// Material is either a constant index or a dispersion table, given inline
// or as a delimited file next to the prescription
type Material struct {
	Index     *float64     `yaml:"index"`
	Table     string       `yaml:"table"`
	Separator string       `yaml:"separator"`
	Scale     float64      `yaml:"scale"`     // Wavelength unit in metres, default micrometres
	Points    [][2]float64 `yaml:"points"`    // Inline (wavelength, index) pairs
	Reference float64      `yaml:"reference"` // Wavelength used for untagged rays, in table units
}

// Surface is one entry of the ordered surface list
type Surface struct {
	Type      string    `yaml:"type"` // refractor, reflector or output
	Z0        float64   `yaml:"z0"`
	Curvature float64   `yaml:"curvature"`
	N1        MediumRef `yaml:"n1"`
	N2        MediumRef `yaml:"n2"`
	Aperture  float64   `yaml:"aperture"`
	Reverse   bool      `yaml:"reverse"`
}

// MediumRef is a refractive index given either as a number or as the name
// of an entry in the materials map
type MediumRef struct {
	Value float64
	Name  string
	Set   bool
}

// UnmarshalYAML implements yaml.Unmarshaler
func (m *MediumRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: medium must be a number or material name", node.Line)
	}
	var v float64
	if err := node.Decode(&v); err == nil {
		*m = MediumRef{Value: v, Set: true}
		return nil
	}
	*m = MediumRef{Name: node.Value, Set: true}
	return nil
}

// ParsePrescription decodes a YAML prescription. Materials that reference
// table files cannot be built from a prescription parsed this way.
func ParsePrescription(reader io.Reader) (*Prescription, error) {
	dec := yaml.NewDecoder(reader)
	dec.KnownFields(true)

	var p Prescription
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty prescription")
		}
		return nil, xerrors.Errorf("while decoding prescription: %w", err)
	}
	if len(p.Surfaces) == 0 {
		return nil, fmt.Errorf("prescription %q has no surfaces", p.Name)
	}
	for i, s := range p.Surfaces {
		switch s.Type {
		case "refractor", "reflector", "output":
		default:
			return nil, fmt.Errorf("surface %d: unknown type %q", i, s.Type)
		}
	}
	return &p, nil
}

// LoadPrescription loads and parses a prescription file
func LoadPrescription(filename string) (*Prescription, error) {
	if err := validateFilePath(filename, ".yaml", ".yml"); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, xerrors.Errorf("while opening prescription: %w", err)
	}
	defer file.Close()

	p, err := ParsePrescription(file)
	if err != nil {
		return nil, xerrors.Errorf("while parsing %s: %w", filename, err)
	}
	p.baseDir = filepath.Dir(filename)
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return p, nil
}

// MaterialNames returns the declared material names in sorted order
func (p *Prescription) MaterialNames() []string {
	names := make([]string, 0, len(p.Materials))
	for name := range p.Materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves every material and returns the described system
func (p *Prescription) Build() (*system.System, error) {
	indices := make(map[string]optics.Index, len(p.Materials))
	for _, name := range p.MaterialNames() {
		idx, err := p.resolveMaterial(p.Materials[name])
		if err != nil {
			return nil, xerrors.Errorf("while resolving material %q: %w", name, err)
		}
		indices[name] = idx
	}

	medium := func(ref MediumRef) (optics.Index, error) {
		switch {
		case !ref.Set:
			return optics.Constant(1), nil
		case ref.Name == "":
			return optics.Constant(ref.Value), nil
		}
		idx, ok := indices[ref.Name]
		if !ok {
			return nil, fmt.Errorf("unknown material %q", ref.Name)
		}
		return idx, nil
	}

	sys := system.New()
	for i, s := range p.Surfaces {
		var opts []element.Option
		if s.Aperture > 0 {
			opts = append(opts, element.WithAperture(s.Aperture))
		}

		switch s.Type {
		case "refractor":
			n1, err := medium(s.N1)
			if err != nil {
				return nil, fmt.Errorf("surface %d n1: %w", i, err)
			}
			n2, err := medium(s.N2)
			if err != nil {
				return nil, fmt.Errorf("surface %d n2: %w", i, err)
			}
			sys.Append(element.NewSphericalRefractor(s.Z0, s.Curvature, n1, n2, opts...))
		case "reflector":
			if s.Reverse {
				opts = append(opts, element.WithReverse())
			}
			sys.Append(element.NewSphericalReflector(s.Z0, s.Curvature, opts...))
		case "output":
			sys.Append(element.NewOutputPlane(s.Z0))
		default:
			return nil, fmt.Errorf("surface %d: unknown type %q", i, s.Type)
		}
	}
	return sys, nil
}

func (p *Prescription) resolveMaterial(m Material) (optics.Index, error) {
	scale := m.Scale
	if scale == 0 {
		scale = 1e-6
	}

	var table *optics.Table
	switch {
	case m.Index != nil:
		return optics.Constant(*m.Index), nil
	case m.Table != "":
		if p.baseDir == "" {
			return nil, fmt.Errorf("table file %q needs a prescription loaded from disk", m.Table)
		}
		opts := DefaultIndexTableOptions()
		opts.WavelengthScale = scale
		if m.Separator != "" {
			opts.Comma = []rune(m.Separator)[0]
		}
		var err error
		if table, err = LoadIndexTable(filepath.Join(p.baseDir, m.Table), opts); err != nil {
			return nil, err
		}
	case len(m.Points) > 0:
		wavelengths := make([]float64, len(m.Points))
		indices := make([]float64, len(m.Points))
		for i, pt := range m.Points {
			wavelengths[i] = pt[0] * scale
			indices[i] = pt[1]
		}
		var err error
		if table, err = optics.NewTable(wavelengths, indices); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("material needs index, table or points")
	}

	if m.Reference > 0 {
		table.SetReference(m.Reference * scale)
	}
	return table.Index(), nil
}

// validateFilePath rejects paths that are empty, overly long, contain NUL
// bytes or lack one of the allowed extensions
func validateFilePath(filename string, extensions ...string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}

	cleanPath := filepath.Clean(filename)
	if len(cleanPath) > maxPathLength {
		return fmt.Errorf("file path too long: maximum %d characters allowed", maxPathLength)
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	for _, allowed := range extensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("invalid file type %q: allowed %s", ext, strings.Join(extensions, ", "))
}
