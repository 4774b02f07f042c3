package lens

import (
	"github.com/hectorBrown/icl-y2-project/pkg/element"
	"github.com/hectorBrown/icl-y2-project/pkg/optics"
	"github.com/hectorBrown/icl-y2-project/pkg/system"
)

// nBK7 is the d-line index of N-BK7 glass
const nBK7 = 1.5168

type preset struct {
	info  Info
	build func() *system.System
}

var presets = []preset{
	{
		info: Info{
			ID:          "single-surface",
			Name:        "Single Surface",
			Description: "Convex refracting surface into n=1.5 glass",
		},
		build: NewSingleSurface,
	},
	{
		info: Info{
			ID:          "biconvex",
			Name:        "Biconvex Singlet",
			Description: "Symmetric 5mm thick N-BK7 singlet",
		},
		build: NewBiconvex,
	},
	{
		info: Info{
			ID:          "planoconvex",
			Name:        "Plano-convex Singlet",
			Description: "Curved face toward the collimated beam",
		},
		build: func() *system.System { return NewPlanoConvex(false) },
	},
	{
		info: Info{
			ID:          "planoconvex-reversed",
			Name:        "Plano-convex Singlet",
			Variant:     "Reversed",
			Description: "Flat face toward the collimated beam",
		},
		build: func() *system.System { return NewPlanoConvex(true) },
	},
	{
		info: Info{
			ID:          "concave-mirror",
			Name:        "Concave Mirror",
			Description: "Spherical mirror with a 50mm radius",
		},
		build: NewConcaveMirror,
	},
	{
		info: Info{
			ID:          "chromatic-singlet",
			Name:        "Biconvex Singlet",
			Variant:     "Dispersive",
			Description: "Biconvex singlet with tabulated BK7 dispersion",
		},
		build: NewChromaticSinglet,
	},
}

// NewSingleSurface creates a single convex surface from vacuum into n=1.5
func NewSingleSurface() *system.System {
	return system.New(element.NewSphericalRefractor(100e-3, 30, optics.Constant(1), optics.Constant(1.5)))
}

// NewBiconvex creates the symmetric singlet
func NewBiconvex() *system.System {
	return biconvex(optics.Constant(nBK7))
}

// NewChromaticSinglet creates the symmetric singlet with a dispersive glass
func NewChromaticSinglet() *system.System {
	return biconvex(optics.BK7().Index())
}

func biconvex(glass optics.Index) *system.System {
	air := optics.Constant(1)
	return system.New(
		element.NewSphericalRefractor(100e-3, 20, air, glass),
		element.NewSphericalRefractor(105e-3, -20, glass, air),
	)
}

// NewPlanoConvex creates a plano-convex singlet. Reversed puts the flat face first.
func NewPlanoConvex(reversed bool) *system.System {
	air, glass := optics.Constant(1), optics.Constant(nBK7)
	c1, c2 := 20.0, 0.0
	if reversed {
		c1, c2 = 0, -20
	}
	return system.New(
		element.NewSphericalRefractor(100e-3, c1, air, glass),
		element.NewSphericalRefractor(105e-3, c2, glass, air),
	)
}

// NewConcaveMirror creates a mirror that focuses a collimated beam back toward -z
func NewConcaveMirror() *system.System {
	return system.New(element.NewSphericalReflector(100e-3, -20))
}
