// lenstrace traces rays through lens designs and reports focus and spot size.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/hectorBrown/icl-y2-project/pkg/analysis"
	"github.com/hectorBrown/icl-y2-project/pkg/core"
	"github.com/hectorBrown/icl-y2-project/pkg/element"
	"github.com/hectorBrown/icl-y2-project/pkg/lens"
	"github.com/hectorBrown/icl-y2-project/pkg/optics"
	"github.com/hectorBrown/icl-y2-project/pkg/optimize"
	"github.com/hectorBrown/icl-y2-project/pkg/system"
)

// glogLogger routes library progress output to glog
type glogLogger struct{}

func (glogLogger) Printf(format string, args ...interface{}) {
	glog.Infof(format, args...)
}

func loadLens(name string) (*system.System, lens.Info, error) {
	sys, info, err := lens.Load(name)
	if err != nil {
		return nil, lens.Info{}, fmt.Errorf("while loading lens %q: %w", name, err)
	}
	glog.V(1).Infof("Loaded %s: %v", info.DisplayName, sys)
	return sys, info, nil
}

func newAnalyzer(workers int) *analysis.Analyzer {
	config := analysis.DefaultConfig()
	config.Workers = workers
	return analysis.NewAnalyzer(config, glogLogger{})
}

func newRootCommand() *cobra.Command {
	cmdRoot := &cobra.Command{
		Use:           "lenstrace",
		Short:         "Geometric ray tracing for lens designs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmdRoot.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	cmdRoot.AddCommand(
		newLensesCommand(),
		newTraceCommand(),
		newFocusCommand(),
		newSpotCommand(),
		newOptimizeCommand(),
	)
	return cmdRoot
}

func newLensesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lenses",
		Short: "List built-in presets and discovered prescriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := lens.List()
			if err != nil {
				return fmt.Errorf("while listing lenses: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.ID, info.DisplayName, info.Description)
			}
			return w.Flush()
		},
	}
}

func newTraceCommand() *cobra.Command {
	var (
		lensName    string
		plane       float64
		radius      float64
		rings       int
		raysPerRing int
		wavelength  float64
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Trace a collimated bundle and print where each ray crosses a plane",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, _, err := loadLens(lensName)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("plane") {
				if plane, err = newAnalyzer(workers).FindFocus(sys); err != nil {
					return fmt.Errorf("while finding focus for default plane: %w", err)
				}
			}

			opts := []optics.BundleOption{optics.WithOrigin(core.NewVec3(0, 0, sys.LaunchZ()))}
			if wavelength > 0 {
				opts = append(opts, optics.WithWavelength(wavelength))
			}
			rays, err := optics.NewBundle(radius, rings, raysPerRing, opts...)
			if err != nil {
				return fmt.Errorf("while building bundle: %w", err)
			}

			trace := sys.Copy()
			trace.Append(element.NewOutputPlane(plane))
			failed, err := trace.PropagateBundleContext(context.Background(), rays, workers)
			if err != nil {
				return fmt.Errorf("while propagating bundle: %w", err)
			}
			glog.Infof("Traced %d rays to z=%g, %d reported failures", len(rays), plane, failed)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# z=%g\n# x y\n", plane)
			for _, r := range rays {
				if r.Terminated() || r.Len() != trace.Len()+1 {
					continue
				}
				if x, y, ok := r.PositionAtFrom(plane, r.Len()-2); ok {
					fmt.Fprintf(out, "%.9g %.9g\n", x, y)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&lensName, "lens", "biconvex", "Preset name, prescription name or path to a .yaml prescription")
	cmd.Flags().Float64Var(&plane, "plane", 0, "Axial position of the measurement plane (default: paraxial focus)")
	cmd.Flags().Float64Var(&radius, "radius", 5e-3, "Bundle radius in metres")
	cmd.Flags().IntVar(&rings, "rings", 6, "Number of concentric rings")
	cmd.Flags().IntVar(&raysPerRing, "per-ring", 6, "Rays in the innermost ring")
	cmd.Flags().Float64Var(&wavelength, "wavelength", 0, "Wavelength tag in metres (0 for untagged)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Propagation goroutines (0 = one per CPU)")
	return cmd
}

func newFocusCommand() *cobra.Command {
	var lensName string

	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Find the paraxial focus of a lens",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, info, err := loadLens(lensName)
			if err != nil {
				return err
			}
			a := newAnalyzer(0)
			focus, err := a.FindFocus(sys)
			if err != nil {
				return fmt.Errorf("while finding focus: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: focus z=%.9g (paraxial scale %g)\n", info.DisplayName, focus, sys.ParaxialScale())
			return nil
		},
	}

	cmd.Flags().StringVar(&lensName, "lens", "biconvex", "Preset name, prescription name or path to a .yaml prescription")
	return cmd
}

func newSpotCommand() *cobra.Command {
	var (
		lensName string
		radius   float64
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "spot",
		Short: "Measure the RMS spot size just past the paraxial focus",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, info, err := loadLens(lensName)
			if err != nil {
				return err
			}
			a := newAnalyzer(workers)
			focus, err := a.FindFocus(sys)
			if err != nil {
				return fmt.Errorf("while finding focus: %w", err)
			}
			stats, err := a.SpotStats(sys, radius, focus)
			if err != nil {
				return fmt.Errorf("while measuring spot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: focus z=%.9g %v\n", info.DisplayName, focus, stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&lensName, "lens", "biconvex", "Preset name, prescription name or path to a .yaml prescription")
	cmd.Flags().Float64Var(&radius, "radius", 5e-3, "Bundle radius in metres")
	cmd.Flags().IntVar(&workers, "workers", 0, "Propagation goroutines (0 = one per CPU)")
	return cmd
}

func newOptimizeCommand() *cobra.Command {
	var (
		focus   float64
		lo, hi  float64
		radius  float64
		samples int
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Find the singlet front curvature with the smallest spot at a fixed focus",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := optimize.DefaultConfig()
			config.Radius = radius
			o := optimize.NewOptimizer(optimize.DefaultSinglet(), nil, config, glogLogger{})
			out := cmd.OutOrStdout()

			if samples > 0 {
				results, err := o.Sweep(cmd.Context(), lo, hi, samples, focus)
				if err != nil {
					return fmt.Errorf("while sweeping curvatures: %w", err)
				}
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "C1\tC2\tRMS")
				for _, r := range results {
					if r.Valid {
						fmt.Fprintf(w, "%.6g\t%.6g\t%.6g\n", r.C1, r.C2, r.RMS)
					} else {
						fmt.Fprintf(w, "%.6g\t-\t-\n", r.C1)
					}
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			best, err := o.Minimize(lo, hi, focus)
			if err != nil {
				return fmt.Errorf("while minimising spot size: %w", err)
			}
			fmt.Fprintf(out, "best: c1=%.6g c2=%.6g rms=%.6g\n", best.C1, best.C2, best.RMS)
			return nil
		},
	}

	cmd.Flags().Float64Var(&focus, "focus", 0.2, "Target focus z in metres")
	cmd.Flags().Float64Var(&lo, "min", 0, "Lowest front curvature to consider")
	cmd.Flags().Float64Var(&hi, "max", 40, "Highest front curvature to consider")
	cmd.Flags().Float64Var(&radius, "radius", 10e-3, "Bundle radius in metres")
	cmd.Flags().IntVar(&samples, "sweep", 0, "Also print this many evenly spaced samples of the objective")
	return cmd
}

func main() {
	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		glog.Flush()
		os.Exit(1)
	}
}
