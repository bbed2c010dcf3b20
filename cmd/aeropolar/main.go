// Package main provides the aeropolar CLI entry point.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"aeropolar/cli"
)

var (
	// Global flags
	configFile string
	bridgeRoot string
	modelSize  string
	verbose    bool
)

func globalOpts() cli.Options {
	return cli.Options{
		ConfigFile: configFile,
		BridgeRoot: bridgeRoot,
		ModelSize:  modelSize,
		Verbose:    verbose,
	}
}

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "aeropolar",
		Short: "Airfoil polar computation through the NeuralFoil bridge",
		Long: `Compute, cache and query viscous airfoil polars through an
embedded bridge to the NeuralFoil model.

Typical flow:
- foil: generate a NACA section as a .dat file
- analyze: run target lift coefficients through the bridge
- mesh: precompute a polar mesh across a Reynolds range
- query: interpolate a stored mesh at an operating point
- serve: expose foils and meshes over HTTP for optimization scripts`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&bridgeRoot, "bridge-root", "", "Bridge installation directory (default ~/.aeropolar)")
	rootCmd.PersistentFlags().StringVar(&modelSize, "model-size", "", "Model tier: xxsmall..xxxlarge")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	// Add commands
	rootCmd.AddCommand(foilCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(meshCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func foilCmd() *cobra.Command {
	var nPoints int
	var outPath string

	cmd := &cobra.Command{
		Use:   "foil [digits]",
		Short: "Generate a NACA 4- or 5-digit section as a Selig .dat file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				outPath = fmt.Sprintf("naca%s.dat", args[0])
			}
			return cli.GenerateFoil(args[0], nPoints, outPath)
		},
	}

	cmd.Flags().IntVarP(&nPoints, "points", "n", 81, "Number of coordinate points")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default naca<digits>.dat)")

	return cmd
}

// tripFlag returns a pointer to the flag's value only when the flag was
// given on the command line, so an explicit zero (transition forced at
// the leading edge) is distinguishable from "use the configured
// default".
func tripFlag(cmd *cobra.Command, name string, v *float64) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return v
}

func analyzeCmd() *cobra.Command {
	var opts cli.AnalyzeOptions
	var ncrit, xtrTop, xtrBot float64

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a foil at target lift coefficients",
		Long: `Run a list of target lift coefficients through the bridge at the
given Reynolds numbers and print the resulting table. Pass one --re
value for all targets, or one per target.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.NCrit = tripFlag(cmd, "ncrit", &ncrit)
			opts.XTrTop = tripFlag(cmd, "xtr-top", &xtrTop)
			opts.XTrBot = tripFlag(cmd, "xtr-bot", &xtrBot)
			return cli.Analyze(cmd.Context(), opts, globalOpts())
		},
	}

	cmd.Flags().StringVarP(&opts.FoilPath, "foil", "f", "", "Foil .dat file")
	cmd.Flags().Float64SliceVar(&opts.Cl, "cl", nil, "Target lift coefficients")
	cmd.Flags().Float64SliceVar(&opts.Re, "re", nil, "Reynolds numbers")
	cmd.Flags().Float64Var(&ncrit, "ncrit", 0, "Critical amplification factor (default from config)")
	cmd.Flags().Float64Var(&xtrTop, "xtr-top", 0, "Forced top transition location (default from config)")
	cmd.Flags().Float64Var(&xtrBot, "xtr-bot", 0, "Forced bottom transition location (default from config)")
	cmd.MarkFlagRequired("foil")
	cmd.MarkFlagRequired("cl")
	cmd.MarkFlagRequired("re")

	return cmd
}

func meshCmd() *cobra.Command {
	var opts cli.MeshOptions
	var ncrit, xtrTop, xtrBot float64

	cmd := &cobra.Command{
		Use:   "mesh",
		Short: "Precompute a polar mesh across a Reynolds range",
		Long: `Generate polars at 16 log-spaced Reynolds numbers between --re-min
and --re-max, sweeping angle of attack in 0.25 degree steps. Multiple
--foil files are generated concurrently.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.NCrit = tripFlag(cmd, "ncrit", &ncrit)
			opts.XTrTop = tripFlag(cmd, "xtr-top", &xtrTop)
			opts.XTrBot = tripFlag(cmd, "xtr-bot", &xtrBot)
			return cli.BuildMesh(cmd.Context(), opts, globalOpts())
		},
	}

	cmd.Flags().StringSliceVarP(&opts.FoilPaths, "foil", "f", nil, "Foil .dat file(s)")
	cmd.Flags().Float64Var(&opts.ReMin, "re-min", 0, "Lower Reynolds bound")
	cmd.Flags().Float64Var(&opts.ReMax, "re-max", 0, "Upper Reynolds bound")
	cmd.Flags().Float64Var(&opts.AlphaMin, "alpha-min", -5, "Lower angle of attack, degrees")
	cmd.Flags().Float64Var(&opts.AlphaMax, "alpha-max", 15, "Upper angle of attack, degrees")
	cmd.Flags().Float64Var(&ncrit, "ncrit", 0, "Critical amplification factor (default from config)")
	cmd.Flags().Float64Var(&xtrTop, "xtr-top", 0, "Forced top transition location (default from config)")
	cmd.Flags().Float64Var(&xtrBot, "xtr-bot", 0, "Forced bottom transition location (default from config)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Persist the generated mesh")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "Database path (default from config)")
	cmd.MarkFlagRequired("foil")
	cmd.MarkFlagRequired("re-min")
	cmd.MarkFlagRequired("re-max")

	return cmd
}

func queryCmd() *cobra.Command {
	var opts cli.QueryOptions

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Interpolate a stored mesh at an operating point",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Query(cmd.Context(), opts, globalOpts())
		},
	}

	cmd.Flags().StringVar(&opts.FoilName, "foil", "", "Stored foil name")
	cmd.Flags().Float64Var(&opts.Re, "re", 0, "Reynolds number")
	cmd.Flags().Float64Var(&opts.Cl, "cl", 0, "Lift coefficient")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "Database path (default from config)")
	cmd.MarkFlagRequired("foil")
	cmd.MarkFlagRequired("re")
	cmd.MarkFlagRequired("cl")

	return cmd
}

func serveCmd() *cobra.Command {
	var opts cli.ServeOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for external optimization scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cli.Serve(ctx, opts, globalOpts())
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default from config)")

	return cmd
}
