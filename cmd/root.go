package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/queuenet/sim/network"
	"github.com/inference-sim/queuenet/sim/workload"
)

var (
	// CLI flags
	configPath           string  // Path to the YAML network spec
	seed                 int64   // Seed override
	horizon              float64 // Simulation end time override (virtual time units)
	releaseBeforeRouting bool    // Free server slots before routing, for every node
	eventsPath           string  // Where to write the event log ("-" for stdout)
	eventsFormat         string  // Event log format: jsonl or csv
	summaryFormat        string  // Summary format: json or table
	logLevel             string  // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "queuenet",
	Short: "Discrete-event simulator for networks of multi-server queues",
}

// runOptions is the resolved configuration of one `run` invocation.
type runOptions struct {
	ConfigPath     string
	Seed           *int64
	Horizon        *float64
	ReleaseEarly   bool
	EventsPath     string
	EventsFormat   string
	SummaryFormat  string
	PrintSummaries bool
	Color          bool
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a queueing-network simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		opts := runOptions{
			ConfigPath:     configPath,
			ReleaseEarly:   releaseBeforeRouting,
			EventsPath:     eventsPath,
			EventsFormat:   eventsFormat,
			SummaryFormat:  summaryFormat,
			PrintSummaries: true,
			Color:          !color.NoColor && eventsPath != "-",
		}
		if cmd.Flags().Changed("seed") {
			opts.Seed = &seed
		}
		if cmd.Flags().Changed("horizon") {
			opts.Horizon = &horizon
		}

		if err := runSimulation(opts, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// validateCmd checks a network spec without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a network spec",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		spec, err := loadSpec(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := spec.Validate(); err != nil {
			logrus.Fatalf("Invalid network spec: %v", err)
		}
		fmt.Printf("%s: %s (%d nodes, horizon=%v)\n", configPath, color.GreenString("OK"), len(spec.Nodes), spec.Horizon)
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

func loadSpec(path string) (*workload.NetworkSpec, error) {
	if path == "" {
		return nil, fmt.Errorf("network spec not provided; use --config")
	}
	return workload.LoadNetworkSpec(path)
}

// runSimulation builds the network described by opts, runs it to its horizon,
// writes the event log and prints the per-node summary to stdout.
func runSimulation(opts runOptions, stdout io.Writer) error {
	spec, err := loadSpec(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Seed != nil {
		spec.Seed = *opts.Seed
	}
	if opts.Horizon != nil {
		spec.Horizon = *opts.Horizon
	}
	if opts.ReleaseEarly {
		spec.ReleaseBeforeRouting = true
		for i := range spec.Nodes {
			spec.Nodes[i].ReleaseBeforeRouting = nil
		}
	}
	if opts.EventsFormat != "jsonl" && opts.EventsFormat != "csv" {
		return fmt.Errorf("unknown events format %q; valid: jsonl, csv", opts.EventsFormat)
	}
	if opts.SummaryFormat == "" {
		opts.SummaryFormat = "json"
	}
	if opts.SummaryFormat != "json" && opts.SummaryFormat != "table" {
		return fmt.Errorf("unknown summary format %q; valid: json, table", opts.SummaryFormat)
	}

	net, err := network.Build(spec)
	if err != nil {
		return err
	}
	defer net.Close()

	logrus.Infof("Starting simulation: %d nodes, seed=%d, horizon=%v", len(spec.Nodes), spec.Seed, spec.Horizon)
	startTime := time.Now()
	if err := net.Run(spec.Horizon); err != nil {
		return err
	}
	logrus.Infof("Simulated %v time units in %v", spec.Horizon, time.Since(startTime))

	if err := writeEvents(net, opts, stdout); err != nil {
		return err
	}
	if opts.PrintSummaries {
		return printSummary(stdout, net.Summary(), opts.SummaryFormat, opts.Color)
	}
	return nil
}

func writeEvents(net *network.Network, opts runOptions, stdout io.Writer) error {
	if opts.EventsPath == "" {
		return nil
	}
	var w io.Writer = stdout
	if opts.EventsPath != "-" {
		f, err := os.Create(opts.EventsPath)
		if err != nil {
			return fmt.Errorf("creating event log: %w", err)
		}
		defer f.Close()
		w = f
	}
	if opts.EventsFormat == "csv" {
		return net.Events().WriteCSV(w)
	}
	return net.Events().WriteJSONLines(w)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML network spec")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().Int64Var(&seed, "seed", 0, "Seed override for all random draws")
	runCmd.Flags().Float64Var(&horizon, "horizon", 0, "Simulation end time override (virtual time units)")
	runCmd.Flags().BoolVar(&releaseBeforeRouting, "release-before-routing", false, "Free each server slot before routing instead of after the downstream visit")
	runCmd.Flags().StringVar(&eventsPath, "events", "", "Write the event log to this file (\"-\" for stdout)")
	runCmd.Flags().StringVar(&eventsFormat, "format", "jsonl", "Event log format (jsonl, csv)")
	runCmd.Flags().StringVar(&summaryFormat, "summary", "json", "Summary format (json, table)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
