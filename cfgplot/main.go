package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/decibelcooper/cfgplot"
	"github.com/decibelcooper/cfgplot/config"
	"github.com/decibelcooper/cfgplot/loader"
	"github.com/decibelcooper/cfgplot/pipeline"
	"github.com/decibelcooper/cfgplot/render"
	"github.com/decibelcooper/cfgplot/report"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// usageError marks errors in the command line itself.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

type options struct {
	config     string
	format     string
	jobs       int
	ratioRange cfgplot.FloatList
	profile    bool
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := options{ratioRange: cfgplot.FloatList{Array: []float64{0, 2}}}

	cmd := &cobra.Command{
		Use:   "cfgplot",
		Short: "Plot ROOT tree branches for several processes from a YAML configuration",
		Long: `cfgplot reads the processes and variables listed in a YAML configuration,
applies the global and per-process selections, and writes one figure per
variable comparing every process, with the ratio to the first process below.

Figures are written to Output/<OutDir>/<variable>.<format>.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return &usageError{err}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(opts.ratioRange.Array) != 2 {
				return &usageError{fmt.Errorf("--ratio-range needs two values, got %q", opts.ratioRange.String())}
			}
			if lo, hi := opts.ratioRange.Array[0], opts.ratioRange.Array[1]; !(hi > lo) {
				return &usageError{fmt.Errorf("--ratio-range %g,%g is empty", lo, hi)}
			}
			if opts.jobs < 1 {
				return &usageError{fmt.Errorf("--jobs must be at least 1")}
			}
			if opts.profile {
				defer profile.Start(profile.ProfilePath(".")).Stop()
			}
			return run(cmd.Context(), opts, stdout)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	flags := cmd.Flags()
	flags.StringVarP(&opts.config, "config", "c", config.DefaultFile, "configuration file")
	flags.StringVarP(&opts.format, "format", "f", "pdf", fmt.Sprintf("output format %v", render.Formats))
	flags.IntVarP(&opts.jobs, "jobs", "j", 1, "number of processes loaded concurrently")
	flags.Var(&opts.ratioRange, "ratio-range", "y range of the ratio panel as lo,hi")
	flags.BoolVar(&opts.profile, "profile", false, "write a CPU profile to the working directory")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return render.Formats, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	rep := report.New(stdout)

	rep.Infof("Reading configuration %s", opts.config)
	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}

	paths, err := pipeline.Run(ctx, cfg, pipeline.Options{
		Reader:     loader.ROOTReader{},
		Reporter:   rep,
		Format:     opts.format,
		Jobs:       opts.jobs,
		RatioRange: [2]float64{opts.ratioRange.Array[0], opts.ratioRange.Array[1]},
	})
	if err != nil {
		return err
	}
	rep.OKf("Done: %d plots", len(paths))
	return nil
}

// execute runs the command with args and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "Error: %v\n\n%s", err, cmd.UsageString())
		return exitUsage
	}
	report.New(stderr).Failf("%v", err)
	return exitFail
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
