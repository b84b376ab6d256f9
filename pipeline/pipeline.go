package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/decibelcooper/cfgplot/config"
	"github.com/decibelcooper/cfgplot/histo"
	"github.com/decibelcooper/cfgplot/loader"
	"github.com/decibelcooper/cfgplot/render"
	"github.com/decibelcooper/cfgplot/report"
	"github.com/decibelcooper/cfgplot/selection"
	"github.com/decibelcooper/cfgplot/table"
)

// Options controls how a run reads and writes.
type Options struct {
	Reader     loader.Reader
	Reporter   *report.Reporter // nil prints nothing
	Format     string           // output extension, pdf when empty
	Jobs       int              // processes loaded concurrently
	RatioRange [2]float64       // [0, 2] when unset

	// Glob lists the files of a process; loader.Files when nil.
	Glob func(dir, pattern string) ([]string, error)
}

// Run plots every configured variable and returns the paths written.
func Run(ctx context.Context, cfg *config.Config, opts Options) ([]string, error) {
	rep := opts.Reporter
	if rep == nil {
		rep = report.Discard()
	}
	if opts.Reader == nil {
		return nil, fmt.Errorf("no event reader")
	}
	format := opts.Format
	if format == "" {
		format = "pdf"
	}
	if !slices.Contains(render.Formats, format) {
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	ratioRange := opts.RatioRange
	if ratioRange == [2]float64{} {
		ratioRange = [2]float64{0, 2}
	}
	glob := opts.Glob
	if glob == nil {
		glob = loader.Files
	}

	plan, err := NewPlan(cfg)
	if err != nil {
		return nil, err
	}

	rep.Infof("Finding input files in %s", plan.InputDirectory)
	jobs, err := plan.Jobs(glob)
	if err != nil {
		return nil, err
	}

	rep.Infof("Loading %d processes", len(jobs))
	tables, err := loader.LoadAll(ctx, opts.Reader, jobs, opts.Jobs)
	if err != nil {
		return nil, err
	}
	for i, job := range jobs {
		rep.OKf("Loaded %s: %d events from %d files", job.Process, tables[i].Len(), len(job.Files))
	}

	rep.Infof("Applying selections")
	selected, err := plan.Select(tables)
	if err != nil {
		return nil, err
	}
	for i, proc := range plan.Processes {
		rep.OKf("%s: %d of %d events selected", proc.Name, selected[i].Len(), tables[i].Len())
	}

	var paths []string
	for _, v := range plan.Variables {
		hists, err := plan.Build(v, selected)
		if err != nil {
			return paths, err
		}
		for i, h := range hists {
			if n := h.Skipped(); n > 0 {
				rep.Warnf("%s: %d events of %s have no value or weight", v.Column, n, plan.Processes[i].Name)
			}
		}

		path := render.OutputPath(plan.OutDir, v.Column, format)
		if err := render.Save(plan.Figure(v, hists, ratioRange), path); err != nil {
			return paths, fmt.Errorf("could not plot %q: %w", v.Column, err)
		}
		rep.OKf("Saved %s", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// Select applies each process's combined selection to its table. tables
// follows the order of p.Processes.
func (p *Plan) Select(tables []*table.Table) ([]*table.Table, error) {
	if len(tables) != len(p.Processes) {
		return nil, fmt.Errorf("%d tables for %d processes", len(tables), len(p.Processes))
	}
	out := make([]*table.Table, len(tables))
	for i, proc := range p.Processes {
		pred, err := selection.CompileString(proc.Cut, tables[i])
		if err != nil {
			return nil, fmt.Errorf("process %q: %w", proc.Name, err)
		}
		out[i], err = pred.Apply(tables[i])
		if err != nil {
			return nil, fmt.Errorf("process %q: %w", proc.Name, err)
		}
	}
	return out, nil
}

// Build fills the histogram of v for every process. Simulated events are
// weighted by the event weight, if any, times the process scale.
func (p *Plan) Build(v Variable, tables []*table.Table) ([]*histo.Hist, error) {
	if len(tables) != len(p.Processes) {
		return nil, fmt.Errorf("%d tables for %d processes", len(tables), len(p.Processes))
	}
	hists := make([]*histo.Hist, len(tables))
	for i, proc := range p.Processes {
		values, err := tables[i].Scalars(v.Column)
		if err != nil {
			return nil, fmt.Errorf("process %q: %w", proc.Name, err)
		}

		var weights []float64
		if p.Weight != "" && !proc.Data {
			weights, err = tables[i].Scalars(p.Weight)
			if err != nil {
				return nil, fmt.Errorf("process %q: event weight: %w", proc.Name, err)
			}
		}

		h := histo.New(v.Binning)
		if err := h.FillN(values, weights, proc.Scale); err != nil {
			return nil, fmt.Errorf("process %q: %w", proc.Name, err)
		}
		hists[i] = h
	}
	return hists, nil
}

// Figure describes the plot of v from its histograms.
func (p *Plan) Figure(v Variable, hists []*histo.Hist, ratioRange [2]float64) render.Figure {
	fig := render.Figure{
		XLabel:     v.Title,
		Header:     p.Header,
		Normalise:  p.Normalise,
		RatioRange: ratioRange,
	}
	for i, proc := range p.Processes {
		fig.Series = append(fig.Series, render.Series{
			Name: proc.Name,
			Data: proc.Data,
			Hist: hists[i],
		})
	}
	return fig
}
