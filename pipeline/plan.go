// Package pipeline turns a configuration into plots: it works out which
// branches each process needs, loads and selects the events, fills one
// histogram per process and variable and saves the figures.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/decibelcooper/cfgplot/config"
	"github.com/decibelcooper/cfgplot/field"
	"github.com/decibelcooper/cfgplot/histo"
	"github.com/decibelcooper/cfgplot/loader"
	"github.com/decibelcooper/cfgplot/render"
	"github.com/decibelcooper/cfgplot/selection"
)

// Variable is a configured variable with its column and binning resolved.
type Variable struct {
	Branch  string // as configured, e.g. jet_pt[0]
	Title   string
	Column  string // flattened column holding the values
	Binning histo.Binning
}

// Process is a configured process with its selection and scale resolved.
type Process struct {
	Name    string
	Pattern string  // file name prefix below the input directory
	Cut     string  // global and process selections combined
	Scale   float64 // lumi*rescale, or rescale alone for data
	Data    bool
}

// Plan is everything a run needs to know before reading any event. It is
// not modified once built, so it can be shared by concurrent loads.
type Plan struct {
	InputDirectory string
	Tree           string
	Weight         string
	OutDir         string
	Header         string
	Normalise      bool
	Variables      []Variable
	Processes      []Process

	varFields []string    // branches plotted
	selFields []string    // branches used by any selection
	refs      []field.Ref // vector elements to flatten
}

// NewPlan resolves the fields, selections and binnings
// of a run. Syntax errors in selections and bad binnings are reported here.
func NewPlan(cfg *config.Config) (*Plan, error) {
	p := &Plan{
		InputDirectory: cfg.InputDirectory,
		Tree:           cfg.TreeName,
		Weight:         strings.TrimSpace(cfg.MCWeight),
		OutDir:         cfg.OutDir,
		Header:         render.Header(cfg.Lumi, cfg.Label),
		Normalise:      cfg.Normalise,
	}

	var vars, sels []string
	for _, v := range cfg.Variables {
		b, err := histo.ForVariable(v)
		if err != nil {
			return nil, err
		}
		title := v.Title
		if title == "" {
			title = v.Column()
		}
		p.Variables = append(p.Variables, Variable{
			Branch:  v.Branch,
			Title:   title,
			Column:  v.Column(),
			Binning: b,
		})
		if ref, ok := v.Ref(); ok {
			vars = append(vars, ref.String())
			continue
		}
		vars = append(vars, v.BranchName())
	}

	for _, proc := range cfg.ProcessList() {
		cut := selection.Combine(cfg.SelectionCuts, proc.Selection)
		ids, err := selection.Identifiers(cut)
		if err != nil {
			return nil, fmt.Errorf("process %q: %w", proc.Name, err)
		}
		sels = append(sels, ids...)

		scale := proc.Rescale
		data := cfg.IsData(proc.Name)
		if !data {
			scale *= cfg.Lumi
		}
		p.Processes = append(p.Processes, Process{
			Name:    proc.Name,
			Pattern: proc.File,
			Cut:     cut,
			Scale:   scale,
			Data:    data,
		})
	}

	bare, ix := field.Resolve(append(vars, sels...))
	p.varFields = bare[:len(vars)]
	p.selFields = bare[len(vars):]
	p.refs = ix.Refs()
	return p, nil
}

// Fields lists the branches read for proc without repeats: the variables,
// the event weight for simulated processes, then every selection's
// branches. All processes read the branches of all selections.
func (p *Plan) Fields(proc Process) []string {
	fields := append([]string(nil), p.varFields...)
	if p.Weight != "" && !proc.Data {
		fields = append(fields, p.Weight)
	}
	return field.Unique(append(fields, p.selFields...))
}

// Refs lists the vector elements flattened after loading.
func (p *Plan) Refs() []field.Ref {
	return append([]field.Ref(nil), p.refs...)
}

// Jobs expands each process's file pattern with glob and returns one load
// job per process, in configuration order.
func (p *Plan) Jobs(glob func(dir, pattern string) ([]string, error)) ([]loader.Job, error) {
	jobs := make([]loader.Job, len(p.Processes))
	for i, proc := range p.Processes {
		files, err := glob(p.InputDirectory, proc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("process %q: %w", proc.Name, err)
		}
		jobs[i] = loader.Job{
			Process: proc.Name,
			Files:   files,
			Tree:    p.Tree,
			Fields:  p.Fields(proc),
			Refs:    p.Refs(),
		}
	}
	return jobs, nil
}
