// Package config holds the plotting configuration read from YAML.
package config

import (
	"fmt"
	"strings"

	"github.com/decibelcooper/cfgplot/field"
)

// DefaultDataProcess is the process treated as real data unless
// DataProcess says otherwise.
const DefaultDataProcess = "Data"

// RegularBinning is the Binning value asking for Nbins equal-width bins.
const RegularBinning = "-99"

// Config is the full plotting configuration.
type Config struct {
	InputDirectory string     `koanf:"InputDirectory"`
	TreeName       string     `koanf:"TreeName"`
	MCWeight       string     `koanf:"mc_weight"`
	OutDir         string     `koanf:"OutDir"`
	Label          string     `koanf:"Label"`
	Lumi           float64    `koanf:"Lumi"`
	Normalise      bool       `koanf:"Normalise"`
	SelectionCuts  string     `koanf:"SelectionCuts"`
	DataProcess    string     `koanf:"DataProcess"`
	Variables      []Variable `koanf:"Variables"`
	Processes      Processes  `koanf:"Processes"`
}

// Variable describes one plotted branch and its binning.
type Variable struct {
	Branch  string  `koanf:"branch_name"`
	Title   string  `koanf:"Title"`
	Nbins   int     `koanf:"Nbins"`
	Low     float64 `koanf:"LowerRange"`
	High    float64 `koanf:"UpperRange"`
	Binning string  `koanf:"Binning"` // RegularBinning, empty, or comma-separated edges
	Index   *int    `koanf:"Index"`   // element of a vector branch; negative or nil for scalars
}

// Processes are parallel lists, one entry per process.
type Processes struct {
	Name      []string  `koanf:"Name"`
	File      []string  `koanf:"File"`
	Selection []string  `koanf:"Selection"`
	Rescale   []float64 `koanf:"Rescale"`
}

// Process is one entry of Processes.
type Process struct {
	Name      string
	File      string
	Selection string
	Rescale   float64
}

// Ref returns the vector element the variable plots, either from a
// name[index] branch name or from a non-negative Index.
func (v Variable) Ref() (field.Ref, bool) {
	if ref, ok := field.ParseRef(v.Branch); ok {
		return ref, true
	}
	if v.Index != nil && *v.Index >= 0 {
		return field.Ref{Name: strings.TrimSpace(v.Branch), Index: *v.Index}, true
	}
	return field.Ref{}, false
}

// BranchName is the branch read from the input files.
func (v Variable) BranchName() string {
	if ref, ok := v.Ref(); ok {
		return ref.Name
	}
	return strings.TrimSpace(v.Branch)
}

// Column is the table column holding the plotted values once vector
// branches have been flattened.
func (v Variable) Column() string {
	if ref, ok := v.Ref(); ok {
		return ref.FlatName()
	}
	return strings.TrimSpace(v.Branch)
}

// IsRegular reports whether the variable uses Nbins equal-width bins.
func (v Variable) IsRegular() bool {
	b := strings.TrimSpace(v.Binning)
	return b == "" || b == RegularBinning
}

// ProcessList zips the parallel process lists. Call ApplyDefaults first.
func (c *Config) ProcessList() []Process {
	procs := make([]Process, len(c.Processes.Name))
	for i, name := range c.Processes.Name {
		procs[i] = Process{
			Name:      name,
			File:      c.Processes.File[i],
			Selection: c.Processes.Selection[i],
			Rescale:   c.Processes.Rescale[i],
		}
	}
	return procs
}

// IsData reports whether name is the real-data process.
func (c *Config) IsData(name string) bool {
	return name == c.DataProcess
}

// ApplyDefaults fills optional settings.
func (c *Config) ApplyDefaults() {
	if c.DataProcess == "" {
		c.DataProcess = DefaultDataProcess
	}
	for len(c.Processes.Selection) < len(c.Processes.Name) {
		c.Processes.Selection = append(c.Processes.Selection, "")
	}
	for len(c.Processes.Rescale) < len(c.Processes.Name) {
		c.Processes.Rescale = append(c.Processes.Rescale, 1)
	}
}

// Validate checks the settings the pipeline relies on.
func (c *Config) Validate() error {
	n := len(c.Processes.Name)
	if n == 0 {
		return fmt.Errorf("no processes configured")
	}
	if len(c.Processes.File) != n {
		return fmt.Errorf("Processes: %d names but %d files", n, len(c.Processes.File))
	}
	if len(c.Processes.Selection) > n {
		return fmt.Errorf("Processes: %d names but %d selections", n, len(c.Processes.Selection))
	}
	if len(c.Processes.Rescale) > n {
		return fmt.Errorf("Processes: %d names but %d rescale factors", n, len(c.Processes.Rescale))
	}

	seen := make(map[string]bool, n)
	for _, name := range c.Processes.Name {
		if name == "" {
			return fmt.Errorf("Processes: empty process name")
		}
		if seen[name] {
			return fmt.Errorf("Processes: duplicate process %q", name)
		}
		seen[name] = true
	}

	if len(c.Variables) == 0 {
		return fmt.Errorf("no variables configured")
	}
	for i, v := range c.Variables {
		if strings.TrimSpace(v.Branch) == "" {
			return fmt.Errorf("Variables[%d]: empty branch_name", i)
		}
		if strings.ContainsAny(v.Branch, "[]") {
			if _, ok := field.ParseRef(v.Branch); !ok {
				return fmt.Errorf("Variables[%d]: malformed vector element %q", i, v.Branch)
			}
		}
	}
	return nil
}

// MissingKeyError reports a required key absent from the configuration file.
type MissingKeyError struct {
	Key  string
	Path string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s: missing required key %q", e.Path, e.Key)
}
