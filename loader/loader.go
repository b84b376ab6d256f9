// Package loader reads the events of each configured process into a table.
package loader

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/decibelcooper/cfgplot/field"
	"github.com/decibelcooper/cfgplot/table"
)

// Reader reads named fields of a tree from a set of files. Fields missing
// from some or all of the files must not be an error.
type Reader interface {
	Read(ctx context.Context, files []string, tree string, fields []string) (*table.Table, error)
}

// Job describes the data to load for one process.
type Job struct {
	Process string
	Files   []string
	Tree    string
	Fields  []string    // branches to read, without vector subscripts
	Refs    []field.Ref // vector elements to flatten after reading
}

// Load reads the job's fields, flattens every vector element in Refs into
// its own scalar column and drops the vector columns.
func Load(ctx context.Context, r Reader, job Job) (*table.Table, error) {
	tbl, err := r.Read(ctx, job.Files, job.Tree, job.Fields)
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", job.Process, err)
	}

	var flattened []string
	for _, ref := range job.Refs {
		col := tbl.Column(ref.Name)
		if col == nil {
			// missing from every file; reported when the column is used
			continue
		}
		if _, err := tbl.Flatten(ref); err != nil {
			return nil, fmt.Errorf("process %q: %w", job.Process, err)
		}
		flattened = append(flattened, ref.Name)
	}
	tbl.Drop(flattened...)
	return tbl, nil
}

// LoadAll runs Load for every job, at most limit at a time (limit < 1 means
// one). Each table is owned by its job, so jobs share nothing.
func LoadAll(ctx context.Context, r Reader, jobs []Job, limit int) ([]*table.Table, error) {
	if limit < 1 {
		limit = 1
	}
	tables := make([]*table.Table, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			tbl, err := Load(ctx, r, job)
			if err != nil {
				return err
			}
			tables[i] = tbl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}
