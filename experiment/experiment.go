// Package experiment wraps the experiment-level operations of the platform:
// listing experiments, their factors and factor levels, the variables with
// associated data, the facilities in use, and the scientific object types.
package experiment

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	silexplorer "github.com/phenotools/silexplorer"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/urimap"
)

const listQuery = `
query list_experiments($filter: FilterExperiment) {
    Experiment(filter: $filter) {
        _id
        label
        startDate
        endDate
        hasSpecies {
            label
        }
        hasProject {
            label
        }
    }
}`

type labeled struct {
	Label string `json:"label"`
}

type record struct {
	ID         string    `json:"_id"`
	Label      string    `json:"label"`
	StartDate  string    `json:"startDate"`
	EndDate    string    `json:"endDate"`
	HasSpecies []labeled `json:"hasSpecies"`
	HasProject []labeled `json:"hasProject"`
}

// ListOptions filter the experiment listing. URIs filter server-side;
// names and the active date filter the returned rows.
type ListOptions struct {
	SpeciesURI  string
	ProjectURI  string
	ActiveDate  string // YYYY-MM-DD; keeps experiments running on that day
	SpeciesName string
	ProjectName string
}

// List retrieves experiments, flattening species and projects into
// comma-joined label cells. Returned pairs are registered in table.
func List(ctx context.Context, c *silexplorer.Client, table *urimap.Table, opts ListOptions) (*frame.Frame, error) {
	filter := map[string]interface{}{}
	if opts.SpeciesURI != "" {
		filter["hasSpecies"] = opts.SpeciesURI
	}
	if opts.ProjectURI != "" {
		filter["hasProject"] = opts.ProjectURI
	}

	var out struct {
		Experiment []record `json:"Experiment"`
	}
	err := c.GraphQL(ctx, listQuery, map[string]interface{}{"filter": filter}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "listing experiments")
	}

	var activeDate time.Time
	if opts.ActiveDate != "" {
		activeDate, err = time.Parse("2006-01-02", opts.ActiveDate)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing active date '%v'", opts.ActiveDate)
		}
	}

	f := frame.New("URI", "Name", "startDate", "endDate", "hasSpecies", "hasProject")
	for _, e := range out.Experiment {
		if !activeDate.IsZero() && !activeOn(e, activeDate) {
			continue
		}
		species := joinLabels(e.HasSpecies)
		project := joinLabels(e.HasProject)
		if opts.SpeciesName != "" && !containsFold(species, opts.SpeciesName) {
			continue
		}
		if opts.ProjectName != "" && !containsFold(project, opts.ProjectName) {
			continue
		}
		r := f.Append()
		f.Set(r, "URI", e.ID)
		f.Set(r, "Name", e.Label)
		f.Set(r, "startDate", e.StartDate)
		f.Set(r, "endDate", e.EndDate)
		f.Set(r, "hasSpecies", species)
		f.Set(r, "hasProject", project)
	}

	Register(table, f)
	return f, nil
}

func activeOn(e record, d time.Time) bool {
	start, err := ParseDate(e.StartDate)
	if err != nil {
		return false
	}
	end, err := ParseDate(e.EndDate)
	if err != nil {
		return false
	}
	return !start.After(d) && !end.Before(d)
}

func joinLabels(ls []labeled) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = l.Label
	}
	return strings.Join(parts, ", ")
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// ParseDate accepts the two date encodings the platform serves.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("unsupported date format: %v", s)
}

const idQuery = `
query experimentID($id: [ID]) {
  Experiment(filter: {_id: $id}) {
    label
    startDate
  }
}`

// DataSourceID resolves an experiment name to the data-source identifier
// the measurement queries expect: EXP_<label>_<start date>, with dashes in
// the label and the date both turned into underscores.
func DataSourceID(ctx context.Context, c *silexplorer.Client, table *urimap.Table, name string) (string, error) {
	uri, err := table.URIByName(name)
	if err != nil {
		return "", errors.Wrap(err, "resolving experiment name")
	}
	var out struct {
		Experiment []struct {
			Label     string `json:"label"`
			StartDate string `json:"startDate"`
		} `json:"Experiment"`
	}
	err = c.GraphQL(ctx, idQuery, map[string]interface{}{"id": uri}, &out)
	if err != nil {
		return "", errors.Wrap(err, "fetching experiment")
	}
	if len(out.Experiment) == 0 {
		return "", errors.Errorf("no experiment found for '%v'", name)
	}
	e := out.Experiment[0]
	label := strings.ReplaceAll(e.Label, "-", "_")
	date := "Unknown_Date"
	if e.StartDate != "" {
		t, err := ParseDate(e.StartDate)
		if err != nil {
			return "", err
		}
		date = t.Format("2006_01_02")
	}
	return "EXP_" + label + "_" + date, nil
}

// Register inserts a frame's URI/Name pairs into the table. A nil table
// just skips registration.
func Register(table *urimap.Table, f *frame.Frame) {
	if table == nil || f.Len() == 0 {
		return
	}
	table.Insert(f.URINamePairs())
}
