// Package sciobject retrieves scientific objects: the experiment-scoped
// listing with its factor-level and germplasm wide pivot, the position
// history of single objects, and replicate grouping over the pivoted
// columns.
package sciobject

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	silexplorer "github.com/phenotools/silexplorer"
	"github.com/phenotools/silexplorer/experiment"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/urimap"
)

const listQuery = `
query ScientificObject($experience: [DataSource], $filter: FilterScientificObject) {
    ScientificObject(Experience: $experience, filter: $filter, inferred: true) {
        _id
        label
        _type
        hasFactorLevel {
            label
            hasFactor {
                label
            }
        }
        hasGermplasm {
            fromSpecies {
                _id
                label
            }
            fromVariety {
                _id
                label
            }
            fromAccession {
                _id
                label
            }
            label
            type
            _type(inferred: true)
        }
    }
}`

type idLabel struct {
	ID    string `json:"_id"`
	Label string `json:"label"`
}

type objectRecord struct {
	ID             string   `json:"_id"`
	Label          string   `json:"label"`
	Type           []string `json:"_type"`
	HasFactorLevel []struct {
		Label     string `json:"label"`
		HasFactor []struct {
			Label string `json:"label"`
		} `json:"hasFactor"`
	} `json:"hasFactorLevel"`
	HasGermplasm []struct {
		Label         string    `json:"label"`
		Type          []string  `json:"_type"`
		FromSpecies   []idLabel `json:"fromSpecies"`
		FromVariety   []idLabel `json:"fromVariety"`
		FromAccession []idLabel `json:"fromAccession"`
	} `json:"hasGermplasm"`
}

// Query selects scientific objects within one experiment.
type Query struct {
	Experiment     string // experiment name, resolved through the table
	TypeName       string // object type name, resolved through the table
	FactorLevelURI string // server-side factor level filter
	GermplasmURI   string // server-side germplasm filter

	// Post-filters applied to the pivoted frame.
	FactorLevels  []string // "Factor.Level" pairs
	GermplasmType string
	GermplasmName string
}

// ListOption is a functional option for List.
type ListOption func(o *listOptions)

type listOptions struct {
	log *zap.Logger
}

// OptLogger sets the logger used for skipped-filter warnings.
func OptLogger(log *zap.Logger) ListOption {
	return func(o *listOptions) {
		o.log = log
	}
}

// List retrieves scientific objects and pivots their factor levels and
// germplasm into wide columns: one column per factor name, comma-joined
// level labels, and numbered Germplasm_type_N / Germplasm_N / Species_N /
// Variety_N / Accession_N columns. The pivoted frame is then run through
// the post-filters and stripped of all-empty columns.
func List(ctx context.Context, c *silexplorer.Client, table *urimap.Table, q Query, opts ...ListOption) (*frame.Frame, error) {
	o := &listOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	objType, err := table.URIByName(q.TypeName)
	if err != nil {
		return nil, errors.Wrap(err, "resolving object type name")
	}
	experience, err := experiment.DataSourceID(ctx, c, table, q.Experiment)
	if err != nil {
		return nil, err
	}

	filter := map[string]interface{}{"type": objType}
	if q.FactorLevelURI != "" {
		filter["hasFactorLevel"] = q.FactorLevelURI
	}
	if q.GermplasmURI != "" {
		filter["hasGermplasm"] = q.GermplasmURI
	}

	var out struct {
		ScientificObject []objectRecord `json:"ScientificObject"`
	}
	err = c.GraphQL(ctx, listQuery, map[string]interface{}{
		"experience": []string{experience},
		"filter":     filter,
	}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "listing scientific objects")
	}

	f := pivot(out.ScientificObject)
	f = filterFactorLevels(f, q.FactorLevels, o.log)
	f = filterGermplasm(f, q.GermplasmType, q.GermplasmName)
	f.DropEmptyColumns()

	experiment.Register(table, f)
	return f, nil
}

func pivot(objects []objectRecord) *frame.Frame {
	f := frame.New("URI", "Name", "type")
	for _, obj := range objects {
		r := f.Append()
		f.Set(r, "URI", obj.ID)
		f.Set(r, "Name", obj.Label)
		if len(obj.Type) > 0 {
			f.Set(r, "type", obj.Type[0])
		}
		for _, fl := range obj.HasFactorLevel {
			if len(fl.HasFactor) == 0 {
				continue
			}
			f.SetJoin(r, fl.HasFactor[0].Label, fl.Label)
		}
		for i, g := range obj.HasGermplasm {
			n := i + 1
			if len(g.Type) > 0 {
				f.Set(r, fmt.Sprintf("Germplasm_type_%d", n), g.Type[0])
			}
			f.Set(r, fmt.Sprintf("Germplasm_%d", n), g.Label)
			if len(g.FromSpecies) > 0 {
				f.Set(r, fmt.Sprintf("Species_%d", n), joinLabels(g.FromSpecies))
			}
			if len(g.FromVariety) > 0 {
				f.Set(r, fmt.Sprintf("Variety_%d", n), joinLabels(g.FromVariety))
			}
			if len(g.FromAccession) > 0 {
				f.Set(r, fmt.Sprintf("Accession_%d", n), joinLabels(g.FromAccession))
			}
		}
	}
	return f
}

func joinLabels(ls []idLabel) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = l.Label
	}
	return strings.Join(parts, ", ")
}

// filterFactorLevels applies "Factor.Level" post-filters. A pair naming a
// factor column the frame doesn't have is skipped with a warning.
func filterFactorLevels(f *frame.Frame, pairs []string, log *zap.Logger) *frame.Frame {
	for _, pair := range pairs {
		factor, level, found := strings.Cut(pair, ".")
		if !found {
			log.Warn("malformed factor level filter, expected Factor.Level",
				zap.String("filter", pair))
			continue
		}
		if !f.HasColumn(factor) {
			log.Warn("factor not found in columns, skipping filter",
				zap.String("factor", factor))
			continue
		}
		f = f.Filter(func(row map[string]string) bool {
			for _, l := range strings.Split(row[factor], ",") {
				if strings.TrimSpace(l) == level {
					return true
				}
			}
			return false
		})
	}
	return f
}

func filterGermplasm(f *frame.Frame, germplasmType, germplasmName string) *frame.Frame {
	if germplasmType == "" {
		return f
	}
	if germplasmName != "" {
		var cols []string
		for _, c := range f.Columns() {
			if strings.HasPrefix(c, "Germplasm_") || strings.HasPrefix(c, germplasmType) {
				cols = append(cols, c)
			}
		}
		if len(cols) == 0 {
			return f
		}
		return f.Filter(func(row map[string]string) bool {
			for _, c := range cols {
				if row[c] == germplasmName {
					return true
				}
			}
			return false
		})
	}
	var typeCols []string
	for _, c := range f.Columns() {
		if strings.HasPrefix(c, "Germplasm_type") {
			typeCols = append(typeCols, c)
		}
	}
	return f.Filter(func(row map[string]string) bool {
		for _, c := range typeCols {
			if row[c] == germplasmType {
				return true
			}
		}
		return false
	})
}
