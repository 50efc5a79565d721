package experiment

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	silexplorer "github.com/phenotools/silexplorer"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/urimap"
)

const factorsQuery = `
query getFactorsByExperiment($experimentUri: [ID]) {
    Experiment(filter: {_id: $experimentUri}) {
        studyEffectOf {
            _id
            label
        }
    }
}`

const levelsQuery = `
query getFactorLevelsByFactor($factorId: [ID]) {
    FactorLevel(filter: {hasFactor: $factorId}) {
        _id
        label
    }
}`

// Factor is one experimental factor.
type Factor struct {
	URI   string
	Label string
}

// Factors lists the factors studied by the experiment at uri.
func Factors(ctx context.Context, c *silexplorer.Client, uri string) ([]Factor, error) {
	var out struct {
		Experiment []struct {
			StudyEffectOf []struct {
				ID    string `json:"_id"`
				Label string `json:"label"`
			} `json:"studyEffectOf"`
		} `json:"Experiment"`
	}
	err := c.GraphQL(ctx, factorsQuery, map[string]interface{}{"experimentUri": uri}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "retrieving factors by experiment")
	}
	var factors []Factor
	for _, exp := range out.Experiment {
		for _, f := range exp.StudyEffectOf {
			factors = append(factors, Factor{URI: f.ID, Label: strings.TrimSpace(f.Label)})
		}
	}
	return factors, nil
}

// Levels lists the levels of one factor.
func Levels(ctx context.Context, c *silexplorer.Client, factorURI string) ([]Factor, error) {
	var out struct {
		FactorLevel []struct {
			ID    string `json:"_id"`
			Label string `json:"label"`
		} `json:"FactorLevel"`
	}
	err := c.GraphQL(ctx, levelsQuery, map[string]interface{}{"factorId": factorURI}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "retrieving factor levels by factor")
	}
	var levels []Factor
	for _, l := range out.FactorLevel {
		levels = append(levels, Factor{URI: l.ID, Label: l.Label})
	}
	return levels, nil
}

// FactorLevels lists every factor of the named experiment together with its
// levels, one row per (factor, level).
func FactorLevels(ctx context.Context, c *silexplorer.Client, table *urimap.Table, experimentName string) (*frame.Frame, error) {
	uri, err := table.URIByName(experimentName)
	if err != nil {
		return nil, errors.Wrap(err, "resolving experiment name")
	}
	factors, err := Factors(ctx, c, uri)
	if err != nil {
		return nil, err
	}

	f := frame.New("Factor", "Factor URI", "Factor level", "Factor level URI")
	for _, factor := range factors {
		levels, err := Levels(ctx, c, factor.URI)
		if err != nil {
			return nil, errors.Wrapf(err, "retrieving levels of '%v'", factor.Label)
		}
		for _, level := range levels {
			r := f.Append()
			f.Set(r, "Factor", factor.Label)
			f.Set(r, "Factor URI", factor.URI)
			f.Set(r, "Factor level", level.Label)
			f.Set(r, "Factor level URI", level.URI)
		}
	}
	return f, nil
}
