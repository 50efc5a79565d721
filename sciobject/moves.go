package sciobject

import (
	"context"

	"github.com/pkg/errors"

	silexplorer "github.com/phenotools/silexplorer"
	"github.com/phenotools/silexplorer/experiment"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/urimap"
)

const labelQuery = `
query GetScientificObjectLabel($uri: [ID], $experiment: [DataSource!]!) {
  ScientificObject(filter: {_id: $uri}, Experience: $experiment, inferred: true) {
    label
  }
}`

const movesQuery = `
query GetMoves($uri: ID!, $dateBeginning: String, $dateEnd: String) {
  historique_positions(
    uri: $uri
    dateBeginning: $dateBeginning
    dateEnd: $dateEnd
  ) {
    from {
      label
    }
    to {
      label
    }
    hasBeginning {
      inXSDDateTimeStamp
    }
    hasEnd {
      inXSDDateTimeStamp
    }
  }
}`

type moveRecord struct {
	From *struct {
		Label string `json:"label"`
	} `json:"from"`
	To *struct {
		Label string `json:"label"`
	} `json:"to"`
	HasBeginning *struct {
		Stamp string `json:"inXSDDateTimeStamp"`
	} `json:"hasBeginning"`
	HasEnd *struct {
		Stamp string `json:"inXSDDateTimeStamp"`
	} `json:"hasEnd"`
}

// Moves retrieves the position history of the named scientific object
// within the named experiment, optionally bounded by ISO dates. The object
// must exist in the experiment or an error is returned.
func Moves(ctx context.Context, c *silexplorer.Client, table *urimap.Table, osName, experimentName, dateBeginning, dateEnd string) (*frame.Frame, error) {
	experience, err := experiment.DataSourceID(ctx, c, table, experimentName)
	if err != nil {
		return nil, err
	}
	uri, err := table.URIByName(osName)
	if err != nil {
		return nil, errors.Wrap(err, "resolving scientific object name")
	}

	var labelOut struct {
		ScientificObject []struct {
			Label string `json:"label"`
		} `json:"ScientificObject"`
	}
	err = c.GraphQL(ctx, labelQuery, map[string]interface{}{
		"uri":        uri,
		"experiment": []string{experience},
	}, &labelOut)
	if err != nil {
		return nil, errors.Wrap(err, "retrieving scientific object label")
	}
	if len(labelOut.ScientificObject) == 0 {
		return nil, errors.Errorf("no scientific object found for URI: %v", uri)
	}

	vars := map[string]interface{}{"uri": uri}
	if dateBeginning != "" {
		vars["dateBeginning"] = dateBeginning
	}
	if dateEnd != "" {
		vars["dateEnd"] = dateEnd
	}
	var movesOut struct {
		Moves []moveRecord `json:"historique_positions"`
	}
	if err := c.GraphQL(ctx, movesQuery, vars, &movesOut); err != nil {
		return nil, errors.Wrap(err, "retrieving moves")
	}

	f := frame.New("From", "To", "HasBeginning", "HasEnd")
	for _, m := range movesOut.Moves {
		r := f.Append()
		if m.From != nil {
			f.Set(r, "From", m.From.Label)
		}
		if m.To != nil {
			f.Set(r, "To", m.To.Label)
		}
		if m.HasBeginning != nil {
			f.Set(r, "HasBeginning", m.HasBeginning.Stamp)
		}
		if m.HasEnd != nil {
			f.Set(r, "HasEnd", m.HasEnd.Stamp)
		}
	}
	return f, nil
}
