package experiment

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/pkg/errors"

	silexplorer "github.com/phenotools/silexplorer"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/urimap"
)

const variablesRoute = "/core/variables"

type named struct {
	Name string `json:"name"`
}

// Variables pages through the variables with associated data for the named
// experiment. Columns: URI, Name, entity_name, characteristic_name,
// method_name, unit_name.
func Variables(ctx context.Context, c *silexplorer.Client, table *urimap.Table, experimentName string, pageSize int) (*frame.Frame, error) {
	uri, err := table.URIByName(experimentName)
	if err != nil {
		return nil, errors.Wrap(err, "resolving experiment name")
	}

	f := frame.New("URI", "Name", "entity_name", "characteristic_name", "method_name", "unit_name")
	params := url.Values{
		"withAssociatedData": {"true"},
		"experiments":        {uri},
	}
	err = c.GetPaged(ctx, variablesRoute, params, pageSize, func(result json.RawMessage) error {
		var vars []struct {
			URI            string `json:"uri"`
			Name           string `json:"name"`
			Entity         named  `json:"entity"`
			Characteristic named  `json:"characteristic"`
			Method         named  `json:"method"`
			Unit           named  `json:"unit"`
		}
		if err := json.Unmarshal(result, &vars); err != nil {
			return errors.Wrap(err, "decoding variables page")
		}
		for _, v := range vars {
			r := f.Append()
			f.Set(r, "URI", v.URI)
			f.Set(r, "Name", v.Name)
			f.Set(r, "entity_name", v.Entity.Name)
			f.Set(r, "characteristic_name", v.Characteristic.Name)
			f.Set(r, "method_name", v.Method.Name)
			f.Set(r, "unit_name", v.Unit.Name)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing variables")
	}

	Register(table, f)
	return f, nil
}
