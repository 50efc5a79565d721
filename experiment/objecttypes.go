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

const objectTypesRoute = "/core/scientific_objects/used_types"

// ObjectTypes pages through the scientific object types used in the named
// experiment.
func ObjectTypes(ctx context.Context, c *silexplorer.Client, table *urimap.Table, experimentName string, pageSize int) (*frame.Frame, error) {
	uri, err := table.URIByName(experimentName)
	if err != nil {
		return nil, errors.Wrap(err, "resolving experiment name")
	}

	f := frame.New("URI", "Name")
	params := url.Values{"experiment": {uri}}
	err = c.GetPaged(ctx, objectTypesRoute, params, pageSize, func(result json.RawMessage) error {
		var types []struct {
			URI  string `json:"uri"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(result, &types); err != nil {
			return errors.Wrap(err, "decoding object types page")
		}
		for _, t := range types {
			r := f.Append()
			f.Set(r, "URI", t.URI)
			f.Set(r, "Name", t.Name)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing object types")
	}

	Register(table, f)
	return f, nil
}
