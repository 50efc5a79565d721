package experiment

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mmcloughlin/geohash"
	"github.com/pkg/errors"

	silexplorer "github.com/phenotools/silexplorer"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/urimap"
)

const facilitiesQuery = `
query GetFacilities($experimentUri: [ID]) {
    Experiment(filter: {_id: $experimentUri}) {
        usesFacility {
            _id
            _type(inferred: true)
            geometry {
                geometry {
                    type
                    coordinates
                }
            }
            label
        }
    }
}`

// geohashChars keeps the hash at roughly street-level precision, which is
// plenty for greenhouse and field installations.
const geohashChars = 9

type geometry struct {
	Type        string            `json:"type"`
	Coordinates []json.RawMessage `json:"coordinates"`
}

type facilityRecord struct {
	ID       string   `json:"_id"`
	Type     []string `json:"_type"`
	Label    string   `json:"label"`
	Geometry []struct {
		Geometry geometry `json:"geometry"`
	} `json:"geometry"`
}

// Facilities lists the facilities the named experiment uses, with their
// inferred type and, when present, the geometry rendered as
// Type(coord, coord, ...). Point geometries also get a Geohash column.
// All-empty columns are dropped.
func Facilities(ctx context.Context, c *silexplorer.Client, table *urimap.Table, experimentName string) (*frame.Frame, error) {
	uri, err := table.URIByName(experimentName)
	if err != nil {
		return nil, errors.Wrap(err, "resolving experiment name")
	}

	var out struct {
		Experiment []struct {
			UsesFacility []facilityRecord `json:"usesFacility"`
		} `json:"Experiment"`
	}
	err = c.GraphQL(ctx, facilitiesQuery, map[string]interface{}{"experimentUri": uri}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "listing facilities")
	}

	f := frame.New("URI", "Name", "Type", "geometry", "Geohash")
	for _, exp := range out.Experiment {
		for _, fac := range exp.UsesFacility {
			r := f.Append()
			f.Set(r, "URI", fac.ID)
			f.Set(r, "Name", fac.Label)
			if len(fac.Type) > 0 {
				f.Set(r, "Type", fac.Type[0])
			}
			for _, g := range fac.Geometry {
				f.Set(r, "geometry", renderGeometry(g.Geometry))
				if hash, ok := pointGeohash(g.Geometry); ok {
					f.Set(r, "Geohash", hash)
				}
			}
		}
	}
	f.DropEmptyColumns()

	Register(table, f)
	return f, nil
}

func renderGeometry(g geometry) string {
	parts := make([]string, len(g.Coordinates))
	for i, c := range g.Coordinates {
		parts[i] = string(c)
	}
	return g.Type + "(" + strings.Join(parts, ", ") + ")"
}

// pointGeohash hashes Point geometries, which the platform serves as
// [longitude, latitude].
func pointGeohash(g geometry) (string, bool) {
	if g.Type != "Point" || len(g.Coordinates) != 2 {
		return "", false
	}
	var lon, lat float64
	if err := json.Unmarshal(g.Coordinates[0], &lon); err != nil {
		return "", false
	}
	if err := json.Unmarshal(g.Coordinates[1], &lat); err != nil {
		return "", false
	}
	return geohash.EncodeWithPrecision(lat, lon, geohashChars), true
}
