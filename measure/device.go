package measure

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/pkg/errors"

	silexplorer "github.com/phenotools/silexplorer"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/urimap"
)

const deviceDataQuery = `
query GetMeasuredData($filter: FilterFindManyDataInput) {
  Data_findMany(filter: $filter) {
    target
    value
    variable
    date
  }
}`

const devicesRoute = "/core/devices"

// ByDevice retrieves everything the named device measured between from and
// to (ISO dates, optional). Columns: URI (the device), Target, Value,
// Variable, Date.
func ByDevice(ctx context.Context, c *silexplorer.Client, table *urimap.Table, deviceName, from, to string) (*frame.Frame, error) {
	deviceURI, err := table.URIByName(deviceName)
	if err != nil {
		return nil, errors.Wrap(err, "resolving device name")
	}

	filter := map[string]interface{}{
		"provenance": map[string]interface{}{
			"provWasAssociatedWith": map[string]interface{}{"uri": deviceURI},
		},
	}
	df := map[string]interface{}{}
	if from != "" {
		df["gte"] = from
	}
	if to != "" {
		df["lte"] = to
	}
	if len(df) > 0 {
		filter["_operators"] = map[string]interface{}{"date": df}
	}

	var out struct {
		Records []Data `json:"Data_findMany"`
	}
	err = c.GraphQL(ctx, deviceDataQuery, map[string]interface{}{"filter": filter}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "retrieving device data")
	}

	f := frame.New("URI", "Target", "Value", "Variable", "Date")
	for _, rec := range out.Records {
		r := f.Append()
		f.Set(r, "URI", deviceURI)
		f.Set(r, "Target", rec.Target)
		f.Set(r, "Value", rec.valueString())
		f.Set(r, "Variable", rec.Variable)
		f.Set(r, "Date", rec.Date)
	}
	return f, nil
}

// Devices pages through the devices attached to the named facility.
// Columns: URI, type, Name. Returned pairs are registered in table.
func Devices(ctx context.Context, c *silexplorer.Client, table *urimap.Table, facilityName string, pageSize int) (*frame.Frame, error) {
	facilityURI, err := table.URIByName(facilityName)
	if err != nil {
		return nil, errors.Wrap(err, "resolving facility name")
	}

	f := frame.New("URI", "type", "Name")
	params := url.Values{"facility": {facilityURI}}
	err = c.GetPaged(ctx, devicesRoute, params, pageSize, func(result json.RawMessage) error {
		var devices []struct {
			URI      string `json:"uri"`
			TypeName string `json:"rdf_type_name"`
			Name     string `json:"name"`
		}
		if err := json.Unmarshal(result, &devices); err != nil {
			return errors.Wrap(err, "decoding devices page")
		}
		for _, d := range devices {
			r := f.Append()
			f.Set(r, "URI", d.URI)
			f.Set(r, "type", d.TypeName)
			f.Set(r, "Name", d.Name)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing devices")
	}

	if table != nil {
		table.Insert(f.URINamePairs())
	}
	return f, nil
}
