package measure

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	silexplorer "github.com/phenotools/silexplorer"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/urimap"
)

const environmentQuery = `
query GetEnvironmentalData($filter: FilterFindManyDataInput) {
  Data_findMany(filter: $filter) {
    target
    value
    variable
    date
    provenance {
        provWasAssociatedWith {
            uri
        }
    }
    prov_agent {
        agents {
            uri
        }
    }
  }
}`

const variablesOfTargetQuery = `
query GetEnvironmentalData($filter: FilterFindManyDataInput) {
  Data_findMany(filter: $filter) {
    variable
  }
}`

const variableDetailsQuery = `
query GetVariableDetails($filter: FilterVariable) {
  Variable(inferred: true, filter: $filter) {
    _id
    label
    hasEntity {
      label
    }
    hasCharacteristic {
      label
    }
    hasMethod {
      label
    }
    hasUnit {
      label
    }
  }
}`

type uriRef struct {
	URI string `json:"uri"`
}

type envRecord struct {
	Data
	Provenance *struct {
		ProvWasAssociatedWith []uriRef `json:"provWasAssociatedWith"`
	} `json:"provenance"`
	ProvAgent *struct {
		Agents []uriRef `json:"agents"`
	} `json:"prov_agent"`
}

// deviceURIs prefers the prov_agent agents, falling back to the provenance
// association. Multiple devices are comma-joined.
func (e envRecord) deviceURIs() string {
	var uris []string
	if e.ProvAgent != nil {
		for _, a := range e.ProvAgent.Agents {
			if a.URI != "" {
				uris = append(uris, a.URI)
			}
		}
	}
	if len(uris) == 0 && e.Provenance != nil {
		for _, p := range e.Provenance.ProvWasAssociatedWith {
			if p.URI != "" {
				uris = append(uris, p.URI)
			}
		}
	}
	return strings.Join(uris, ", ")
}

// dateFilter expands bare YYYY-MM-DD bounds to full-day timestamps; bounds
// already carrying a time component pass through unchanged.
func dateFilter(from, to string) map[string]interface{} {
	df := map[string]interface{}{}
	if from != "" && from == to {
		df["gte"] = from + "T00:00:00.000Z"
		df["lte"] = from + "T23:59:59.999Z"
		return df
	}
	if from != "" {
		if strings.Contains(from, "T") {
			df["gte"] = from
		} else {
			df["gte"] = from + "T00:00:00.000Z"
		}
	}
	if to != "" {
		if strings.Contains(to, "T") {
			df["lte"] = to
		} else {
			df["lte"] = to + "T23:59:59.999Z"
		}
	}
	if len(df) == 0 {
		return nil
	}
	return df
}

func targetFilter(facilityURI, from, to string) map[string]interface{} {
	filter := map[string]interface{}{"target": facilityURI}
	if df := dateFilter(from, to); df != nil {
		filter["_operators"] = map[string]interface{}{"date": df}
	}
	return filter
}

// Environment retrieves environmental data of the named facility between
// from and to (YYYY-MM-DD, full days) and splits it per variable into
// frames with columns <variable name>, Date, Device. varNames, when
// non-empty, restricts the series to those variable names.
func Environment(ctx context.Context, c *silexplorer.Client, table *urimap.Table, facilityName string, varNames []string, from, to string) (map[string]*frame.Frame, error) {
	facilityURI, err := table.URIByName(facilityName)
	if err != nil {
		return nil, errors.Wrap(err, "resolving facility name")
	}
	vars, err := FacilityVariables(ctx, c, table, facilityName, from, to)
	if err != nil {
		return nil, err
	}
	if len(varNames) > 0 {
		keep := map[string]bool{}
		for _, n := range varNames {
			keep[n] = true
		}
		vars = vars.Filter(func(row map[string]string) bool {
			return keep[row["Name"]]
		})
	}

	var out struct {
		Records []envRecord `json:"Data_findMany"`
	}
	err = c.GraphQL(ctx, environmentQuery, map[string]interface{}{
		"filter": targetFilter(facilityURI, from, to),
	}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "retrieving environmental data")
	}

	uriToName := map[string]string{}
	for _, p := range vars.URINamePairs() {
		uriToName[p.URI] = p.Name
	}

	series := make(map[string]*frame.Frame)
	for _, rec := range out.Records {
		name, listed := uriToName[rec.Variable]
		if !listed {
			continue
		}
		f, ok := series[name]
		if !ok {
			f = frame.New(name, "Date", "Device")
			series[name] = f
		}
		r := f.Append()
		f.Set(r, name, rec.valueString())
		f.Set(r, "Date", rec.Date)
		f.Set(r, "Device", rec.deviceURIs())
	}
	return series, nil
}

// FacilityVariables lists the distinct variables measured at the named
// facility in the date range, with their entity, characteristic, method
// and unit labels. Returned pairs are registered in table.
func FacilityVariables(ctx context.Context, c *silexplorer.Client, table *urimap.Table, facilityName string, from, to string) (*frame.Frame, error) {
	facilityURI, err := table.URIByName(facilityName)
	if err != nil {
		return nil, errors.Wrap(err, "resolving facility name")
	}

	var out struct {
		Records []struct {
			Variable string `json:"variable"`
		} `json:"Data_findMany"`
	}
	err = c.GraphQL(ctx, variablesOfTargetQuery, map[string]interface{}{
		"filter": targetFilter(facilityURI, from, to),
	}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "listing facility variables")
	}

	seen := map[string]bool{}
	var uris []string
	for _, rec := range out.Records {
		if rec.Variable == "" || seen[rec.Variable] {
			continue
		}
		seen[rec.Variable] = true
		uris = append(uris, rec.Variable)
	}
	sort.Strings(uris)

	f := frame.New("URI", "Name", "Entity", "Characteristic", "Method", "Unit")
	if len(uris) == 0 {
		return f, nil
	}

	type labeled struct {
		Label string `json:"label"`
	}
	var details struct {
		Variable []struct {
			ID                string   `json:"_id"`
			Label             string   `json:"label"`
			HasEntity         *labeled `json:"hasEntity"`
			HasCharacteristic *labeled `json:"hasCharacteristic"`
			HasMethod         *labeled `json:"hasMethod"`
			HasUnit           *labeled `json:"hasUnit"`
		} `json:"Variable"`
	}
	err = c.GraphQL(ctx, variableDetailsQuery, map[string]interface{}{
		"filter": map[string]interface{}{"_id": uris},
	}, &details)
	if err != nil {
		return nil, errors.Wrap(err, "retrieving variable details")
	}

	label := func(l *labeled) string {
		if l == nil {
			return ""
		}
		return l.Label
	}
	for _, v := range details.Variable {
		r := f.Append()
		f.Set(r, "URI", v.ID)
		f.Set(r, "Name", v.Label)
		f.Set(r, "Entity", label(v.HasEntity))
		f.Set(r, "Characteristic", label(v.HasCharacteristic))
		f.Set(r, "Method", label(v.HasMethod))
		f.Set(r, "Unit", label(v.HasUnit))
	}

	if table != nil {
		table.Insert(f.URINamePairs())
	}
	return f, nil
}
