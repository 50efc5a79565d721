// Package measure retrieves measurement series: experiment data pulled per
// object type or per object URI chunk, environmental data of facilities,
// and device readings. Results are split into one frame per variable so
// each series can be exported or plotted on its own.
package measure

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	silexplorer "github.com/phenotools/silexplorer"
	"github.com/phenotools/silexplorer/experiment"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/urimap"
)

// Data is one measurement record as returned by the data queries.
type Data struct {
	Target   string          `json:"target"`
	Variable string          `json:"variable"`
	Value    json.RawMessage `json:"value"`
	Date     string          `json:"date"`
}

// valueString renders the raw value cell. Quoted strings are unwrapped,
// everything else (numbers, booleans, arrays) keeps its JSON form.
func (d Data) valueString() string {
	var s string
	if err := json.Unmarshal(d.Value, &s); err == nil {
		return s
	}
	return string(d.Value)
}

type dataHolder struct {
	Data []Data `json:"data"`
}

// Query selects the objects whose data ByVariable retrieves.
type Query struct {
	Experiment      string   // experiment name, resolved through the table
	TypeName        string   // object type name, resolved through the table
	FactorLevelURIs []string // optional server-side factor level filter
	GermplasmURI    string   // optional server-side germplasm filter

	// Variables restricts the split to these URI/Name rows. When nil the
	// experiment's variable list is fetched.
	Variables *frame.Frame
}

// ByVariable pulls all data of one experiment's objects of the given type
// and splits it into one series frame per variable.
func ByVariable(ctx context.Context, c *silexplorer.Client, table *urimap.Table, q Query) (map[string]*frame.Frame, error) {
	vars, err := variableList(ctx, c, table, q)
	if err != nil {
		return nil, err
	}
	records, err := Records(ctx, c, table, q)
	if err != nil {
		return nil, err
	}
	return SplitByVariable(records, vars), nil
}

// Records pulls the raw measurement records of one experiment's objects of
// the given type. The query is built with the factor level and germplasm
// clauses only when those filters are set, since the endpoint rejects null
// filter values.
func Records(ctx context.Context, c *silexplorer.Client, table *urimap.Table, q Query) ([]Data, error) {
	objType, err := table.URIByName(q.TypeName)
	if err != nil {
		return nil, errors.Wrap(err, "resolving object type name")
	}
	experience, err := experiment.DataSourceID(ctx, c, table, q.Experiment)
	if err != nil {
		return nil, err
	}

	query, queryVars := dataQuery(q, experience, objType)
	var out struct {
		ScientificObject []dataHolder `json:"ScientificObject"`
	}
	if err := c.GraphQL(ctx, query, queryVars, &out); err != nil {
		return nil, errors.Wrap(err, "retrieving experiment data")
	}

	var records []Data
	for _, obj := range out.ScientificObject {
		records = append(records, obj.Data...)
	}
	return records, nil
}

func variableList(ctx context.Context, c *silexplorer.Client, table *urimap.Table, q Query) (*frame.Frame, error) {
	if q.Variables != nil && q.Variables.Len() > 0 {
		return q.Variables, nil
	}
	vars, err := experiment.Variables(ctx, c, table, q.Experiment, 20)
	if err != nil {
		return nil, errors.Wrap(err, "listing experiment variables")
	}
	return vars, nil
}

func dataQuery(q Query, experience, objType string) (string, map[string]interface{}) {
	head := "query ScientificObject($experience: [DataSource!]!, $objType: String!"
	filter := "{type: $objType"
	vars := map[string]interface{}{
		"experience": []string{experience},
		"objType":    objType,
	}
	if len(q.FactorLevelURIs) > 0 {
		head += ", $factorLevel: [ID]"
		filter += ", hasFactorLevel: $factorLevel"
		vars["factorLevel"] = q.FactorLevelURIs
	}
	if q.GermplasmURI != "" {
		head += ", $germplasm: [ID]"
		filter += ", hasGermplasm: $germplasm"
		vars["germplasm"] = q.GermplasmURI
	}
	query := head + `) {
    ScientificObject(
        inferred: true,
        Experience: $experience,
        filter: ` + filter + `}
    ) {
        data {
            target
            variable
            value
            date
        }
    }
}`
	return query, vars
}

// SplitByVariable groups records into one frame per variable URI, keyed and
// titled by the variable's name from vars (columns URI, Name) or, for
// variables missing from the list while vars is empty, by the URI tail.
// When vars is non-empty, records of unlisted variables are dropped.
func SplitByVariable(records []Data, vars *frame.Frame) map[string]*frame.Frame {
	uriToName := map[string]string{}
	restrict := false
	if vars != nil {
		for _, p := range vars.URINamePairs() {
			if p.URI == "" {
				continue
			}
			uriToName[p.URI] = p.Name
			restrict = true
		}
	}

	series := make(map[string]*frame.Frame)
	for _, rec := range records {
		name, listed := uriToName[rec.Variable]
		if restrict && !listed {
			continue
		}
		if name == "" {
			name = uriTail(rec.Variable)
		}
		f, ok := series[name]
		if !ok {
			f = frame.New("URI", name, "Date")
			series[name] = f
		}
		r := f.Append()
		f.Set(r, "URI", rec.Target)
		f.Set(r, name, rec.valueString())
		f.Set(r, "Date", rec.Date)
	}
	return series
}

func uriTail(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
