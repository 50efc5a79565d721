package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	silexplorer "github.com/phenotools/silexplorer"
	"github.com/phenotools/silexplorer/frame"
	"github.com/phenotools/silexplorer/urimap"
)

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func decodeGQL(t *testing.T, r *http.Request) gqlRequest {
	t.Helper()
	var req gqlRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func mustClient(t *testing.T, srv *httptest.Server) *silexplorer.Client {
	t.Helper()
	c, err := silexplorer.NewClient(srv.URL, srv.URL+"/graphql", silexplorer.OptToken("tok"))
	require.NoError(t, err)
	return c
}

func tableWith(pairs ...frame.Pair) *urimap.Table {
	tbl := urimap.NewTable()
	tbl.Insert(pairs)
	return tbl
}

func TestList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeGQL(t, r)
		filter := req.Variables["filter"].(map[string]interface{})
		assert.Equal(t, "uri:species:maize", filter["hasSpecies"])
		fmt.Fprint(w, `{"data":{"Experiment":[
			{"_id":"uri:exp1","label":"ZA17","startDate":"2017-03-30","endDate":"2017-07-20",
			 "hasSpecies":[{"label":"Zea mays"}],"hasProject":[{"label":"Amaizing"},{"label":"Phenome"}]},
			{"_id":"uri:exp2","label":"ZB18","startDate":"2018-02-01","endDate":"2018-06-01",
			 "hasSpecies":[{"label":"Hordeum vulgare"}],"hasProject":[]}
		]}}`)
	}))
	defer srv.Close()

	tbl := urimap.NewTable()
	f, err := List(context.Background(), mustClient(t, srv), tbl, ListOptions{
		SpeciesURI: "uri:species:maize",
		ActiveDate: "2017-05-01",
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.Len())
	assert.Equal(t, "ZA17", f.Cell(0, "Name"))
	assert.Equal(t, "Zea mays", f.Cell(0, "hasSpecies"))
	assert.Equal(t, "Amaizing, Phenome", f.Cell(0, "hasProject"))

	// listing registered the pair
	uri, err := tbl.URIByName("ZA17")
	require.NoError(t, err)
	assert.Equal(t, "uri:exp1", uri)
}

func TestListNameFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"Experiment":[
			{"_id":"e1","label":"A","hasSpecies":[{"label":"Zea mays"}],"hasProject":[{"label":"Amaizing"}]},
			{"_id":"e2","label":"B","hasSpecies":[{"label":"Vitis vinifera"}],"hasProject":[{"label":"Grapevine"}]}
		]}}`)
	}))
	defer srv.Close()

	f, err := List(context.Background(), mustClient(t, srv), nil, ListOptions{SpeciesName: "zea"})
	require.NoError(t, err)
	require.Equal(t, 1, f.Len())
	assert.Equal(t, "A", f.Cell(0, "Name"))

	f, err = List(context.Background(), mustClient(t, srv), nil, ListOptions{ProjectName: "grape"})
	require.NoError(t, err)
	require.Equal(t, 1, f.Len())
	assert.Equal(t, "B", f.Cell(0, "Name"))
}

func TestDataSourceID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeGQL(t, r)
		assert.Equal(t, "uri:exp1", req.Variables["id"])
		fmt.Fprint(w, `{"data":{"Experiment":[{"label":"ZA17-maize","startDate":"2017-03-30T00:00:00.000Z"}]}}`)
	}))
	defer srv.Close()

	id, err := DataSourceID(context.Background(), mustClient(t, srv), tableWith(frame.Pair{URI: "uri:exp1", Name: "ZA17"}), "ZA17")
	require.NoError(t, err)
	assert.Equal(t, "EXP_ZA17_maize_2017_03_30", id)
}

func TestDataSourceIDUnknownName(t *testing.T) {
	_, err := DataSourceID(context.Background(), nil, urimap.NewTable(), "ghost")
	require.Error(t, err)
}

func TestFactorLevels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeGQL(t, r)
		if strings.Contains(req.Query, "studyEffectOf") {
			fmt.Fprint(w, `{"data":{"Experiment":[{"studyEffectOf":[
				{"_id":"f1","label":" Irrigation "},{"_id":"f2","label":"Density"}]}]}}`)
			return
		}
		switch req.Variables["factorId"] {
		case "f1":
			fmt.Fprint(w, `{"data":{"FactorLevel":[{"_id":"l1","label":"WW"},{"_id":"l2","label":"WD"}]}}`)
		case "f2":
			fmt.Fprint(w, `{"data":{"FactorLevel":[{"_id":"l3","label":"High"}]}}`)
		default:
			t.Fatalf("unexpected factor %v", req.Variables["factorId"])
		}
	}))
	defer srv.Close()

	f, err := FactorLevels(context.Background(), mustClient(t, srv), tableWith(frame.Pair{URI: "uri:exp1", Name: "ZA17"}), "ZA17")
	require.NoError(t, err)
	require.Equal(t, 3, f.Len())
	assert.Equal(t, "Irrigation", f.Cell(0, "Factor"))
	assert.Equal(t, "WW", f.Cell(0, "Factor level"))
	assert.Equal(t, "l2", f.Cell(1, "Factor level URI"))
	assert.Equal(t, "Density", f.Cell(2, "Factor"))
}

func TestVariables(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/core/variables", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("withAssociatedData"))
		assert.Equal(t, "uri:exp1", r.URL.Query().Get("experiments"))
		if r.URL.Query().Get("page") == "0" {
			fmt.Fprint(w, `{"result":[{"uri":"v1","name":"plant_height","entity":{"name":"Plant"},
				"characteristic":{"name":"Height"},"method":{"name":"ImageAnalysis"},"unit":{"name":"millimetre"}}],
				"metadata":{"pagination":{"hasNextPage":true}}}`)
			return
		}
		fmt.Fprint(w, `{"result":[{"uri":"v2","name":"leaf_area","entity":{"name":"Leaf"},
			"characteristic":{"name":"Area"},"method":{"name":"ImageAnalysis"},"unit":{"name":"cm2"}}],
			"metadata":{"pagination":{"hasNextPage":false}}}`)
	}))
	defer srv.Close()

	tbl := tableWith(frame.Pair{URI: "uri:exp1", Name: "ZA17"})
	f, err := Variables(context.Background(), mustClient(t, srv), tbl, "ZA17", 20)
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "plant_height", f.Cell(0, "Name"))
	assert.Equal(t, "millimetre", f.Cell(0, "unit_name"))
	assert.Equal(t, "leaf_area", f.Cell(1, "Name"))

	uri, err := tbl.URIByName("leaf_area")
	require.NoError(t, err)
	assert.Equal(t, "v2", uri)
}

func TestFacilities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"Experiment":[{"usesFacility":[
			{"_id":"fac1","label":"greenhouse","_type":["vocabulary:Greenhouse"],
			 "geometry":[{"geometry":{"type":"Point","coordinates":[3.8734,43.6193]}}]},
			{"_id":"fac2","label":"field-2","_type":["vocabulary:Field"],"geometry":null}
		]}]}}`)
	}))
	defer srv.Close()

	f, err := Facilities(context.Background(), mustClient(t, srv), tableWith(frame.Pair{URI: "uri:exp1", Name: "ZA17"}), "ZA17")
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "vocabulary:Greenhouse", f.Cell(0, "Type"))
	assert.Equal(t, "Point(3.8734, 43.6193)", f.Cell(0, "geometry"))
	assert.Len(t, f.Cell(0, "Geohash"), 9)
	assert.Equal(t, "", f.Cell(1, "geometry"))
}

func TestFacilitiesDropsEmptyGeometry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"Experiment":[{"usesFacility":[
			{"_id":"fac1","label":"chamber","_type":["vocabulary:GrowthChamber"],"geometry":null}
		]}]}}`)
	}))
	defer srv.Close()

	f, err := Facilities(context.Background(), mustClient(t, srv), tableWith(frame.Pair{URI: "uri:exp1", Name: "ZA17"}), "ZA17")
	require.NoError(t, err)
	assert.False(t, f.HasColumn("geometry"))
	assert.False(t, f.HasColumn("Geohash"))
}

func TestObjectTypes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/core/scientific_objects/used_types", r.URL.Path)
		page := r.URL.Query().Get("page")
		fmt.Fprintf(w, `{"result":[{"uri":"t%s","name":"type%s"}],"metadata":{"pagination":{"totalPages":2}}}`, page, page)
	}))
	defer srv.Close()

	f, err := ObjectTypes(context.Background(), mustClient(t, srv), tableWith(frame.Pair{URI: "uri:exp1", Name: "ZA17"}), "ZA17", 20)
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "type0", f.Cell(0, "Name"))
	assert.Equal(t, "t1", f.Cell(1, "URI"))
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2017-03-30", "2017-03-30T10:00:00.000Z"} {
		_, err := ParseDate(s)
		require.NoError(t, err, s)
	}
	_, err := ParseDate("30/03/2017")
	require.Error(t, err)
}
