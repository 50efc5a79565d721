package sciobject

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

const objectsPayload = `{"data":{"ScientificObject":[
	{"_id":"os1","label":"plant-01","_type":["vocabulary:Plant"],
	 "hasFactorLevel":[
	   {"label":"WW","hasFactor":[{"label":"Irrigation"}]},
	   {"label":"High","hasFactor":[{"label":"Density"}]}],
	 "hasGermplasm":[
	   {"label":"B73","type":"variety","_type":["vocabulary:Variety"],
	    "fromSpecies":[{"_id":"sp1","label":"Zea mays"}],
	    "fromVariety":[{"_id":"va1","label":"B73"}]}]},
	{"_id":"os2","label":"plant-02","_type":["vocabulary:Plant"],
	 "hasFactorLevel":[
	   {"label":"WD","hasFactor":[{"label":"Irrigation"}]}],
	 "hasGermplasm":[
	   {"label":"MO17","type":"accession","_type":["vocabulary:Accession"],
	    "fromAccession":[{"_id":"ac1","label":"MO17"}]}]}
]}}`

func objectServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if strings.Contains(req.Query, "startDate") {
			// experiment id lookup
			fmt.Fprint(w, `{"data":{"Experiment":[{"label":"ZA17","startDate":"2017-03-30"}]}}`)
			return
		}
		fmt.Fprint(w, objectsPayload)
	}))
}

func testTable() *urimap.Table {
	tbl := urimap.NewTable()
	tbl.Insert([]frame.Pair{
		{URI: "uri:exp1", Name: "ZA17"},
		{URI: "uri:type:plant", Name: "plant"},
	})
	return tbl
}

func mustClient(t *testing.T, srv *httptest.Server) *silexplorer.Client {
	t.Helper()
	c, err := silexplorer.NewClient(srv.URL, srv.URL+"/graphql", silexplorer.OptToken("tok"))
	require.NoError(t, err)
	return c
}

func TestListPivot(t *testing.T) {
	srv := objectServer(t)
	defer srv.Close()

	f, err := List(context.Background(), mustClient(t, srv), testTable(), Query{
		Experiment: "ZA17",
		TypeName:   "plant",
	})
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())

	assert.Equal(t, "vocabulary:Plant", f.Cell(0, "type"))
	assert.Equal(t, "WW", f.Cell(0, "Irrigation"))
	assert.Equal(t, "High", f.Cell(0, "Density"))
	assert.Equal(t, "vocabulary:Variety", f.Cell(0, "Germplasm_type_1"))
	assert.Equal(t, "B73", f.Cell(0, "Germplasm_1"))
	assert.Equal(t, "Zea mays", f.Cell(0, "Species_1"))
	assert.Equal(t, "B73", f.Cell(0, "Variety_1"))

	assert.Equal(t, "WD", f.Cell(1, "Irrigation"))
	assert.Equal(t, "", f.Cell(1, "Density"))
	assert.Equal(t, "MO17", f.Cell(1, "Accession_1"))
}

func TestListFactorLevelFilter(t *testing.T) {
	srv := objectServer(t)
	defer srv.Close()

	f, err := List(context.Background(), mustClient(t, srv), testTable(), Query{
		Experiment:   "ZA17",
		TypeName:     "plant",
		FactorLevels: []string{"Irrigation.WD"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.Len())
	assert.Equal(t, "plant-02", f.Cell(0, "Name"))
}

func TestListUnknownFactorFilterKeepsAll(t *testing.T) {
	srv := objectServer(t)
	defer srv.Close()

	f, err := List(context.Background(), mustClient(t, srv), testTable(), Query{
		Experiment:   "ZA17",
		TypeName:     "plant",
		FactorLevels: []string{"Fertilizer.N0"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
}

func TestListGermplasmFilters(t *testing.T) {
	srv := objectServer(t)
	defer srv.Close()

	f, err := List(context.Background(), mustClient(t, srv), testTable(), Query{
		Experiment:    "ZA17",
		TypeName:      "plant",
		GermplasmType: "vocabulary:Accession",
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.Len())
	assert.Equal(t, "plant-02", f.Cell(0, "Name"))

	f, err = List(context.Background(), mustClient(t, srv), testTable(), Query{
		Experiment:    "ZA17",
		TypeName:      "plant",
		GermplasmType: "Variety",
		GermplasmName: "B73",
	})
	require.NoError(t, err)
	require.Equal(t, 1, f.Len())
	assert.Equal(t, "plant-01", f.Cell(0, "Name"))
}

func TestListUnknownTypeName(t *testing.T) {
	srv := objectServer(t)
	defer srv.Close()

	_, err := List(context.Background(), mustClient(t, srv), testTable(), Query{
		Experiment: "ZA17",
		TypeName:   "spaceship",
	})
	require.Error(t, err)
}

func TestMoves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch {
		case strings.Contains(req.Query, "startDate"):
			fmt.Fprint(w, `{"data":{"Experiment":[{"label":"ZA17","startDate":"2017-03-30"}]}}`)
		case strings.Contains(req.Query, "historique_positions"):
			assert.Equal(t, "os1", req.Variables["uri"])
			assert.Equal(t, "2017-04-01", req.Variables["dateBeginning"])
			fmt.Fprint(w, `{"data":{"historique_positions":[
				{"from":{"label":"greenhouse"},"to":{"label":"field"},
				 "hasBeginning":{"inXSDDateTimeStamp":"2017-04-02T08:00:00Z"},
				 "hasEnd":{"inXSDDateTimeStamp":"2017-04-02T09:00:00Z"}},
				{"from":null,"to":{"label":"lab"},"hasBeginning":null,"hasEnd":null}
			]}}`)
		default:
			fmt.Fprint(w, `{"data":{"ScientificObject":[{"label":"plant-01"}]}}`)
		}
	}))
	defer srv.Close()

	tbl := testTable()
	tbl.Insert([]frame.Pair{{URI: "os1", Name: "plant-01"}})

	f, err := Moves(context.Background(), mustClient(t, srv), tbl, "plant-01", "ZA17", "2017-04-01", "")
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "greenhouse", f.Cell(0, "From"))
	assert.Equal(t, "field", f.Cell(0, "To"))
	assert.Equal(t, "2017-04-02T08:00:00Z", f.Cell(0, "HasBeginning"))
	assert.Equal(t, "", f.Cell(1, "From"))
	assert.Equal(t, "lab", f.Cell(1, "To"))
}

func TestMovesUnknownObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if strings.Contains(req.Query, "startDate") {
			fmt.Fprint(w, `{"data":{"Experiment":[{"label":"ZA17","startDate":"2017-03-30"}]}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"ScientificObject":[]}}`)
	}))
	defer srv.Close()

	tbl := testTable()
	tbl.Insert([]frame.Pair{{URI: "os9", Name: "ghost"}})

	_, err := Moves(context.Background(), mustClient(t, srv), tbl, "ghost", "ZA17", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scientific object found")
}
