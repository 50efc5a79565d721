package urimap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/phenotools/silexplorer/frame"
)

func observedTable(t *testing.T) (*Table, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	return NewTable(OptLogger(zap.New(core))), logs
}

func TestInsertSkipsDuplicates(t *testing.T) {
	tbl := NewTable()
	tbl.Insert([]frame.Pair{
		{URI: "u1", Name: "n1"},
		{URI: "u1", Name: "n1"},
		{URI: "u2", Name: "n2"},
	})
	assert.Equal(t, 2, tbl.Len())
	tbl.Insert([]frame.Pair{{URI: "u2", Name: "n2"}})
	assert.Equal(t, 2, tbl.Len())
}

func TestURIByName(t *testing.T) {
	tbl := NewTable()
	tbl.Insert([]frame.Pair{
		{URI: "u1", Name: "ZA17"},
		{URI: "u2", Name: "dup"},
		{URI: "u3", Name: "dup"},
	})

	uri, err := tbl.URIByName("ZA17")
	require.NoError(t, err)
	assert.Equal(t, "u1", uri)

	_, err = tbl.URIByName("missing")
	require.Error(t, err)

	_, err = tbl.URIByName("dup")
	require.Error(t, err)

	_, err = tbl.URIByName("")
	require.Error(t, err)
}

func TestNamesByURI(t *testing.T) {
	tbl, logs := observedTable(t)
	tbl.Insert([]frame.Pair{
		{URI: "u1", Name: "a"},
		{URI: "u1", Name: "b"},
	})

	names := tbl.NamesByURI("u1")
	assert.ElementsMatch(t, []string{"a", "b"}, names)
	assert.Empty(t, tbl.NamesByURI("unknown"))

	// inserting and looking up the double-named URI warned
	require.NotZero(t, logs.FilterMessage("uri associated with multiple names").Len())
	require.NotZero(t, logs.FilterMessage("multiple names found for uri").Len())
}

func TestConsistencyWarnsOnAmbiguousName(t *testing.T) {
	tbl, logs := observedTable(t)
	tbl.Insert([]frame.Pair{
		{URI: "u1", Name: "shared"},
		{URI: "u2", Name: "shared"},
		{URI: "u3", Name: "a"},
		{URI: "u3", Name: "b"},
	})
	require.NotZero(t, logs.FilterMessage("name associated with multiple uris").Len())

	// the explicit sweep re-reports every known ambiguity
	before := logs.Len()
	tbl.CheckConsistency()
	warns := logs.All()[before:]
	require.Len(t, warns, 2)
}

func TestInsertWarnsOncePerAmbiguity(t *testing.T) {
	tbl, logs := observedTable(t)
	tbl.Insert([]frame.Pair{
		{URI: "u1", Name: "shared"},
		{URI: "u2", Name: "shared"},
	})
	require.Equal(t, 1, logs.FilterMessage("name associated with multiple uris").Len())

	// unrelated inserts stay quiet about the old ambiguity
	tbl.Insert([]frame.Pair{{URI: "u3", Name: "n3"}})
	tbl.Insert([]frame.Pair{{URI: "u4", Name: "n4"}})
	assert.Equal(t, 1, logs.FilterMessage("name associated with multiple uris").Len())

	// a third URI on the same name warns again
	tbl.Insert([]frame.Pair{{URI: "u5", Name: "shared"}})
	assert.Equal(t, 2, logs.FilterMessage("name associated with multiple uris").Len())
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uri_name.csv")

	tbl := NewTable()
	tbl.Insert([]frame.Pair{{URI: "u1", Name: "n1"}, {URI: "u2", Name: "n2"}})
	require.NoError(t, tbl.Save(path))

	loaded := NewTable()
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, 2, loaded.Len())
	uri, err := loaded.URIByName("n2")
	require.NoError(t, err)
	assert.Equal(t, "u2", uri)
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Load(filepath.Join(t.TempDir(), "absent.csv")))
	assert.Equal(t, 0, tbl.Len())
}
