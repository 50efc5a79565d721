package urimap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenotools/silexplorer/frame"
)

func TestBoltStore(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	defer s.Close()

	conflicts, err := s.Insert([]frame.Pair{
		{URI: "u1", Name: "n1"},
		{URI: "u2", Name: "n2"},
		{URI: "u1", Name: "other"}, // conflicting name for u1
	})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "other", conflicts[0].Name)

	uri, err := s.URIByName("n2")
	require.NoError(t, err)
	assert.Equal(t, "u2", uri)

	_, err = s.URIByName("missing")
	require.Error(t, err)

	name, err := s.NameByURI("u1")
	require.NoError(t, err)
	assert.Equal(t, "n1", name)

	tbl := NewTable()
	require.NoError(t, s.Fill(tbl))
	assert.Equal(t, 2, tbl.Len())
}
