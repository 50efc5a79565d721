package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	rc := NewRootCommand(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})

	want := []string{
		"experiments", "factor-levels", "variables", "facilities",
		"object-types", "objects", "data", "env", "devices",
		"device-data", "moves", "groups", "plot", "publish",
	}
	got := map[string]bool{}
	for _, c := range rc.Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, got[name], "missing subcommand %s", name)
	}
}

func TestSubcommandFlags(t *testing.T) {
	rc := NewRootCommand(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	exp, _, err := rc.Find([]string{"experiments"})
	require.NoError(t, err)

	for _, name := range []string{"rest-url", "graphql-url", "user", "password", "uri-names", "out"} {
		assert.NotNil(t, exp.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestSetAllConfigEnvAndFile(t *testing.T) {
	t.Setenv("SILEXPLORER_USER", "envuser")

	conf := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(conf, []byte("password = \"filepass\"\n"), 0644))

	rc := NewRootCommand(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	exp, _, err := rc.Find([]string{"experiments"})
	require.NoError(t, err)
	require.NoError(t, exp.Flags().Set("config", conf))
	require.NoError(t, rc.PersistentPreRunE(exp, nil))

	assert.Equal(t, "envuser", exp.Flags().Lookup("user").Value.String())
	assert.Equal(t, "filepass", exp.Flags().Lookup("password").Value.String())
}
