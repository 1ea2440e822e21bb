package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyConfig(t *testing.T) {
	var file = filepath.Join(t.TempDir(), "editorial.ini")
	require.NoError(t, os.WriteFile(file, []byte("db = mysql://u:p@localhost/editorial\nlisten = 0.0.0.0:80\nhmac = unknown\n"), 0644))

	var flags = flag.NewFlagSet("test", flag.ContinueOnError)
	var db = flags.String("db", "sqlite3:default", "")
	var listen = flags.String("listen", "127.0.0.1:8080", "")
	require.NoError(t, flags.Parse([]string{"-listen", ":9000"}))

	require.NoError(t, applyConfig(flags, file))
	assert.Equal(t, "mysql://u:p@localhost/editorial", *db)
	assert.Equal(t, ":9000", *listen) // command line wins
}

func TestApplyConfigMissingFile(t *testing.T) {
	var flags = flag.NewFlagSet("test", flag.ContinueOnError)
	assert.Error(t, applyConfig(flags, filepath.Join(t.TempDir(), "missing.ini")))
}
