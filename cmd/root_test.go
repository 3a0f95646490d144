package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootHelpListsSubcommands(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"--help"})

	require.NoError(t, rootCmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "index")
	assert.Contains(t, out, "query")
}

func TestVerbosityFromFlags(t *testing.T) {
	verboseFlag, debugFlag = false, false
	assert.Equal(t, 0, int(verbosityFromFlags()))

	verboseFlag = true
	assert.Equal(t, 1, int(verbosityFromFlags()))

	debugFlag = true
	assert.Equal(t, 2, int(verbosityFromFlags()))

	verboseFlag, debugFlag = false, false
}
