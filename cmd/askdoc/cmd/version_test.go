package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/pkg/version"
)

func TestVersionCmd_Default(t *testing.T) {
	// Given: the version command
	cmd := newVersionCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	// When: executing it
	err := cmd.Execute()

	// Then: the full version string is printed
	require.NoError(t, err)
	assert.Contains(t, buf.String(), version.Version)
}

func TestVersionCmd_Short(t *testing.T) {
	// Given: the version command with --short
	cmd := newVersionCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--short"})

	// When: executing it
	err := cmd.Execute()

	// Then: only the bare version appears
	require.NoError(t, err)
	assert.Equal(t, version.Short()+"\n", buf.String())
}

func TestVersionCmd_JSON(t *testing.T) {
	// Given: the version command with --json
	cmd := newVersionCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--json"})

	// When: executing it
	err := cmd.Execute()

	// Then: the output is valid JSON with a version field
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, version.Version, info["version"])
}
