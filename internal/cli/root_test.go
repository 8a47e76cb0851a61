package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "idlbind", cmd.Use)
	assert.Contains(t, cmd.Long, "little-endian")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"generate", "validate", "inspect", "encode", "decode", "test", "history", "clean"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestGenerateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	generateCmd, _, err := cmd.Find([]string{"generate"})
	require.NoError(t, err)

	outputFlag := generateCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	for _, name := range []string{"prefix", "arrays", "no-codec", "records", "dry-run", "watch", "config", "manifest"} {
		assert.NotNil(t, generateCmd.Flags().Lookup(name), "flag --%s", name)
	}
}

func TestEncodeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	encodeCmd, _, err := cmd.Find([]string{"encode"})
	require.NoError(t, err)

	require.NotNil(t, encodeCmd.Flags().Lookup("value"))
	require.NotNil(t, encodeCmd.Flags().Lookup("value-file"))
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
}

func TestManifestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	historyCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)
	limitFlag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "20", limitFlag.DefValue)
	assert.NotNil(t, historyCmd.Flags().Lookup("manifest"))

	cleanCmd, _, err := cmd.Find([]string{"clean"})
	require.NoError(t, err)
	assert.NotNil(t, cleanCmd.Flags().Lookup("dry-run"))
	assert.NotNil(t, cleanCmd.Flags().Lookup("keep"))
	assert.Equal(t, "o", cleanCmd.Flags().Lookup("output").Shorthand)
}

func TestFormatValidation(t *testing.T) {
	// Test valid formats
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	// Test invalid formats
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "validate", "shapes.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
