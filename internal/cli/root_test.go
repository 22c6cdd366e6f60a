package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "slideboard", cmd.Use)
	assert.Contains(t, cmd.Long, "SQLite")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"deck", "slide", "folder", "export", "import", "migrate", "present", "preview", "chat", "serve", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestSubcommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	paths := [][]string{
		{"deck", "create"}, {"deck", "list"}, {"deck", "show"}, {"deck", "rename"},
		{"deck", "delete"}, {"deck", "duplicate"}, {"deck", "move"}, {"deck", "use"},
		{"slide", "add"}, {"slide", "delete"}, {"slide", "duplicate"}, {"slide", "reorder"},
		{"slide", "clear"}, {"slide", "goto"}, {"slide", "template"},
		{"slide", "baseline", "save"}, {"slide", "baseline", "reset"}, {"slide", "baseline", "clear"},
		{"folder", "create"}, {"folder", "rename"}, {"folder", "delete"}, {"folder", "tree"},
		{"preview", "render"}, {"preview", "prune"},
	}
	for _, p := range paths {
		sub, _, err := cmd.Find(p)
		require.NoError(t, err, "%v", p)
		assert.Equal(t, p[len(p)-1], sub.Name())
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

	for _, name := range []string{"log-format", "config", "db"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestExportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	exportCmd, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)

	outputFlag := exportCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
	assert.NotNil(t, exportCmd.Flags().Lookup("clipboard"))
}

func TestSlideDeckFlag(t *testing.T) {
	cmd := NewRootCommand()
	slideCmd, _, err := cmd.Find([]string{"slide"})
	require.NoError(t, err)

	deckFlag := slideCmd.PersistentFlags().Lookup("deck")
	require.NotNil(t, deckFlag)
	assert.Equal(t, "d", deckFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"deck", "list", "--format", "yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestInvalidLogFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"deck", "list", "--log-format", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
