package cli

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c, _, _ := newTestCLI(nil)
	root := c.RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"analyze", "cache", "completion"})
}

func TestCompletionCommand(t *testing.T) {
	c, stdout, _ := newTestCLI(nil)
	root := c.RootCommand()
	root.SetArgs([]string{"completion", "bash"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, stdout.String(), "blastradius")
}

func TestCompletionRejectsUnknownShell(t *testing.T) {
	c, _, _ := newTestCLI(nil)
	root := c.RootCommand()
	root.SetArgs([]string{"completion", "tcsh"})
	root.SetErr(io.Discard)
	assert.Error(t, root.ExecuteContext(context.Background()))
}
