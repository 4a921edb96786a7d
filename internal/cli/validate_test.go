package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fabula/internal/loader"
)

// executeCommand runs the root command with the given arguments and
// captured output streams.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidate_ValidStory(t *testing.T) {
	out, _, err := executeCommand(t, "validate", "testdata/stories/door.json")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Story valid")
}

func TestValidate_ValidStoryJSON(t *testing.T) {
	out, _, err := executeCommand(t, "validate", "testdata/stories/door.json", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
}

func TestValidate_InvalidStory(t *testing.T) {
	out, _, err := executeCommand(t, "validate", "testdata/stories/broken.json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, loader.ErrDanglingChoice)
}

func TestValidate_InvalidStoryJSON(t *testing.T) {
	out, _, err := executeCommand(t, "validate", "testdata/stories/broken.json", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, loader.ErrDanglingChoice, resp.Error.Code)
}

func TestValidate_MissingFile(t *testing.T) {
	_, _, err := executeCommand(t, "validate", "testdata/stories/nope.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_BadFormatFlag(t *testing.T) {
	_, _, err := executeCommand(t, "validate", "testdata/stories/door.json", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}
