package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommands_Simple(t *testing.T) {
	commands, err := ParseCommands("rm -rf /tmp/build")
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, "rm", commands[0].Name)
	assert.Equal(t, []string{"-rf", "/tmp/build"}, commands[0].Args)
}

func TestParseCommands_Pipeline(t *testing.T) {
	commands, err := ParseCommands("cat access.log | grep error | tee /tmp/errors.txt")
	require.NoError(t, err)
	require.Len(t, commands, 3)
	assert.Equal(t, "cat", commands[0].Name)
	assert.Equal(t, "grep", commands[1].Name)
	assert.Equal(t, "tee", commands[2].Name)
}

func TestParseCommands_List(t *testing.T) {
	commands, err := ParseCommands("mkdir /tmp/out && cp a.txt /tmp/out/")
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, "mkdir", commands[0].Name)
	assert.Equal(t, "cp", commands[1].Name)
}

func TestParseCommands_Quoted(t *testing.T) {
	commands, err := ParseCommands(`rm "file with spaces.txt" 'another one.txt'`)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, []string{"file with spaces.txt", "another one.txt"}, commands[0].Args)
}

func TestParseCommands_Invalid(t *testing.T) {
	_, err := ParseCommands("rm $(unterminated")
	assert.Error(t, err)
}

func TestIsDestructiveCommand(t *testing.T) {
	for _, name := range []string{"rm", "cp", "mv", "mkdir", "touch", "chmod", "chown", "dd", "tee", "ln"} {
		assert.True(t, IsDestructiveCommand(name), name)
	}
	for _, name := range []string{"ls", "cat", "grep", "echo", "git", "go"} {
		assert.False(t, IsDestructiveCommand(name), name)
	}
}

func TestExtractPaths_SkipsFlags(t *testing.T) {
	cmd := Command{Name: "rm", Args: []string{"-rf", "--verbose", "/tmp/a", "b.txt"}}
	assert.Equal(t, []string{"/tmp/a", "b.txt"}, ExtractPaths(cmd))
}

func TestExtractPaths_ChmodSkipsMode(t *testing.T) {
	cmd := Command{Name: "chmod", Args: []string{"755", "script.sh"}}
	assert.Equal(t, []string{"script.sh"}, ExtractPaths(cmd))

	cmd = Command{Name: "chmod", Args: []string{"u+x", "script.sh"}}
	assert.Equal(t, []string{"script.sh"}, ExtractPaths(cmd))
}

func TestResolveCommandPath(t *testing.T) {
	tests := []struct {
		path    string
		workDir string
		want    string
	}{
		{"/etc/hosts", "/home/user", "/etc/hosts"},
		{"/tmp/../tmp/a", "/home/user", "/tmp/a"},
		{"src/main.go", "/home/user/project", "/home/user/project/src/main.go"},
		{"./a.txt", "/home/user", "/home/user/a.txt"},
		{"~/notes.txt", "/home/user", "~/notes.txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveCommandPath(tt.path, tt.workDir), tt.path)
	}
}
