package permission

import (
	"fmt"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Command represents one simple command parsed out of a shell line.
type Command struct {
	Name string   // command name (e.g. "rm", "git")
	Args []string // arguments following the name
}

// ParseCommands parses a shell command line into its simple commands,
// descending into pipelines, lists, and substitutions.
func ParseCommands(command string) ([]Command, error) {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)

	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	var commands []Command
	syntax.Walk(file, func(node syntax.Node) bool {
		if call, ok := node.(*syntax.CallExpr); ok {
			if cmd := extractCommand(call); cmd != nil {
				commands = append(commands, *cmd)
			}
		}
		return true
	})

	return commands, nil
}

func extractCommand(call *syntax.CallExpr) *Command {
	if len(call.Args) == 0 {
		return nil
	}

	cmd := &Command{Name: wordToString(call.Args[0])}
	if cmd.Name == "" {
		return nil
	}

	for _, arg := range call.Args[1:] {
		cmd.Args = append(cmd.Args, wordToString(arg))
	}
	return cmd
}

func wordToString(word *syntax.Word) string {
	var sb strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, qp := range p.Parts {
				if lit, ok := qp.(*syntax.Lit); ok {
					sb.WriteString(lit.Value)
				}
			}
		case *syntax.ParamExp:
			sb.WriteString("$" + p.Param.Value)
		case *syntax.CmdSubst:
			sb.WriteString("$()")
		}
	}
	return sb.String()
}

// destructiveCommands modify or remove files and need their path
// arguments vetted before execution.
var destructiveCommands = map[string]bool{
	"rm":    true,
	"cp":    true,
	"mv":    true,
	"mkdir": true,
	"touch": true,
	"chmod": true,
	"chown": true,
	"rmdir": true,
	"dd":    true,
	"tee":   true,
	"ln":    true,
}

// IsDestructiveCommand checks if a command mutates the filesystem.
func IsDestructiveCommand(name string) bool {
	return destructiveCommands[name]
}

// ExtractPaths extracts candidate file paths from command arguments,
// skipping flags and chmod mode arguments.
func ExtractPaths(cmd Command) []string {
	var paths []string
	for _, arg := range cmd.Args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		if cmd.Name == "chmod" && looksLikeMode(arg) {
			continue
		}
		paths = append(paths, arg)
	}
	return paths
}

func looksLikeMode(arg string) bool {
	if arg == "" {
		return false
	}
	c := arg[0]
	return c >= '0' && c <= '9' ||
		c == 'u' || c == 'g' || c == 'o' || c == 'a' ||
		c == '+' || c == '='
}

// ResolveCommandPath resolves a command argument to an absolute path
// relative to workDir. Home-relative paths are returned untouched since
// they cannot be expanded safely here.
func ResolveCommandPath(path, workDir string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if strings.HasPrefix(path, "~") {
		return path
	}
	return filepath.Clean(filepath.Join(workDir, path))
}
