package parser

import "github.com/GeneralBots/botcoder/internal/patch"

// Kind identifies a tool request variant. The set is closed; dispatch over
// it is exhaustive.
type Kind int

const (
	KindReadFile Kind = iota
	KindExecuteCommand
	KindChangeFile
)

// String returns the tool name as it appears in model output.
func (k Kind) String() string {
	switch k {
	case KindReadFile:
		return "read_file"
	case KindExecuteCommand:
		return "execute_command"
	case KindChangeFile:
		return "change_file"
	default:
		return "unknown"
	}
}

// Request is a single parsed tool invocation. Path is set for read_file and
// change_file, Command for execute_command, Deltas for change_file.
// Requests are immutable once parsed.
type Request struct {
	Kind    Kind
	Path    string
	Command string
	Deltas  []patch.Delta
}

// Argument returns the request's primary argument for display.
func (r Request) Argument() string {
	if r.Kind == KindExecuteCommand {
		return r.Command
	}
	return r.Path
}

// Warning reports a malformed segment that was skipped during parsing.
type Warning struct {
	Line    int
	Message string
}
