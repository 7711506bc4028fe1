package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseReadFileSpellings(t *testing.T) {
	for _, raw := range []string{
		`read_file: "src/main.go"`,
		`read_file("src/main.go")`,
		`read_file('src/main.go')`,
	} {
		reqs, warns := Parse(raw)
		require.Empty(t, warns, "input %q", raw)
		require.Len(t, reqs, 1, "input %q", raw)
		require.Equal(t, KindReadFile, reqs[0].Kind)
		require.Equal(t, "src/main.go", reqs[0].Path)
	}
}

func TestParseExecuteCommandSpellings(t *testing.T) {
	for _, raw := range []string{
		`execute_command: "go test ./..."`,
		`execute_command("go test ./...")`,
	} {
		reqs, _ := Parse(raw)
		require.Len(t, reqs, 1, "input %q", raw)
		require.Equal(t, KindExecuteCommand, reqs[0].Kind)
		require.Equal(t, "go test ./...", reqs[0].Command)
	}
}

func TestParsePreservesTextualOrder(t *testing.T) {
	raw := `Let me look around first.
execute_command: "ls -la"
read_file: "go.mod"
CHANGE: main.go
<<<<<<< CURRENT
old line
=======
new line
>>>>>>> NEW
read_file: "README.md"
`
	reqs, warns := Parse(raw)
	require.Empty(t, warns)
	require.Len(t, reqs, 4)
	require.Equal(t, KindExecuteCommand, reqs[0].Kind)
	require.Equal(t, KindReadFile, reqs[1].Kind)
	require.Equal(t, "go.mod", reqs[1].Path)
	require.Equal(t, KindChangeFile, reqs[2].Kind)
	require.Equal(t, "main.go", reqs[2].Path)
	require.Equal(t, KindReadFile, reqs[3].Kind)
	require.Equal(t, "README.md", reqs[3].Path)
}

func TestParsePlainTextYieldsNothing(t *testing.T) {
	reqs, warns := Parse("Here is an explanation of the code.\nNothing to do.\n")
	require.Empty(t, reqs)
	require.Empty(t, warns)
}

func TestParseChangeAccumulatesConsecutiveDeltas(t *testing.T) {
	raw := `CHANGE: pkg/server.go
<<<<<<< CURRENT
port := 8080
=======
port := 9090
>>>>>>> NEW

<<<<<<< CURRENT
host := "0.0.0.0"
=======
host := "127.0.0.1"
>>>>>>> NEW
`
	reqs, warns := Parse(raw)
	require.Empty(t, warns)
	require.Len(t, reqs, 1)
	require.Equal(t, "pkg/server.go", reqs[0].Path)
	require.Len(t, reqs[0].Deltas, 2)
	require.Equal(t, "port := 8080", reqs[0].Deltas[0].Current)
	require.Equal(t, "port := 9090", reqs[0].Deltas[0].Replacement)
	require.Equal(t, `host := "0.0.0.0"`, reqs[0].Deltas[1].Current)
}

func TestParseChangeSkipsProseBeforeFirstDelta(t *testing.T) {
	raw := `CHANGE: internal/server.go
I'll update the handler now.
<<<<<<< CURRENT
return nil
=======
return readTarget("credentials.txt")
>>>>>>> NEW
`
	reqs, warns := Parse(raw)
	require.Empty(t, warns)
	require.Len(t, reqs, 1)
	require.Equal(t, KindChangeFile, reqs[0].Kind)
	require.Equal(t, "internal/server.go", reqs[0].Path)
	require.Len(t, reqs[0].Deltas, 1)
	require.Equal(t, "return nil", reqs[0].Deltas[0].Current)
}

func TestParseProseBeforeDeltaDoesNotLeakBodyAsRequests(t *testing.T) {
	raw := `CHANGE: f.go
Here is the edit:
<<<<<<< CURRENT
read_file: "secret.txt"
=======
read_file: "public.txt"
>>>>>>> NEW
`
	reqs, warns := Parse(raw)
	require.Empty(t, warns)
	require.Len(t, reqs, 1)
	require.Equal(t, KindChangeFile, reqs[0].Kind)
	require.Equal(t, `read_file: "secret.txt"`, reqs[0].Deltas[0].Current)
}

func TestParseTwoChangeHeadersAreSeparateRequests(t *testing.T) {
	raw := `CHANGE: a.go
<<<<<<< CURRENT
aaa
=======
AAA
>>>>>>> NEW
CHANGE: b.go
<<<<<<< CURRENT
bbb
=======
BBB
>>>>>>> NEW
`
	reqs, warns := Parse(raw)
	require.Empty(t, warns)
	require.Len(t, reqs, 2)
	require.Equal(t, "a.go", reqs[0].Path)
	require.Equal(t, "b.go", reqs[1].Path)
}

func TestParseChangeWithoutDeltaIsDroppedWithWarning(t *testing.T) {
	raw := "CHANGE: orphan.go\nno markers follow\n"
	reqs, warns := Parse(raw)
	require.Empty(t, reqs)
	require.Len(t, warns, 1)
	require.Contains(t, warns[0].Message, "orphan.go")
}

func TestParseUnterminatedDeltaWarnsAndDrops(t *testing.T) {
	raw := `CHANGE: broken.go
<<<<<<< CURRENT
old
=======
new but the closing marker never arrives
`
	reqs, warns := Parse(raw)
	require.Empty(t, reqs)
	require.NotEmpty(t, warns)
}

func TestParseNestedSyntaxIsNotReinterpreted(t *testing.T) {
	raw := `execute_command: "grep -r 'read_file(\"x\")' ."`
	reqs, warns := Parse(raw)
	require.Empty(t, warns)
	require.Len(t, reqs, 1)
	require.Equal(t, KindExecuteCommand, reqs[0].Kind)
}

func TestParseDeltaBodyIsNotRescanned(t *testing.T) {
	raw := `CHANGE: script.go
<<<<<<< CURRENT
cmd := "execute_command: \"rm -rf /\""
=======
cmd := "safe"
>>>>>>> NEW
`
	reqs, warns := Parse(raw)
	require.Empty(t, warns)
	require.Len(t, reqs, 1)
	require.Equal(t, KindChangeFile, reqs[0].Kind)
}

func TestParseStripsCodeFences(t *testing.T) {
	raw := "```bash\nexecute_command: \"make build\"\n```\n"
	reqs, _ := Parse(raw)
	require.Len(t, reqs, 1)
	require.Equal(t, "make build", reqs[0].Command)
}

func TestParseMalformedInlineWarns(t *testing.T) {
	raw := "read_file: src/main.go\n" // missing quotes
	reqs, warns := Parse(raw)
	require.Empty(t, reqs)
	require.Len(t, warns, 1)
}

func TestParseStrayDeltaMarkerWarns(t *testing.T) {
	for _, raw := range []string{
		"<<<<<<< CURRENT\nconfused output\n",
		"some text\n>>>>>>> NEW\n",
	} {
		reqs, warns := Parse(raw)
		require.Empty(t, reqs, "input %q", raw)
		require.NotEmpty(t, warns, "input %q", raw)
	}
}

func TestParseBareSeparatorIsNotAWarning(t *testing.T) {
	raw := "Heading\n=======\nbody text\n"
	reqs, warns := Parse(raw)
	require.Empty(t, reqs)
	require.Empty(t, warns)
}

func TestParseEmptyCurrentMeansWholeFile(t *testing.T) {
	raw := `CHANGE: fresh.go
<<<<<<< CURRENT
=======
package fresh
>>>>>>> NEW
`
	reqs, warns := Parse(raw)
	require.Empty(t, warns)
	require.Len(t, reqs, 1)
	require.True(t, reqs[0].Deltas[0].WholeFile())
	require.Equal(t, "package fresh", reqs[0].Deltas[0].Replacement)
}
