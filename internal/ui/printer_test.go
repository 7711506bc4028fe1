package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GeneralBots/botcoder/internal/parser"
)

func TestPrinterOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Welcome("gpt-4o-mini", "/tmp/project")
	p.Assistant("here is the plan")
	p.Tool(parser.Request{Kind: parser.KindReadFile, Path: "main.go"})
	p.Result("package main", false)
	p.Error(errors.New("boom"))

	out := buf.String()
	require.Contains(t, out, "botcoder")
	require.Contains(t, out, "gpt-4o-mini")
	require.Contains(t, out, "here is the plan")
	require.Contains(t, out, "read_file")
	require.Contains(t, out, "main.go")
	require.Contains(t, out, "package main")
	require.Contains(t, out, "error: boom")
}

func TestPrinterSkipsEmptyAssistant(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Assistant("   \n")
	require.Empty(t, buf.String())
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))

	long := strings.Repeat("x", 300)
	got := truncate(long, 200)
	require.True(t, strings.HasSuffix(got, "..."))
	require.LessOrEqual(t, len(got), 203)
}
