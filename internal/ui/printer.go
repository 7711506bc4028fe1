// Package ui renders chat turns to the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/GeneralBots/botcoder/internal/parser"
)

const (
	argPreviewLen    = 60
	resultPreviewLen = 200
)

// Printer writes styled chat output. All output goes to a single writer so
// ordering is preserved relative to the readline prompt.
type Printer struct {
	out io.Writer

	banner    lipgloss.Style
	assistant lipgloss.Style
	tool      lipgloss.Style
	result    lipgloss.Style
	info      lipgloss.Style
	errStyle  lipgloss.Style
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:       out,
		banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		tool:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		result:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		info:      lipgloss.NewStyle().Faint(true),
		errStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

// Welcome prints the startup banner.
func (p *Printer) Welcome(model, root string) {
	fmt.Fprintln(p.out, p.banner.Render("botcoder"))
	fmt.Fprintln(p.out, p.info.Render(fmt.Sprintf("model %s  project %s", model, root)))
	fmt.Fprintln(p.out, p.info.Render("type /help for commands"))
	fmt.Fprintln(p.out)
}

// Assistant prints the model's reply text.
func (p *Printer) Assistant(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Fprintln(p.out, p.assistant.Render(text))
}

// Tool announces a tool invocation before it runs.
func (p *Printer) Tool(req parser.Request) {
	arg := truncate(req.Argument(), argPreviewLen)
	fmt.Fprintln(p.out, p.tool.Render(fmt.Sprintf("[%s] %s", req.Kind, arg)))
}

// Result prints a truncated preview of a tool's output.
func (p *Printer) Result(text string, failed bool) {
	preview := truncate(strings.TrimRight(text, "\n"), resultPreviewLen)
	if failed {
		fmt.Fprintln(p.out, p.errStyle.Render(preview))
		return
	}
	fmt.Fprintln(p.out, p.result.Render(preview))
}

// Info prints a dim status line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.out, p.info.Render(fmt.Sprintf(format, args...)))
}

// Error prints a failure the user should see.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(p.out, p.errStyle.Render("error: "+err.Error()))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > max/2 {
		cut = cut[:i]
	}
	return cut + "..."
}
