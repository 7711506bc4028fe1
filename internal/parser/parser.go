// Package parser extracts structured tool requests from raw model output.
//
// Recognition is purely structural: the scanner walks the text line by line
// looking for literal markers, and never re-scans spans it has already
// consumed. Text inside a command string or a delta body is taken verbatim.
package parser

import (
	"strings"

	"github.com/GeneralBots/botcoder/internal/patch"
)

const (
	changeHeader  = "CHANGE:"
	markerCurrent = "<<<<<<< CURRENT"
	markerSep     = "======="
	markerNew     = ">>>>>>> NEW"
)

// Parse scans raw model output and returns tool requests in the order their
// opening marker appears, together with warnings for malformed segments.
// Malformed segments are skipped, never fatal.
func Parse(raw string) ([]Request, []Warning) {
	lines := strings.Split(raw, "\n")

	var reqs []Request
	var warns []Warning

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "```"):
			i++

		case strings.HasPrefix(trimmed, changeHeader):
			req, next, ws := parseChange(lines, i)
			warns = append(warns, ws...)
			if len(req.Deltas) > 0 {
				reqs = append(reqs, req)
			}
			i = next

		case strings.HasPrefix(trimmed, markerCurrent), strings.HasPrefix(trimmed, markerNew):
			warns = append(warns, Warning{Line: i + 1, Message: "delta marker without CHANGE header"})
			i++

		// Bare ======= lines double as markdown underlines, so they pass
		// without a warning.
		case strings.HasPrefix(trimmed, markerSep):
			i++

		default:
			req, ok, malformed := parseInline(trimmed)
			if ok {
				reqs = append(reqs, req)
			} else if malformed {
				warns = append(warns, Warning{Line: i + 1, Message: "malformed tool invocation: " + trimmed})
			}
			i++
		}
	}
	return reqs, warns
}

// parseChange consumes a CHANGE header and its delta regions starting at
// index i. It returns the accumulated request, the index of the first
// unconsumed line, and any warnings.
func parseChange(lines []string, i int) (Request, int, []Warning) {
	var warns []Warning

	header := strings.TrimSpace(lines[i])
	path := strings.TrimSpace(strings.TrimPrefix(header, changeHeader))
	if path == "" {
		warns = append(warns, Warning{Line: i + 1, Message: "CHANGE header without file path"})
		return Request{}, i + 1, warns
	}

	// Prose may sit between the header and the first region; everything up
	// to the first CURRENT marker belongs to this request and is consumed,
	// never re-scanned for tool syntax.
	j := i + 1
	for j < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[j]), markerCurrent) {
		j++
	}
	if j >= len(lines) {
		warns = append(warns, Warning{Line: i + 1, Message: "CHANGE header without well-formed delta block: " + path})
		return Request{}, j, warns
	}

	var deltas []patch.Delta
	for {
		delta, next, ok := parseDeltaRegion(lines, j)
		if !ok {
			warns = append(warns, Warning{Line: j + 1, Message: "unterminated delta block for " + path})
			j = next
			break
		}
		deltas = append(deltas, delta)
		j = next

		// Only blank and fence lines may separate consecutive regions;
		// anything else belongs to whatever follows the request.
		k := j
		for k < len(lines) {
			t := strings.TrimSpace(lines[k])
			if t == "" || strings.HasPrefix(t, "```") {
				k++
				continue
			}
			break
		}
		if k >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[k]), markerCurrent) {
			break
		}
		j = k
	}

	if len(deltas) == 0 {
		return Request{}, j, warns
	}

	return Request{Kind: KindChangeFile, Path: path, Deltas: deltas}, j, warns
}

// parseDeltaRegion consumes one CURRENT/separator/NEW region starting at the
// CURRENT marker line. ok is false when the region ends before its closing
// marker.
func parseDeltaRegion(lines []string, i int) (patch.Delta, int, bool) {
	j := i + 1

	var current []string
	for j < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[j]), markerSep) {
		current = append(current, lines[j])
		j++
	}
	if j >= len(lines) {
		return patch.Delta{}, j, false
	}
	j++

	var replacement []string
	for j < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[j]), markerNew) {
		replacement = append(replacement, lines[j])
		j++
	}
	if j >= len(lines) {
		return patch.Delta{}, j, false
	}
	j++

	return patch.Delta{
		Current:     strings.TrimSpace(strings.Join(current, "\n")),
		Replacement: strings.TrimSpace(strings.Join(replacement, "\n")),
	}, j, true
}

// parseInline recognizes single-line read_file / execute_command invocations
// in both accepted spellings. When a line mentions a tool in call position
// but the argument cannot be extracted, malformed is true.
func parseInline(line string) (req Request, ok bool, malformed bool) {
	name, kind, at := earliestTool(line)
	if at < 0 {
		return Request{}, false, false
	}

	param, ok := extractParam(line[at:], name)
	if !ok {
		return Request{}, false, true
	}

	switch kind {
	case KindReadFile:
		return Request{Kind: KindReadFile, Path: param}, true, false
	default:
		return Request{Kind: KindExecuteCommand, Command: param}, true, false
	}
}

// earliestTool finds the leftmost tool name appearing in call position, so a
// tool name nested inside another invocation's argument is never picked up.
func earliestTool(line string) (string, Kind, int) {
	names := []struct {
		name string
		kind Kind
	}{
		{"read_file", KindReadFile},
		{"execute_command", KindExecuteCommand},
	}

	best := -1
	var bestName string
	var bestKind Kind
	for _, n := range names {
		idx := strings.Index(line, n.name)
		if idx < 0 {
			continue
		}
		rest := line[idx+len(n.name):]
		if !strings.HasPrefix(rest, "(") && !strings.HasPrefix(rest, ":") {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			bestName = n.name
			bestKind = n.kind
		}
	}
	return bestName, bestKind, best
}

func extractParam(s, name string) (string, bool) {
	rest := s[len(name):]

	if strings.HasPrefix(rest, "(") {
		end := strings.Index(rest, ")")
		if end < 0 {
			return "", false
		}
		inner := strings.TrimSpace(rest[1:end])
		inner = strings.Trim(inner, `"'`)
		if inner == "" {
			return "", false
		}
		return inner, true
	}

	if strings.HasPrefix(rest, ":") {
		return betweenQuotes(strings.TrimSpace(rest[1:]))
	}

	return "", false
}

func betweenQuotes(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	quote := s[0]
	if quote != '"' && quote != '\'' {
		return "", false
	}
	end := strings.IndexByte(s[1:], quote)
	if end < 0 {
		return "", false
	}
	inner := s[1 : 1+end]
	if inner == "" {
		return "", false
	}
	return inner, true
}
