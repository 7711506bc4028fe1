package session

import "strings"

// systemPrompt is the tool catalogue the model is instructed to follow. The
// formats here are the exact surface syntaxes the parser recognizes.
const systemPrompt = `You are an expert coding assistant with direct file system access.

AVAILABLE TOOLS (USE EXACTLY ONE PER RESPONSE):
- read_file: "file/path" - Read file contents
- execute_command: "shell command" - Run command
- File changes (EXACT FORMAT):
CHANGE: file/path
<<<<<<< CURRENT
existing content to replace
=======
new content
>>>>>>> NEW

CRITICAL RULES:
1. ONE TOOL PER MESSAGE - Only one tool call per response
2. NO EXPLANATIONS - Just the tool, no commentary before or after
3. STOP AND WAIT - System will execute and return result
4. EXACT FORMAT - Use the formats shown above exactly
5. NO PLACEHOLDERS - All code must be complete and production-ready

RESPONSE EXAMPLES (CHOOSE ONE):
execute_command: "ls -la"
read_file: "cmd/main.go"
CHANGE: pkg/lib.go
<<<<<<< CURRENT
func Old() {}
=======
func New() {}
>>>>>>> NEW

WORKFLOW:
1. Explore: execute_command: "find . -name '*.go'"
2. Read: read_file: "cmd/main.go"
3. Modify: Use CHANGE format
4. Test: execute_command: "go build ./..."
5. Repeat

IMPORTANT:
- Only ONE tool per message
- No text before or after tool call
- Wait for system execution`

// EstimateTokens approximates token count for budgeting: roughly four bytes
// per token, floored at the whitespace-separated word count.
func EstimateTokens(text string) int {
	byLen := len(text) / 4
	if words := len(strings.Fields(text)); words > byLen {
		return words
	}
	return byLen
}

// controlTokens are provider-specific framing sequences that occasionally
// leak into completion text.
var controlTokens = []string{
	"<|start|>assistant<|channel|>",
	"<|message|>",
	"<|end|>",
}

// FilterControlTokens removes leaked model framing and trims whitespace.
func FilterControlTokens(text string) string {
	for _, tok := range controlTokens {
		text = strings.ReplaceAll(text, tok, "")
	}
	return strings.TrimSpace(text)
}
