package output

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "dracula"

// HighlightSnippet renders code for the terminal, picking a lexer from
// filename. It returns code unchanged when no lexer matches or formatting
// fails.
func HighlightSnippet(filename, code, style string) string {
	lexer := lexerForFile(filename)
	if lexer == nil {
		return code
	}

	st := styles.Get(style)
	if st == nil || style == "" {
		st = styles.Get(DefaultStyle)
	}
	if st == nil {
		st = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return code
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var b strings.Builder
	if err := formatter.Format(&b, st, iterator); err != nil {
		return code
	}
	return b.String()
}

func lexerForFile(filename string) chroma.Lexer {
	lexer := lexers.Match(filename)
	if lexer == nil {
		if ext := filepath.Ext(filename); ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer != nil {
		lexer = chroma.Coalesce(lexer)
	}
	return lexer
}

// snippet returns code as configured on u, indented for display under a
// suggestion.
func (u *UI) snippet(filename, code string) string {
	if u.Highlight {
		code = HighlightSnippet(filename, code, u.Style)
	}
	code = strings.TrimRight(code, "\n")
	lines := strings.Split(code, "\n")
	for i, l := range lines {
		lines[i] = "    │ " + l
	}
	return strings.Join(lines, "\n")
}
