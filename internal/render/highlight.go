package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/alecthomas/chroma/v2"
	htmlfmt "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
)

// highlightStyle is the chroma style used for all generated markup.
const highlightStyle = "github"

// HighlightSource renders a syntax-highlighted listing of an entry's
// source for embedding into its page. The lexer is picked from the
// filename; unknown extensions fall back to plain text.
func HighlightSource(filename string, source []byte) (template.HTML, error) {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, string(source))
	if err != nil {
		return "", fmt.Errorf("tokenising %s: %w", filename, err)
	}

	formatter := htmlfmt.New(htmlfmt.WithLineNumbers(true))
	var buf bytes.Buffer
	if err := formatter.Format(&buf, styles.Get(highlightStyle), iterator); err != nil {
		return "", fmt.Errorf("formatting %s: %w", filename, err)
	}
	return template.HTML(buf.String()), nil // #nosec G203 -- chroma output over build-owned source
}

// descriptionMarkdown converts Markdown descriptions with GFM extensions
// and fenced-code highlighting.
var descriptionMarkdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(highlighting.WithStyle(highlightStyle)),
	),
)

// DescriptionHTML renders a Markdown description to HTML.
func DescriptionHTML(markdown string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := descriptionMarkdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering description: %w", err)
	}
	return template.HTML(buf.String()), nil // #nosec G203 -- goldmark-sanitized output
}
