package export

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/gorewood/wasdoing/internal/output"
)

// md converts journal Markdown to HTML. GFM covers the tables and
// strikethrough users put in entry content.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// htmlPage wraps the converted body in a minimal standalone page.
const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
code { background: #f4f4f4; padding: 0.1rem 0.3rem; }
</style>
</head>
<body>
%s</body>
</html>
`

// FormatHTML converts rendered Markdown document text to a standalone HTML
// page.
func FormatHTML(title, markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", output.NewSystemErrorWithCause("failed to convert markdown to HTML", err)
	}
	return fmt.Sprintf(htmlPage, title, buf.String()), nil
}

// WriteHTML converts the rendered Markdown and writes the HTML page to path
// atomically.
func WriteHTML(path, title, markdown string) error {
	page, err := FormatHTML(title, markdown)
	if err != nil {
		return err
	}
	return writeAtomic(path, []byte(page))
}
