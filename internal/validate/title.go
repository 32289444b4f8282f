package validate

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Cap on how much of a response body is scanned for a <title>.
const maxTitleScanBytes = 1 << 20

// extractTitle tokenizes HTML until the document's <title> text is
// found. The tokenizer unescapes entities, so "Foo &amp; Bar" comes
// back as "Foo & Bar". Returns "" for malformed or title-less content.
func extractTitle(r io.Reader) string {
	z := html.NewTokenizer(io.LimitReader(r, maxTitleScanBytes))

	inTitle := false
	var title strings.Builder

	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = true
			case "body":
				// No title before the body; stop scanning.
				return ""
			}
		case html.TextToken:
			if inTitle {
				title.Write(z.Text())
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "title" {
				return strings.TrimSpace(title.String())
			}
		}
	}
}
