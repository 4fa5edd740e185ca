// File: internal/docreader/reader.go
package docreader

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// SourceError reports that the structured document could not be read at
// all. Escalated to a step failure by the controller.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("document source %q unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// cell tags recognized as the two halves of a record row. The format
// contract is "a sequence of two-cell rows", independent of the
// surrounding markup.
var labelTags = map[string]bool{"dt": true, "th": true, "td": true}
var valueTags = map[string]bool{"dd": true, "td": true}

// ParseRows extracts every two-cell row from the document and returns a
// label → value mapping with incidental markup and whitespace trimmed from
// both sides. Later rows overwrite earlier ones with the same label; that
// is deliberate, the last occurrence wins. A document with no matching
// rows yields an empty map, not an error.
func ParseRows(r io.Reader) (map[string]string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	out := make(map[string]string)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if label, value, ok := twoCellRow(n); ok {
				if label != "" {
					out[label] = value
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out, nil
}

// twoCellRow reports whether n contains exactly two cell elements and, if
// so, returns their trimmed text.
func twoCellRow(n *html.Node) (label, value string, ok bool) {
	var cells []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		cells = append(cells, c)
		if len(cells) > 2 {
			return "", "", false
		}
	}
	if len(cells) != 2 || !labelTags[cells[0].Data] || !valueTags[cells[1].Data] {
		return "", "", false
	}
	return strings.TrimSpace(textContent(cells[0])), strings.TrimSpace(textContent(cells[1])), true
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(c *html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	walk(n)
	return sb.String()
}

// PageReader reads the live document over the browser session and
// delegates row extraction to ParseRows.
type PageReader struct {
	url    string
	logger *zap.Logger
}

// NewPageReader creates a reader for the document served at url.
func NewPageReader(url string, logger *zap.Logger) *PageReader {
	return &PageReader{url: url, logger: logger.Named("docreader")}
}

// ReadTable navigates to the document and extracts its label → value rows.
func (p *PageReader) ReadTable(ctx context.Context) (map[string]string, error) {
	var raw string
	err := chromedp.Run(ctx,
		chromedp.Navigate(p.url),
		chromedp.OuterHTML("html", &raw, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &SourceError{Source: p.url, Err: err}
	}

	rows, err := ParseRows(strings.NewReader(raw))
	if err != nil {
		return nil, &SourceError{Source: p.url, Err: err}
	}
	p.logger.Debug("Document rows extracted", zap.Int("rows", len(rows)))
	return rows, nil
}
