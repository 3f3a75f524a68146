package sample

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TableLines renders the largest <table> of an HTML document (most rows) as
// tab-separated sample lines, one per row. Cell text is whitespace-collapsed
// so cell content can never fake a row or column boundary. Sources that
// publish tabular data as HTML pages feed the guesser through this instead
// of a raw byte sample.
func TableLines(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("sample: parse html: %w", err)
	}

	var table *goquery.Selection
	rows := 0
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		if n := t.Find("tr").Length(); n > rows {
			table, rows = t, n
		}
	})
	if table == nil {
		return nil, fmt.Errorf("sample: no table element found")
	}

	var lines []string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, collapseSpace(cell.Text()))
		})
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, "\t"))
		}
	})
	return lines, nil
}

// collapseSpace folds all interior whitespace runs, including tabs and
// newlines, into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
