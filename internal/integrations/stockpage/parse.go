package stockpage

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/minhanee-art/kingtire/internal/inventory"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const discontinued = "단종"

// 1-based column positions in the stock table, before the checkbox offset
const (
	colBrand        = 1
	colModel        = 2
	colInternalCode = 3
	colSize         = 4
	colUniqueCode   = 5
	colStock        = 9
	colSupplyPrice  = 10
	colStatus       = 15
)

// Parse extracts inventory rows from a stock-list HTML page. Discontinued rows
// and rows without any identifier are skipped; duplicates collapse.
func Parse(r io.Reader) ([]inventory.Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("stock page html: %w", err)
	}

	var rows []*html.Node
	for _, t := range findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Table && hasClass(n, "stock-list_table")
	}) {
		rows = append(rows, findAll(t, func(n *html.Node) bool { return n.DataAtom == atom.Tr })...)
	}
	if len(rows) == 0 {
		return []inventory.Entry{}, nil
	}

	offset := 0
	if first := firstCell(rows[0]); first != nil {
		if len(findAll(first, isCheckbox)) > 0 || textOf(first) == "" {
			offset = 1
		}
	}
	idx := func(n int) int { return n - 1 + offset }

	out := make([]inventory.Entry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cols := findAll(row, func(n *html.Node) bool { return n.DataAtom == atom.Td })
		if len(cols) < 5 {
			continue
		}
		cell := func(n int) *html.Node {
			if i := idx(n); i < len(cols) {
				return cols[i]
			}
			return nil
		}

		if strings.Contains(textOf(cell(colStatus)), discontinued) || strings.Contains(textOf(row), discontinued) {
			continue
		}

		e := inventory.Entry{
			Brand:        textOf(cell(colBrand)),
			Model:        textOf(cell(colModel)),
			InternalCode: textOf(cell(colInternalCode)),
			Size:         textOf(cell(colSize)),
			PartNo:       inputOrText(cell(colUniqueCode), false),
			TotalStock:   digits(textOf(cell(colStock))),
			SupplyPrice:  digits(inputOrText(cell(colSupplyPrice), true)),
		}
		for _, in := range findAll(row, func(n *html.Node) bool { return n.DataAtom == atom.Input }) {
			name := attr(in, "name")
			if strings.Contains(name, "it_id") {
				e.ItID = strings.TrimSpace(attr(in, "value"))
			}
			if strings.Contains(name, "st_id") {
				e.StID = strings.TrimSpace(attr(in, "value"))
			}
		}

		e, ok := inventory.Clean(e)
		if !ok {
			continue
		}
		out = append(out, e)
	}
	return inventory.Dedupe(out), nil
}

func firstCell(tr *html.Node) *html.Node {
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom == atom.Th || c.DataAtom == atom.Td {
			return c
		}
	}
	return nil
}

// inputOrText returns the value of the cell's input, or its text. textOnly
// restricts the input lookup to type="text".
func inputOrText(n *html.Node, textOnly bool) string {
	if n == nil {
		return ""
	}
	for _, in := range findAll(n, func(c *html.Node) bool { return c.DataAtom == atom.Input }) {
		if textOnly && !strings.EqualFold(attr(in, "type"), "text") {
			continue
		}
		return strings.TrimSpace(attr(in, "value"))
	}
	return textOf(n)
}

func isCheckbox(n *html.Node) bool {
	return n.DataAtom == atom.Input && strings.EqualFold(attr(n, "type"), "checkbox")
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, c)
			}
			walk(c.FirstChild)
		}
	}
	walk(n.FirstChild)
	return out
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func digits(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, _ := strconv.ParseInt(b.String(), 10, 64)
	return n
}
