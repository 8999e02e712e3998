// Package lexical flattens notes saved by the Lexical rich text editor into
// plain text suitable for a prompt.
package lexical

import (
	"encoding/json"
	"fmt"
	"strings"
)

type document struct {
	Root node `json:"root"`
}

type node struct {
	Type     string `json:"type"`
	Children []node `json:"children,omitempty"`
	Text     string `json:"text,omitempty"`
	URL      string `json:"url,omitempty"`
	ListType string `json:"listType,omitempty"`
	Start    int    `json:"start,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
}

// PlainText returns the text of content when it is a Lexical document and
// content unchanged otherwise.
func PlainText(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, `{"root":`) {
		return content
	}

	text, err := Parse(trimmed)
	if err != nil {
		return content
	}
	return text
}

// Parse flattens a Lexical JSON document. Block nodes end with a newline.
func Parse(doc string) (string, error) {
	var d document
	if err := json.Unmarshal([]byte(doc), &d); err != nil {
		return "", fmt.Errorf("failed to parse lexical json: %w", err)
	}

	var sb strings.Builder
	for _, child := range d.Root.Children {
		writeBlock(&sb, child, 0)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func writeBlock(sb *strings.Builder, n node, depth int) {
	switch n.Type {
	case "list":
		writeList(sb, n, depth)
	case "table":
		writeTable(sb, n)
	case "horizontalrule":
		sb.WriteString("\n")
	default:
		writeInline(sb, n.Children)
		sb.WriteString("\n")
	}
}

func writeInline(sb *strings.Builder, nodes []node) {
	for _, n := range nodes {
		switch n.Type {
		case "text":
			sb.WriteString(n.Text)
		case "linebreak":
			sb.WriteString("\n")
		case "tab":
			sb.WriteString("\t")
		case "link", "autolink":
			writeInline(sb, n.Children)
			if n.URL != "" {
				fmt.Fprintf(sb, " (%s)", n.URL)
			}
		default:
			writeInline(sb, n.Children)
		}
	}
}

func writeList(sb *strings.Builder, n node, depth int) {
	index := max(n.Start, 1)

	for _, item := range n.Children {
		if item.Type != "listitem" {
			continue
		}

		// a nested list arrives as the only child of its own listitem
		if len(item.Children) == 1 && item.Children[0].Type == "list" {
			writeList(sb, item.Children[0], depth+1)
			continue
		}

		sb.WriteString(strings.Repeat("  ", depth))
		switch n.ListType {
		case "number":
			fmt.Fprintf(sb, "%d. ", index)
			index++
		case "check":
			if item.Checked {
				sb.WriteString("[x] ")
			} else {
				sb.WriteString("[ ] ")
			}
		default:
			sb.WriteString("- ")
		}

		var nested []node
		var inline []node
		for _, c := range item.Children {
			if c.Type == "list" {
				nested = append(nested, c)
				continue
			}
			inline = append(inline, c)
		}
		writeInline(sb, inline)
		sb.WriteString("\n")
		for _, l := range nested {
			writeList(sb, l, depth+1)
		}
	}
}

func writeTable(sb *strings.Builder, n node) {
	for _, row := range n.Children {
		if row.Type != "tablerow" {
			continue
		}
		cells := make([]string, 0, len(row.Children))
		for _, cell := range row.Children {
			var cb strings.Builder
			for _, c := range cell.Children {
				writeInline(&cb, c.Children)
				cb.WriteString(" ")
			}
			cells = append(cells, strings.TrimSpace(cb.String()))
		}
		sb.WriteString(strings.Join(cells, " | "))
		sb.WriteString("\n")
	}
}
