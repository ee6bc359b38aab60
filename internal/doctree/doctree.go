package doctree

import "strings"

// DocTree is the root of a parsed page.
type DocTree struct {
	Title    string     // From <title>, the first heading or the URL name
	Source   string     // URL the tree was parsed from
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// Chunk is a sized text segment with structural context.
type Chunk struct {
	Text       string
	Index      int      // Sequence number within the page
	Breadcrumb []string // Heading hierarchy, e.g. ["Guides", "Install", "Linux"]
	PageStart  int
	PageEnd    int
}

// Flatten joins the text of every node in depth-first order. Section titles
// are emitted on their own line ahead of their text.
func (t *DocTree) Flatten() string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	write := func(s string) {
		if s == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(s)
	}
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			write(n.Title)
			write(n.Text)
			walk(n.Children)
		}
	}
	walk(t.Children)
	return sb.String()
}

// Empty reports whether the tree carries no text at all.
func (t *DocTree) Empty() bool {
	return strings.TrimSpace(t.Flatten()) == ""
}
