package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVParser_Batches(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("name,team\n")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&sb, "user%d,core\n", i)
	}

	p := &CSVParser{}
	tree, err := p.Parse(strings.NewReader(sb.String()), "https://example.com/export/users.csv")
	require.NoError(t, err)

	assert.Equal(t, "users", tree.Title)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "Rows 2-21", tree.Children[0].Title)
	assert.Equal(t, "Rows 22-26", tree.Children[1].Title)
	assert.Contains(t, tree.Children[0].Text, "Headers: name, team")
	assert.Contains(t, tree.Children[0].Text, "name: user0, team: core")
}

func TestCSVParser_RaggedRows(t *testing.T) {
	p := &CSVParser{}
	tree, err := p.Parse(strings.NewReader("a,b\n1,2,3\n4\n"), "ragged.csv")
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Contains(t, tree.Children[0].Text, "a: 1, b: 2, 3")
	assert.Contains(t, tree.Children[0].Text, "a: 4")
}

func TestCSVParser_Empty(t *testing.T) {
	p := &CSVParser{}
	tree, err := p.Parse(strings.NewReader(""), "empty.csv")
	require.NoError(t, err)
	assert.Empty(t, tree.Children)
}
