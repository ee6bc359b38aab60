package chunker

import (
	"maps"
	"strconv"
	"strings"

	"github.com/dgallion1/sitegest/internal/doctree"
	"github.com/dgallion1/sitegest/internal/parser"
	"github.com/dgallion1/sitegest/internal/sitemap"
)

// KeyChunkIndex is added to the metadata of every split document.
const KeyChunkIndex = "chunk_index"

// KeyBreadcrumb holds the heading path of a Markdown section chunk, joined
// with BreadcrumbSep.
const (
	KeyBreadcrumb = "breadcrumb"
	BreadcrumbSep = " > "
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size ChunkTree emits.
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	if c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 4
	}
	if c.MinChunk <= 0 {
		c.MinChunk = d.MinChunk
	}
	return c
}

// ChunkTree walks a DocTree and produces structure-aware chunks. Chunks under
// MinChunk tokens are dropped.
func ChunkTree(tree *doctree.DocTree, cfg Config) []doctree.Chunk {
	cfg = cfg.withDefaults()

	var chunks []doctree.Chunk
	var walk func(node *doctree.DocNode, breadcrumb []string)
	walk = func(node *doctree.DocNode, breadcrumb []string) {
		bc := breadcrumb
		if node.Title != "" {
			bc = append(append([]string(nil), breadcrumb...), node.Title)
		}
		for _, part := range SplitText(node.Text, cfg) {
			if EstimateTokens(part) < cfg.MinChunk {
				continue
			}
			chunks = append(chunks, doctree.Chunk{
				Text:       part,
				Index:      len(chunks),
				Breadcrumb: copyBreadcrumb(bc),
				PageStart:  node.Page,
				PageEnd:    node.Page,
			})
		}
		for _, child := range node.Children {
			walk(child, bc)
		}
	}
	for _, child := range tree.Children {
		walk(child, nil)
	}
	return chunks
}

// SplitText breaks text into pieces of roughly cfg.ChunkSize tokens. It packs
// whole paragraphs first and splits an oversized paragraph by sentences.
func SplitText(text string, cfg Config) []string {
	cfg = cfg.withDefaults()
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if EstimateTokens(text) <= cfg.ChunkSize {
		return []string{text}
	}

	var result, paras []string
	flush := func() {
		result = append(result, pack(paras, "\n\n", cfg.ChunkSize, cfg.ChunkOverlap)...)
		paras = nil
	}
	for _, para := range splitByParagraphs(text) {
		if EstimateTokens(para) > cfg.ChunkSize {
			flush()
			result = append(result, pack(splitSentences(para), " ", cfg.ChunkSize, cfg.ChunkOverlap)...)
			continue
		}
		paras = append(paras, para)
	}
	flush()
	return result
}

// pack joins consecutive units with sep while they fit in target tokens.
// Each new piece starts with the last overlap tokens of the previous one.
// A unit larger than target becomes a piece of its own.
func pack(units []string, sep string, target, overlap int) []string {
	var result []string
	var current strings.Builder
	currentTokens := 0
	fresh := 0 // units added since the last emitted piece

	emit := func() {
		result = append(result, current.String())
		tail := overlapText(current.String(), overlap)
		current.Reset()
		currentTokens = 0
		fresh = 0
		if tail != "" {
			current.WriteString(tail)
			currentTokens = EstimateTokens(tail)
		}
	}

	for _, u := range units {
		uTokens := EstimateTokens(u)
		if uTokens > target {
			if fresh > 0 {
				emit()
			}
			result = append(result, u)
			current.Reset()
			currentTokens = 0
			continue
		}
		if currentTokens+uTokens > target && fresh > 0 {
			emit()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(u)
		currentTokens += uTokens
		fresh++
	}
	if fresh > 0 {
		result = append(result, current.String())
	}
	return result
}

func splitByParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences splits after '.', '!' or '?' followed by a space.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// overlapText returns the last targetTokens worth of words of text.
func overlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}

// DocumentSplitter splits loaded page documents into chunk documents. Each
// chunk keeps its page's metadata plus a chunk_index.
//
// With Markdown set, page content is read as Markdown and split per heading
// section; each chunk then also carries its heading path under KeyBreadcrumb.
type DocumentSplitter struct {
	Config   Config
	Markdown bool
}

func (s DocumentSplitter) SplitDocuments(docs []sitemap.Document) []sitemap.Document {
	out := make([]sitemap.Document, 0, len(docs))
	for _, d := range docs {
		var chunks []doctree.Chunk
		if s.Markdown {
			chunks = s.sections(d)
		}
		if len(chunks) == 0 {
			for i, part := range SplitText(d.PageContent, s.Config) {
				chunks = append(chunks, doctree.Chunk{Text: part, Index: i})
			}
		}
		for _, c := range chunks {
			md := make(map[string]string, len(d.Metadata)+2)
			maps.Copy(md, d.Metadata)
			md[KeyChunkIndex] = strconv.Itoa(c.Index)
			if len(c.Breadcrumb) > 0 {
				md[KeyBreadcrumb] = strings.Join(c.Breadcrumb, BreadcrumbSep)
			}
			out = append(out, sitemap.Document{PageContent: c.Text, Metadata: md})
		}
	}
	return out
}

// sections chunks a Markdown page along its heading tree. Small sections are
// kept, since dropping them would lose page text.
func (s DocumentSplitter) sections(d sitemap.Document) []doctree.Chunk {
	tree, err := (&parser.MarkdownParser{}).Parse(strings.NewReader(d.PageContent), d.Metadata[sitemap.KeySource])
	if err != nil {
		return nil
	}
	cfg := s.Config
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = 1
	}
	return ChunkTree(tree, cfg)
}
