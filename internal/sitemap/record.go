package sitemap

// Metadata keys of a location record.
const (
	KeyLoc        = "loc"
	KeyLastMod    = "lastmod"
	KeyChangeFreq = "changefreq"
	KeyPriority   = "priority"

	// KeySource holds the page URL in every Document's metadata.
	KeySource = "source"
)

// LocationRecord is one <url> entry of a sitemap. Optional fields are empty
// when the element was absent.
type LocationRecord struct {
	Loc        string `json:"loc"`
	LastMod    string `json:"lastmod,omitempty"`
	ChangeFreq string `json:"changefreq,omitempty"`
	Priority   string `json:"priority,omitempty"`
}

// Fields returns the present fields keyed by their sitemap element name.
func (r LocationRecord) Fields() map[string]string {
	m := make(map[string]string, 4)
	for k, v := range map[string]string{
		KeyLoc:        r.Loc,
		KeyLastMod:    r.LastMod,
		KeyChangeFreq: r.ChangeFreq,
		KeyPriority:   r.Priority,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// Document is the text of one fetched page plus the metadata of the
// location it came from.
type Document struct {
	PageContent string            `json:"page_content"`
	Metadata    map[string]string `json:"metadata"`
}

func newDocument(rec LocationRecord, content string) Document {
	md := rec.Fields()
	md[KeySource] = rec.Loc
	return Document{PageContent: content, Metadata: md}
}
