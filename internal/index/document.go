package index

import "time"

// Document is one indexed markdown file. Path is the sole identity:
// re-indexing the same path overwrites, never duplicates.
type Document struct {
	Path       string    `json:"path"`
	Folder     string    `json:"folder"`
	Name       string    `json:"name"`
	Ext        string    `json:"ext"`
	Title      string    `json:"title,omitempty"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	// Body is the file content with frontmatter removed.
	Body string `json:"body"`

	Tags   []string `json:"tags"`
	Links  []string `json:"links"`
	Embeds []string `json:"embeds"`

	// Backlinks is derived, never authored: paths of documents whose
	// links name this document. Only the backlink pass writes it.
	Backlinks []string `json:"backlinks"`

	// Properties are the parsed frontmatter fields (minus tags).
	Properties map[string]interface{} `json:"properties"`
}
