package extract

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractFrontmatter(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantProps map[string]interface{}
		wantTags  []string
		wantBody  string
	}{
		{
			name: "basic frontmatter",
			content: `---
status: active
priority: 2
---

Body text`,
			wantProps: map[string]interface{}{"status": "active", "priority": 2},
			wantBody:  "Body text",
		},
		{
			name:      "no frontmatter",
			content:   "# Heading\n\nContent",
			wantProps: nil,
			wantBody:  "# Heading\n\nContent",
		},
		{
			name: "tags sequence merged and removed",
			content: `---
tags: [x, y]
status: open
---
Body`,
			wantProps: map[string]interface{}{"status": "open"},
			wantTags:  []string{"x", "y"},
			wantBody:  "Body",
		},
		{
			name: "scalar tags key stays a property",
			content: `---
tags: solo
---
Body`,
			wantProps: map[string]interface{}{"tags": "solo"},
			wantBody:  "Body",
		},
		{
			name: "hash prefix stripped from frontmatter tags",
			content: `---
tags: ["#alpha", beta]
---
Body`,
			wantProps: map[string]interface{}{},
			wantTags:  []string{"alpha", "beta"},
			wantBody:  "Body",
		},
		{
			name:      "unclosed block is body, not frontmatter",
			content:   "---\nstatus: active\n\nBody without closing delimiter",
			wantProps: nil,
			wantBody:  "---\nstatus: active\n\nBody without closing delimiter",
		},
		{
			name:      "malformed yaml degrades to no properties",
			content:   "---\n: [unbalanced\n---\nBody",
			wantProps: nil,
			wantBody:  "---\n: [unbalanced\n---\nBody",
		},
		{
			name: "empty frontmatter block",
			content: `---
---
Body`,
			wantProps: map[string]interface{}{},
			wantBody:  "Body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.content)
			if !reflect.DeepEqual(got.Properties, tt.wantProps) {
				t.Errorf("Properties = %#v, want %#v", got.Properties, tt.wantProps)
			}
			if !reflect.DeepEqual(got.Tags, tt.wantTags) {
				t.Errorf("Tags = %v, want %v", got.Tags, tt.wantTags)
			}
			if got.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", got.Body, tt.wantBody)
			}
		})
	}
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantTags   []string
		wantLinks  []string
		wantEmbeds []string
	}{
		{
			name:      "wiki links",
			content:   "See [[projects/website]] and [[other note]].",
			wantLinks: []string{"projects/website", "other note"},
		},
		{
			name:      "display text discarded",
			content:   "See [[target|the display text]].",
			wantLinks: []string{"target"},
		},
		{
			name:       "embeds are not links",
			content:    "![[diagram.png]] and [[note]]",
			wantLinks:  []string{"note"},
			wantEmbeds: []string{"diagram.png"},
		},
		{
			name:     "inline tags with nesting and hyphens",
			content:  "#todo and #project/active plus #follow-up",
			wantTags: []string{"todo", "project/active", "follow-up"},
		},
		{
			name:    "bare hash and punctuation are not tags",
			content: "a # b and #! c",
		},
		{
			name:      "duplicates collapse in first-occurrence order",
			content:   "[[b]] [[a]] [[b]] #z #y #z",
			wantLinks: []string{"b", "a"},
			wantTags:  []string{"z", "y"},
		},
		{
			name:    "empty link target not matched",
			content: "[[]] and [[ ]]",
		},
		{
			name:    "unclosed link not matched",
			content: "[[dangling",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.content)
			if !reflect.DeepEqual(got.Tags, tt.wantTags) {
				t.Errorf("Tags = %v, want %v", got.Tags, tt.wantTags)
			}
			if !reflect.DeepEqual(got.Links, tt.wantLinks) {
				t.Errorf("Links = %v, want %v", got.Links, tt.wantLinks)
			}
			if !reflect.DeepEqual(got.Embeds, tt.wantEmbeds) {
				t.Errorf("Embeds = %v, want %v", got.Embeds, tt.wantEmbeds)
			}
		})
	}
}

func TestExtractEndToEnd(t *testing.T) {
	content := `---
tags: [x, y]
---
See [[b]] and #z`

	got := Extract(content)

	if want := []string{"x", "y", "z"}; !reflect.DeepEqual(got.Tags, want) {
		t.Errorf("Tags = %v, want %v", got.Tags, want)
	}
	if want := []string{"b"}; !reflect.DeepEqual(got.Links, want) {
		t.Errorf("Links = %v, want %v", got.Links, want)
	}
	if got.Embeds != nil {
		t.Errorf("Embeds = %v, want none", got.Embeds)
	}
	if got.Body != "See [[b]] and #z" {
		t.Errorf("Body = %q", got.Body)
	}
}

func TestFirstHeading(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"atx heading", "# My Note\n\ntext", "My Note"},
		{"first of several", "## Sub\n\n# Top", "Sub"},
		{"no heading", "just text", ""},
		{"heading after text", "intro\n\n# Later\n", "Later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.body)
			if got.Title != tt.want {
				t.Errorf("Title = %q, want %q", got.Title, tt.want)
			}
		})
	}
}

func TestExtractNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"---",
		"---\n",
		"---\n---",
		strings.Repeat("[[", 1000),
		"![[",
		"#",
	}
	for _, in := range inputs {
		Extract(in) // must not panic
	}
}
