// Package extract pulls structured content out of raw markdown text:
// frontmatter properties, tags, wiki-links, embeds, and a display title.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Content is the structured result of extracting a single file.
type Content struct {
	// Body is the file content with frontmatter removed.
	Body string

	// Title is the text of the first heading in the body, or "".
	Title string

	// Properties are the parsed frontmatter fields (minus the tags key).
	Properties map[string]interface{}

	// Tags are frontmatter tags followed by inline #tags, deduplicated
	// in first-occurrence order, without the leading '#'.
	Tags []string

	// Links are [[wiki-link]] targets found in the body.
	Links []string

	// Embeds are ![[embed]] targets found in the body.
	Embeds []string
}

// wikiRe matches [[target]], [[target|display]], and the embed forms
// ![[target]] / ![[target|display]]. The target cannot contain brackets
// or a pipe; display text is discarded.
var wikiRe = regexp.MustCompile(`(!?)\[\[([^\]\[|]+)(?:\|[^\]]*)?\]\]`)

// tagRe matches inline #tags: word characters, hyphen, and slash for
// nested tags like #project/active. A bare '#' never matches.
var tagRe = regexp.MustCompile(`#([\w/-]+)`)

// Extract parses raw file content. It never fails: malformed frontmatter
// degrades to "no properties" with the full original content as body, and
// malformed link syntax is simply not matched.
func Extract(content string) Content {
	props, fmTags, body := splitFrontmatter(content)

	c := Content{
		Body:       body,
		Title:      firstHeading(body),
		Properties: props,
	}

	seen := make(map[string]bool)
	for _, tag := range fmTags {
		c.Tags = appendUnique(c.Tags, seen, tag)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		c.Tags = appendUnique(c.Tags, seen, m[1])
	}

	linkSeen := make(map[string]bool)
	embedSeen := make(map[string]bool)
	for _, m := range wikiRe.FindAllStringSubmatch(body, -1) {
		target := strings.TrimSpace(m[2])
		if target == "" {
			continue
		}
		if m[1] == "!" {
			c.Embeds = appendUnique(c.Embeds, embedSeen, target)
		} else {
			c.Links = appendUnique(c.Links, linkSeen, target)
		}
	}

	return c
}

// splitFrontmatter separates a leading YAML frontmatter block from the
// body. Frontmatter is only recognized when the first line is '---' and a
// later line contains only '---'. A block that fails to parse as YAML is
// treated as body content, delimiters included.
func splitFrontmatter(content string) (props map[string]interface{}, tags []string, body string) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return nil, nil, content
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, nil, content
	}

	raw := strings.Join(lines[1:end], "\n")

	var parsed map[string]interface{}
	if err := yaml.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, nil, content
	}
	if parsed == nil {
		parsed = map[string]interface{}{}
	}

	tags = takeTags(parsed)
	body = strings.TrimSpace(strings.Join(lines[end+1:], "\n"))
	return parsed, tags, body
}

// takeTags removes the reserved "tags" key when it holds a sequence and
// returns its values as strings. A scalar tags key stays a property.
func takeTags(props map[string]interface{}) []string {
	raw, ok := props["tags"]
	if !ok {
		return nil
	}
	seq, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	delete(props, "tags")

	tags := make([]string, 0, len(seq))
	for _, item := range seq {
		tag := strings.TrimPrefix(fmt.Sprintf("%v", item), "#")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

var markdown = goldmark.DefaultParser()

// firstHeading returns the text of the first heading in the body.
func firstHeading(body string) string {
	src := []byte(body)
	doc := markdown.Parse(text.NewReader(src))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			title = strings.TrimSpace(string(h.Text(src)))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

func appendUnique(dst []string, seen map[string]bool, v string) []string {
	if v == "" || seen[v] {
		return dst
	}
	seen[v] = true
	return append(dst, v)
}
