// Package posts reads blog posts from a site source directory and writes
// generated summaries back into their front matter.
package posts

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the markup of a post body.
type Format int

const (
	FormatMarkdown Format = iota
	FormatHTML
)

func (f Format) String() string {
	if f == FormatHTML {
		return "html"
	}
	return "markdown"
}

// Front matter keys read by the store.
const (
	keyTitle   = "title"
	keyLayout  = "layout"
	keySummary = "ai"

	defaultLayout = "post"
)

// Post is a parsed post file.
type Post struct {
	// Source is the path relative to the source directory, slash separated.
	Source string
	Title  string
	Layout string
	Format Format

	// HasAIField reports whether the front matter has an ai key at all.
	HasAIField bool
	Summary    []string

	// Content is the body text sent for summarization. HTML bodies are
	// converted to Markdown.
	Content string

	frontMatter *yaml.Node
	body        string
	original    string
	crlf        bool
}

// HasExistingSummary reports whether the post already carries a non-empty
// summary.
func (p *Post) HasExistingSummary() bool {
	for _, s := range p.Summary {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

// FrontMatterError reports a post whose front matter is missing or cannot be
// parsed.
type FrontMatterError struct {
	Source string
	Err    error
}

func (e *FrontMatterError) Error() string {
	return fmt.Sprintf("front matter of %s: %v", e.Source, e.Err)
}

func (e *FrontMatterError) Unwrap() error {
	return e.Err
}
