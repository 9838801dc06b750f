package posts

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/aymanbagabas/go-udiff"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// PostsDir is the directory under the source directory that holds posts.
const PostsDir = "_posts"

var extensions = map[string]Format{
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
	".html":     FormatHTML,
}

// Store reads and rewrites posts below a source directory.
type Store struct {
	fs        afero.Fs
	sourceDir string
	logger    *slog.Logger
	converter *md.Converter
}

// NewStore creates a store over fsys. sourceDir is resolved within fsys.
func NewStore(fsys afero.Fs, sourceDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		fs:        fsys,
		sourceDir: sourceDir,
		logger:    logger.With("component", "post_store"),
		converter: md.NewConverter("", true, nil),
	}
}

// Discover returns the sources of every post file under the posts directory,
// sorted. Hidden files and directories are skipped.
func (s *Store) Discover(ctx context.Context) ([]string, error) {
	root := filepath.Join(s.sourceDir, PostsDir)
	var sources []string

	err := afero.Walk(s.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := info.Name()
		if strings.HasPrefix(name, ".") && p != root {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if _, ok := extensions[strings.ToLower(filepath.Ext(name))]; !ok {
			return nil
		}
		rel, err := filepath.Rel(s.sourceDir, p)
		if err != nil {
			return err
		}
		sources = append(sources, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover posts in %s: %w", root, err)
	}

	sort.Strings(sources)
	s.logger.Debug("discovered posts", "dir", root, "count", len(sources))
	return sources, nil
}

// Load reads and parses the post at source. A missing or malformed front
// matter yields a *FrontMatterError.
func (s *Store) Load(source string) (*Post, error) {
	data, err := afero.ReadFile(s.fs, s.realPath(source))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	original := string(data)
	crlf := strings.Contains(original, "\r\n")
	text := strings.ReplaceAll(original, "\r\n", "\n")

	fmText, body, err := splitFrontMatter(text)
	if err != nil {
		return nil, &FrontMatterError{Source: source, Err: err}
	}
	node, err := parseFrontMatter(fmText)
	if err != nil {
		return nil, &FrontMatterError{Source: source, Err: err}
	}

	post := &Post{
		Source:      source,
		Layout:      defaultLayout,
		Format:      extensions[strings.ToLower(path.Ext(source))],
		frontMatter: node,
		body:        body,
		original:    original,
		crlf:        crlf,
	}

	if v := lookup(node, keyTitle); v != nil && v.Kind == yaml.ScalarNode {
		post.Title = v.Value
	}
	if post.Title == "" {
		base := path.Base(source)
		post.Title = strings.TrimSuffix(base, path.Ext(base))
	}
	if v := lookup(node, keyLayout); v != nil && v.Value != "" {
		post.Layout = v.Value
	}
	if v := lookup(node, keySummary); v != nil {
		post.HasAIField = true
		summary, err := decodeSummary(v)
		if err != nil {
			return nil, &FrontMatterError{Source: source, Err: err}
		}
		post.Summary = summary
	}

	post.Content = strings.TrimSpace(body)
	if post.Format == FormatHTML {
		content, err := s.htmlToMarkdown(body)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s: %w", source, err)
		}
		post.Content = content
	}

	return post, nil
}

// WriteSummary stores summary under the ai key of the post's front matter and
// returns a unified diff of the change. With dryRun the file is left alone.
// On success post reflects the new summary.
func (s *Store) WriteSummary(post *Post, summary []string, dryRun bool) (string, error) {
	if post.frontMatter == nil {
		return "", &FrontMatterError{Source: post.Source, Err: errNoFrontMatter}
	}

	fm := cloneNode(post.frontMatter)
	setSummary(fm, summary)

	updated, err := renderFrontMatter(fm, post.body)
	if err != nil {
		return "", err
	}
	if post.crlf {
		updated = strings.ReplaceAll(updated, "\n", "\r\n")
	}

	diff := udiff.Unified("a/"+post.Source, "b/"+post.Source, post.original, updated)

	if !dryRun {
		p := s.realPath(post.Source)
		mode := fs.FileMode(0o644)
		if info, err := s.fs.Stat(p); err == nil {
			mode = info.Mode().Perm()
		}
		if err := afero.WriteFile(s.fs, p, []byte(updated), mode); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", post.Source, err)
		}
		s.logger.Debug("summary written", "source", post.Source)

		post.frontMatter = fm
		post.original = updated
		post.HasAIField = true
		post.Summary = append([]string(nil), summary...)
	}

	return diff, nil
}

func (s *Store) realPath(source string) string {
	return filepath.Join(s.sourceDir, filepath.FromSlash(source))
}

// htmlToMarkdown strips script and style elements and converts the rest.
func (s *Store) htmlToMarkdown(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style").Remove()

	markdown := s.converter.Convert(doc.Selection)
	markdown = strings.TrimSpace(markdown)
	for strings.Contains(markdown, "\n\n\n") {
		markdown = strings.ReplaceAll(markdown, "\n\n\n", "\n\n")
	}
	return markdown, nil
}
