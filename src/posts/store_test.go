package posts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceDir = "/site/source"

func newTestStore(t *testing.T, files map[string]string) (*Store, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, sourceDir+"/"+name, []byte(content), 0o644))
	}
	return NewStore(fsys, sourceDir, nil), fsys
}

func TestDiscover(t *testing.T) {
	store, _ := newTestStore(t, map[string]string{
		"_posts/b.md":          "---\ntitle: B\n---\n",
		"_posts/a.markdown":    "---\ntitle: A\n---\n",
		"_posts/2024/c.html":   "---\ntitle: C\n---\n",
		"_posts/notes.txt":     "ignored",
		"_posts/.draft.md":     "ignored",
		"_posts/.trash/old.md": "ignored",
		"_drafts/wip.md":       "---\ntitle: WIP\n---\n",
		"about/index.md":       "---\ntitle: About\n---\n",
		"_posts/UPPER.MD":      "---\ntitle: U\n---\n",
	})

	sources, err := store.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"_posts/2024/c.html",
		"_posts/UPPER.MD",
		"_posts/a.markdown",
		"_posts/b.md",
	}, sources)
}

func TestDiscoverCancelled(t *testing.T) {
	store, _ := newTestStore(t, map[string]string{"_posts/a.md": "---\n---\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Discover(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		content    string
		wantTitle  string
		wantLayout string
		wantAI     bool
		wantSum    []string
		wantBody   string
	}{
		{
			name:       "plain post",
			file:       "_posts/hello.md",
			content:    "---\ntitle: Hello World\ndate: 2024-01-01\n---\n\nSome text.\n",
			wantTitle:  "Hello World",
			wantLayout: "post",
			wantBody:   "Some text.",
		},
		{
			name:       "summary list",
			file:       "_posts/list.md",
			content:    "---\ntitle: L\nai:\n  - Already here\n---\nBody\n",
			wantTitle:  "L",
			wantLayout: "post",
			wantAI:     true,
			wantSum:    []string{"Already here"},
			wantBody:   "Body",
		},
		{
			name:       "string ai field is not a summary",
			file:       "_posts/str.md",
			content:    "---\ntitle: S\nai: some text\n---\nBody\n",
			wantTitle:  "S",
			wantLayout: "post",
			wantAI:     true,
			wantBody:   "Body",
		},
		{
			name:       "boolean ai flag",
			file:       "_posts/flag.md",
			content:    "---\ntitle: F\nai: true\n---\nBody\n",
			wantTitle:  "F",
			wantLayout: "post",
			wantAI:     true,
			wantBody:   "Body",
		},
		{
			name:       "mapping ai field",
			file:       "_posts/map.md",
			content:    "---\ntitle: M\nai:\n  k: v\n---\nBody\n",
			wantTitle:  "M",
			wantLayout: "post",
			wantAI:     true,
			wantBody:   "Body",
		},
		{
			name:       "empty ai field",
			file:       "_posts/empty.md",
			content:    "---\ntitle: E\nai:\n---\nBody\n",
			wantTitle:  "E",
			wantLayout: "post",
			wantAI:     true,
			wantBody:   "Body",
		},
		{
			name:       "title from file name and custom layout",
			file:       "_posts/my-page.md",
			content:    "---\nlayout: page\n---\nBody\n",
			wantTitle:  "my-page",
			wantLayout: "page",
			wantBody:   "Body",
		},
		{
			name:       "crlf",
			file:       "_posts/win.md",
			content:    "---\r\ntitle: Win\r\n---\r\nLine\r\n",
			wantTitle:  "Win",
			wantLayout: "post",
			wantBody:   "Line",
		},
		{
			name:       "empty front matter",
			file:       "_posts/bare.md",
			content:    "---\n---\nBody\n",
			wantTitle:  "bare",
			wantLayout: "post",
			wantBody:   "Body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore(t, map[string]string{tt.file: tt.content})
			post, err := store.Load(tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.file, post.Source)
			assert.Equal(t, tt.wantTitle, post.Title)
			assert.Equal(t, tt.wantLayout, post.Layout)
			assert.Equal(t, tt.wantAI, post.HasAIField)
			assert.Equal(t, tt.wantSum, post.Summary)
			assert.Equal(t, tt.wantBody, post.Content)
			assert.Equal(t, len(tt.wantSum) > 0, post.HasExistingSummary())
		})
	}
}

func TestLoadHTML(t *testing.T) {
	store, _ := newTestStore(t, map[string]string{
		"_posts/page.html": "---\ntitle: Page\n---\n<h1>Heading</h1><script>alert(1)</script><style>p{}</style><p>Some <strong>bold</strong> text.</p>\n",
	})

	post, err := store.Load("_posts/page.html")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, post.Format)
	assert.Contains(t, post.Content, "# Heading")
	assert.Contains(t, post.Content, "**bold**")
	assert.NotContains(t, post.Content, "alert")
	assert.NotContains(t, post.Content, "p{}")
}

func TestLoadFrontMatterErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no front matter", "Just text\n"},
		{"unterminated", "---\ntitle: x\nbody\n"},
		{"not a mapping", "---\n- a\n- b\n---\nbody\n"},
		{"invalid yaml", "---\ntitle: [\n---\nbody\n"},
		{"ai list of mappings", "---\nai:\n  - nested: map\n---\nbody\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore(t, map[string]string{"_posts/x.md": tt.content})
			_, err := store.Load("_posts/x.md")
			var fmErr *FrontMatterError
			require.True(t, errors.As(err, &fmErr), "got %v", err)
			assert.Equal(t, "_posts/x.md", fmErr.Source)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	store, _ := newTestStore(t, nil)
	_, err := store.Load("_posts/missing.md")
	require.Error(t, err)
	var fmErr *FrontMatterError
	assert.False(t, errors.As(err, &fmErr))
}

func TestWriteSummary(t *testing.T) {
	original := "---\ntitle: Hello\ntags: [go, blog]\ndate: 2024-01-01\n---\n\nBody text.\n"
	store, fsys := newTestStore(t, map[string]string{"_posts/hello.md": original})

	post, err := store.Load("_posts/hello.md")
	require.NoError(t, err)

	diff, err := store.WriteSummary(post, []string{"A short summary: with colon"}, false)
	require.NoError(t, err)
	assert.Contains(t, diff, "--- a/_posts/hello.md")
	assert.Contains(t, diff, "+++ b/_posts/hello.md")
	assert.Contains(t, diff, "+ai:")

	data, err := afero.ReadFile(fsys, sourceDir+"/_posts/hello.md")
	require.NoError(t, err)
	written := string(data)
	assert.True(t, strings.HasSuffix(written, "---\n\nBody text.\n"), written)
	assert.Less(t, strings.Index(written, "title:"), strings.Index(written, "tags:"))
	assert.Less(t, strings.Index(written, "date:"), strings.Index(written, "ai:"))
	assert.Contains(t, written, "tags: [go, blog]")

	reloaded, err := store.Load("_posts/hello.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"A short summary: with colon"}, reloaded.Summary)
	assert.Equal(t, "Hello", reloaded.Title)
	assert.Equal(t, "Body text.", reloaded.Content)
	assert.True(t, post.HasExistingSummary())
}

func TestWriteSummaryReplacesExisting(t *testing.T) {
	store, fsys := newTestStore(t, map[string]string{
		"_posts/a.md": "---\ntitle: A\nai:\n  - old\nlayout: post\n---\nBody\n",
	})
	post, err := store.Load("_posts/a.md")
	require.NoError(t, err)

	_, err = store.WriteSummary(post, []string{"new"}, false)
	require.NoError(t, err)

	data, err := afero.ReadFile(fsys, sourceDir+"/_posts/a.md")
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: A\nai:\n  - new\nlayout: post\n---\nBody\n", string(data))
}

func TestWriteSummaryDryRun(t *testing.T) {
	original := "---\ntitle: A\n---\nBody\n"
	store, fsys := newTestStore(t, map[string]string{"_posts/a.md": original})
	post, err := store.Load("_posts/a.md")
	require.NoError(t, err)

	diff, err := store.WriteSummary(post, []string{"summary"}, true)
	require.NoError(t, err)
	assert.Contains(t, diff, "+ai:")
	assert.Contains(t, diff, "+  - summary")

	data, err := afero.ReadFile(fsys, sourceDir+"/_posts/a.md")
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
	assert.False(t, post.HasAIField)
}

func TestWriteSummaryKeepsCRLF(t *testing.T) {
	store, fsys := newTestStore(t, map[string]string{"_posts/w.md": "---\r\ntitle: W\r\n---\r\nBody\r\n"})
	post, err := store.Load("_posts/w.md")
	require.NoError(t, err)

	_, err = store.WriteSummary(post, []string{"s"}, false)
	require.NoError(t, err)

	data, err := afero.ReadFile(fsys, sourceDir+"/_posts/w.md")
	require.NoError(t, err)
	assert.Equal(t, "---\r\ntitle: W\r\nai:\r\n  - s\r\n---\r\nBody\r\n", string(data))
}
