package posts

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

var (
	errNoFrontMatter   = errors.New("missing front matter")
	errUnterminated    = errors.New("front matter is not terminated")
	errNotMapping      = errors.New("front matter is not a mapping")
	errBadSummaryValue = errors.New("ai list must hold strings")
)

// splitFrontMatter separates "---" delimited front matter from the body.
// text must use "\n" line endings.
func splitFrontMatter(text string) (frontMatter, body string, err error) {
	text = strings.TrimPrefix(text, "\ufeff")
	if !strings.HasPrefix(text, delimiter+"\n") {
		return "", "", errNoFrontMatter
	}

	start := len(delimiter)
	for i := start; i < len(text); {
		j := strings.Index(text[i:], "\n"+delimiter)
		if j < 0 {
			break
		}
		at := i + j
		end := at + 1 + len(delimiter)
		if end == len(text) {
			return text[start+1 : at+1], "", nil
		}
		if text[end] == '\n' {
			fm := ""
			if at+1 > start+1 {
				fm = text[start+1 : at+1]
			}
			return fm, text[end+1:], nil
		}
		i = end
	}
	return "", "", errUnterminated
}

// parseFrontMatter decodes front matter into a mapping node.
func parseFrontMatter(src string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errNotMapping
	}
	return root, nil
}

// lookup returns the value node of key in a mapping node.
func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// setSummary replaces the value of the ai key, appending the key when it is
// absent so existing keys keep their order.
func setSummary(m *yaml.Node, summary []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, s := range summary {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s})
	}

	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == keySummary {
			m.Content[i+1] = seq
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: keySummary},
		seq,
	)
}

// decodeSummary reads an ai value. Only a list counts as a summary; scalars
// such as `ai: true` and mappings mark the post without carrying one.
func decodeSummary(n *yaml.Node) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, nil
	}
	var out []string
	if err := n.Decode(&out); err != nil {
		return nil, errBadSummaryValue
	}
	return out, nil
}

// renderFrontMatter encodes m followed by the body between delimiters.
func renderFrontMatter(m *yaml.Node, body string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	if len(m.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return "", fmt.Errorf("failed to encode front matter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("failed to encode front matter: %w", err)
		}
	}
	buf.WriteString(delimiter + "\n")
	buf.WriteString(body)
	return buf.String(), nil
}

// cloneNode deep-copies a node tree so a failed write leaves the post intact.
func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Content = make([]*yaml.Node, len(n.Content))
	for i, child := range n.Content {
		c.Content[i] = cloneNode(child)
	}
	if n.Alias != nil {
		c.Alias = cloneNode(n.Alias)
	}
	return &c
}
