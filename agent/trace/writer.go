package trace

import (
	"fmt"
	"io"
)

// Writer receives a human-readable trail of the loop's progress. It is
// diagnostic only; nothing in the loop reads it back.
type Writer interface {
	Basic(header, content string)
	Action(header, content string)
	Result(header, content string)
}

type NopWriter struct{}

func (NopWriter) Basic(string, string)  {}
func (NopWriter) Action(string, string) {}
func (NopWriter) Result(string, string) {}

// MarkdownWriter renders the trail as markdown sections: top-level headers
// for plan/reflection notes, second-level for decisions, fenced blocks for
// raw results.
type MarkdownWriter struct {
	w io.Writer
}

func NewMarkdownWriter(w io.Writer) *MarkdownWriter {
	return &MarkdownWriter{w: w}
}

func (m *MarkdownWriter) Basic(header, content string) {
	fmt.Fprintf(m.w, "# %s\n%s\n", header, content)
}

func (m *MarkdownWriter) Action(header, content string) {
	fmt.Fprintf(m.w, "## %s\n%s\n", header, content)
}

func (m *MarkdownWriter) Result(header, content string) {
	fmt.Fprintf(m.w, "### %s\n```\n%s\n```\n", header, content)
}
