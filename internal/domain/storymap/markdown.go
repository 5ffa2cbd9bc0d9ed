package storymap

import (
	"fmt"
	"strings"
)

// ExportMarkdown renders the document as Markdown. The output depends only on
// the document, so the same document always renders to the same bytes.
func ExportMarkdown(d *Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<!-- title: %s -->\n", oneLine(d.Title))
	fmt.Fprintf(&b, "<!-- description: %s -->\n", oneLine(d.Description))

	for i := range d.Epics {
		e := &d.Epics[i]
		fmt.Fprintf(&b, "\n## %s\n", heading(e.Title))
		writeParagraph(&b, e.Description)

		for j := range e.Features {
			f := &e.Features[j]
			fmt.Fprintf(&b, "\n### %s\n", heading(f.Title))
			writeParagraph(&b, f.Description)

			for k := range f.Tasks {
				writeTask(&b, &f.Tasks[k])
			}
		}
	}
	return b.String()
}

func writeTask(b *strings.Builder, t *UserStory) {
	fmt.Fprintf(b, "\n#### %s\n\n", heading(t.Title))
	b.WriteString("- Description:")
	if desc := oneLine(t.Description); desc != "" {
		b.WriteString(" " + desc)
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "- Priority: %s\n", t.Priority)
	fmt.Fprintf(b, "- Effort: %s\n", t.EstimatedEffort)
	b.WriteString("- Acceptance Criteria:\n")
	for _, ac := range t.AcceptanceCriteria {
		fmt.Fprintf(b, "  - %s\n", oneLine(ac))
	}
	if len(t.SupportingRequirements) == 0 {
		return
	}
	b.WriteString("- Supporting Requirements:\n")
	for _, r := range t.SupportingRequirements {
		fmt.Fprintf(b, "  - [%s/%s] %s", r.Type, r.Priority, heading(r.Title))
		if r.Description != "" {
			fmt.Fprintf(b, ": %s", oneLine(r.Description))
		}
		b.WriteString("\n")
	}
}

func writeParagraph(b *strings.Builder, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Fprintf(b, "\n%s\n", text)
}

// heading collapses whitespace, line breaks included, to single spaces.
func heading(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// oneLine collapses line breaks so list items and comments stay on one line.
func oneLine(s string) string {
	return heading(strings.ReplaceAll(s, "-->", "--"))
}
