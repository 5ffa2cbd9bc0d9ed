package storymap

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestExportMarkdownGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "export_markdown", []byte(ExportMarkdown(sampleDocument())))
}

func TestExportMarkdownContainsEveryTitle(t *testing.T) {
	d := sampleDocument()
	md := ExportMarkdown(d)

	assert.Contains(t, md, d.Title)
	assert.Contains(t, md, d.Description)
	for _, e := range d.Epics {
		assert.Contains(t, md, "## "+e.Title)
		for _, f := range e.Features {
			assert.Contains(t, md, "### "+f.Title)
			for _, s := range f.Tasks {
				assert.Contains(t, md, "#### "+s.Title)
				for _, ac := range s.AcceptanceCriteria {
					assert.Contains(t, md, "  - "+ac)
				}
			}
		}
	}
}

func TestExportMarkdownDeterministic(t *testing.T) {
	d := sampleDocument()
	assert.Equal(t, ExportMarkdown(d), ExportMarkdown(d.Clone()))
}

func TestExportMarkdownKeepsCommentsOnOneLine(t *testing.T) {
	d := New("Multi\nline --> title", "a\n\nb", fixedNow)
	md := ExportMarkdown(d)

	lines := strings.Split(md, "\n")
	assert.Equal(t, "<!-- title: Multi line -- title -->", lines[0])
	assert.Equal(t, "<!-- description: a b -->", lines[1])
}

func TestExportMarkdownHeadingsStayOnOneLine(t *testing.T) {
	d := sampleDocument()
	d.Epics[0].Title = "Disc\novery"
	d.Epics[0].Features[0].Title = "Station\r\n## Search"
	d.Epics[0].Features[0].Tasks[0].Title = "Search\n\nnearby"
	d.Epics[0].Features[0].Tasks[0].SupportingRequirements[0].Title = "Map\nSDK"
	md := ExportMarkdown(d)

	assert.Contains(t, md, "\n## Disc overy\n")
	assert.Contains(t, md, "\n### Station ## Search\n")
	assert.Contains(t, md, "\n#### Search nearby\n")
	assert.Contains(t, md, "] Map SDK: ")

	var headings int
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "#") {
			headings++
		}
	}
	var want int
	for _, e := range d.Epics {
		want++
		for _, f := range e.Features {
			want += 1 + len(f.Tasks)
		}
	}
	assert.Equal(t, want, headings)
}
