package litellm

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var prompts = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func systemPrompt() (string, error) {
	return render("system.tmpl", nil)
}

func generatePrompt(description string) (string, error) {
	return render("generate.tmpl", struct{ Description string }{description})
}

// feedbackPrompt embeds the current document in its YAML draft form, the
// same shape the model is asked to answer in.
func feedbackPrompt(current *storymap.Document, feedback string) (string, error) {
	draft := storymap.FromDocument(current)
	y, err := yaml.Marshal(draft)
	if err != nil {
		return "", fmt.Errorf("marshal current story map: %w", err)
	}
	return render("feedback.tmpl", struct {
		Current  string
		Feedback string
	}{string(y), feedback})
}
