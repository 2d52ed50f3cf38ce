package guidance

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Commentary is authored in Markdown. Raw HTML in it is escaped.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var readingTemplate = template.Must(template.New("reading").Parse(`<article class="guidance-reading" data-id="{{.ID}}" data-type="{{.Type}}">
  <header>
    <h1>{{.Reference}}</h1>
    <ul class="themes">{{range .Themes}}<li>{{.}}</li>{{end}}</ul>
  </header>
  {{if .Text}}<p class="original" lang="ar" dir="rtl">{{.Text}}</p>{{end}}
  {{if .Translation}}<p class="translation" lang="en">{{.Translation}}</p>{{end}}
  {{if .SecondaryTranslation}}<p class="translation secondary" lang="id">{{.SecondaryTranslation}}</p>{{end}}
  {{if .Commentary}}<section class="commentary">
    {{if .CommentaryRef}}<h2>{{.CommentaryRef}}</h2>{{end}}
    {{.Commentary}}
    {{.SecondaryCommentary}}
  </section>{{end}}
</article>
`))

type readingView struct {
	Entry
	CommentaryRef       string
	Commentary          template.HTML
	SecondaryCommentary template.HTML
}

// RenderReading renders an entry as an HTML reading view.
func RenderReading(e Entry) (string, error) {
	view := readingView{Entry: e, CommentaryRef: e.Commentary.Reference}
	var err error
	if view.Commentary, err = renderMarkdown(e.Commentary.Text); err != nil {
		return "", err
	}
	if view.SecondaryCommentary, err = renderMarkdown(e.Commentary.SecondaryText); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := readingTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("rendering %s: %w", e.ID, err)
	}
	return buf.String(), nil
}

func renderMarkdown(src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("converting commentary: %w", err)
	}
	return template.HTML(buf.String()), nil
}
