package guidance

import (
	"strings"
	"testing"
)

func TestRenderReading(t *testing.T) {
	e := fixtures()[1]
	e.Text = "قُلْ يَا عِبَادِيَ"
	e.Commentary = Commentary{
		Reference: "Tafsir Ibn Kathir",
		Text:      "An invitation to **repent**.\n\n<script>alert(1)</script>",
	}

	html, err := RenderReading(e)
	if err != nil {
		t.Fatalf("RenderReading: %v", err)
	}
	for _, want := range []string{
		"<h1>Az-Zumar 39:53</h1>",
		`dir="rtl"`,
		"Do not despair of Allah&#39;s mercy",
		"<strong>repent</strong>",
		"<h2>Tafsir Ibn Kathir</h2>",
		"<li>forgiveness</li>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in output:\n%s", want, html)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Error("raw HTML in commentary must not be rendered")
	}
}

func TestRenderReadingWithoutCommentary(t *testing.T) {
	html, err := RenderReading(fixtures()[0])
	if err != nil {
		t.Fatalf("RenderReading: %v", err)
	}
	if strings.Contains(html, "commentary") {
		t.Errorf("unexpected commentary section:\n%s", html)
	}
}
