package guidance

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ziadkadry99/naflume/internal/quran"
)

// DefaultTheme tags dynamic verses whose text matches no known theme.
const DefaultTheme = "reflection"

// InferThemes derives theme tags from verse text by keyword matching. It
// never returns an empty set.
func InferThemes(text string) []string {
	if themes := quran.MatchThemes(text); len(themes) > 0 {
		return themes
	}
	return []string{DefaultTheme}
}

// FromVerse converts a gateway verse into an entry. primary and secondary
// name the translation editions that fill Translation and
// SecondaryTranslation.
func FromVerse(v quran.Verse, primary, secondary string, now time.Time) Entry {
	name := v.SurahEnglishName
	if name == "" {
		name = "Quran"
	}
	tr := v.Translations[primary]
	sec := v.Translations[secondary]
	return Entry{
		ID:                   fmt.Sprintf("quran-%d-%d", v.Surah, v.Ayah),
		Source:               SourceQuran,
		Reference:            fmt.Sprintf("%s %d:%d", name, v.Surah, v.Ayah),
		Text:                 v.Text,
		Translation:          tr,
		SecondaryTranslation: sec,
		Type:                 TypeGuidance,
		Themes:               InferThemes(tr + " " + sec),
		Priority:             1,
		CreatedAt:            now.UTC(),
	}
}

var verseKeyRe = regexp.MustCompile(`(\d+):(\d+)\s*$`)

// verseKey extracts the trailing chapter:verse of a reference, or "" for
// references without one (hadith collections).
func verseKey(ref string) string {
	m := verseKeyRe.FindStringSubmatch(ref)
	if m == nil {
		return ""
	}
	return m[1] + ":" + m[2]
}
