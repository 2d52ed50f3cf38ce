package quran

import (
	"regexp"
	"sort"
	"strings"
)

// themeKeywords maps a theme name to the English search terms that find
// verses about it. The same table drives tag inference over translations.
var themeKeywords = map[string][]string{
	"patience":    {"patience", "patient", "persevere"},
	"gratitude":   {"grateful", "thankful", "gratitude"},
	"mercy":       {"mercy", "merciful", "compassion"},
	"forgiveness": {"forgive", "forgiveness", "pardon"},
	"prayer":      {"prayer", "pray", "prostrate"},
	"charity":     {"charity", "spend in the way", "the needy"},
	"faith":       {"believe", "faith", "believers"},
	"hope":        {"hope", "despair", "ease"},
	"repentance":  {"repent", "repentance"},
	"trust":       {"rely upon", "reliance", "trust"},
	"knowledge":   {"knowledge", "wisdom", "learn"},
	"family":      {"parents", "kindred", "relatives"},
	"justice":     {"justice", "equity", "justly"},
	"peace":       {"peace", "tranquility", "tranquillity"},
	"remembrance": {"remember", "remembrance"},
	"guidance":    {"guide", "guidance", "straight path"},
}

// Keywords expands a theme to its search terms. Unknown themes search for
// themselves.
func Keywords(theme string) []string {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if kws, ok := themeKeywords[theme]; ok {
		out := make([]string, len(kws))
		copy(out, kws)
		return out
	}
	if theme == "" {
		return nil
	}
	return []string{theme}
}

// Themes lists every theme with a keyword expansion, sorted.
func Themes() []string {
	out := make([]string, 0, len(themeKeywords))
	for t := range themeKeywords {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// themePatterns match a theme's keywords as whole words, allowing a plural
// "s", so "disbelievers" is not tagged faith and "disease" is not hope.
var themePatterns = compileThemePatterns()

func compileThemePatterns() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(themeKeywords))
	for theme, kws := range themeKeywords {
		alts := make([]string, len(kws))
		for i, kw := range kws {
			alts[i] = regexp.QuoteMeta(kw)
		}
		out[theme] = regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)s?\b`)
	}
	return out
}

// MatchThemes returns, sorted, every theme whose keywords occur in text as
// whole words (case-insensitive). It returns nil when nothing matches.
func MatchThemes(text string) []string {
	var out []string
	for theme, re := range themePatterns {
		if re.MatchString(text) {
			out = append(out, theme)
		}
	}
	sort.Strings(out)
	return out
}
