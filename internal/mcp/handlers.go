package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/naflume/internal/guidance"
	"github.com/ziadkadry99/naflume/internal/quran"
)

// handleSearchGuidance runs a filtered substring search over stored content.
func (s *Server) handleSearchGuidance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	f := guidance.Filter{
		Source: guidance.Source(request.GetString("source", "")),
		Type:   guidance.Type(request.GetString("type", "")),
		Theme:  request.GetString("theme", ""),
	}

	res, err := s.guidance.Search(ctx, query, f, 0, limit)
	if err != nil {
		s.log.Warn("search tool failed", "query", query, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(res.Items) == 0 {
		return mcp.NewToolResultText("No results found. The store may be empty. Run `naflume seed` to load the content bundle."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s)", res.Total)
	if res.Total > len(res.Items) {
		fmt.Fprintf(&sb, ", showing %d", len(res.Items))
	}
	sb.WriteString(":\n")
	for i, e := range res.Items {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)
		sb.WriteString(formatEntry(e))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleVerseOfTheDay returns today's entry.
func (s *Server) handleVerseOfTheDay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := s.guidance.VerseOfTheDay(ctx)
	if err != nil {
		if errors.Is(err, guidance.ErrNotFound) {
			return mcp.NewToolResultError("No content available. Run `naflume seed` to load the content bundle."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to pick verse of the day: %v", err)), nil
	}
	return mcp.NewToolResultText(formatEntry(*e)), nil
}

// handleGetByReference returns the entry with an exact reference.
func (s *Server) handleGetByReference(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("reference")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: reference"), nil
	}

	e, err := s.guidance.ByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, guidance.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("No entry found for %q.", ref)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatEntry(*e)), nil
}

// handleListThemes returns every theme tag, one per line.
func (s *Server) handleListThemes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	themes, err := s.guidance.Themes(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list themes: %v", err)), nil
	}
	return mcp.NewToolResultText(strings.Join(themes, "\n")), nil
}

// handleGetQuranVerse fetches one verse from the verse API.
func (s *Server) handleGetQuranVerse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	surah := request.GetInt("surah", 0)
	ayah := request.GetInt("ayah", 0)
	if surah < 1 || surah > quran.TotalSurahs || ayah < 1 {
		return mcp.NewToolResultError("surah must be 1-114 and ayah must be positive"), nil
	}

	var translations []string
	for _, t := range strings.Split(request.GetString("translations", ""), ",") {
		if t = strings.TrimSpace(t); t != "" {
			translations = append(translations, t)
		}
	}

	v := s.verses.Verse(ctx, surah, ayah, translations)
	if v == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Verse %d:%d is unavailable. It may not exist or the verse API is unreachable.", surah, ayah)), nil
	}
	return mcp.NewToolResultText(formatVerse(*v)), nil
}

// formatEntry renders an entry as plain text for agent consumption.
func formatEntry(e guidance.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s, %s)\n", e.Reference, e.Source, e.Type)
	if e.Text != "" {
		sb.WriteString(e.Text + "\n")
	}
	if e.Translation != "" {
		sb.WriteString(e.Translation + "\n")
	}
	if e.SecondaryTranslation != "" {
		sb.WriteString(e.SecondaryTranslation + "\n")
	}
	if len(e.Themes) > 0 {
		fmt.Fprintf(&sb, "Themes: %s\n", strings.Join(e.Themes, ", "))
	}
	if e.Commentary.Text != "" {
		fmt.Fprintf(&sb, "Commentary (%s):\n%s\n", e.Commentary.Reference, e.Commentary.Text)
	}
	return sb.String()
}

// formatVerse renders a gateway verse with its translations in a stable
// order.
func formatVerse(v quran.Verse) string {
	var sb strings.Builder
	name := v.SurahEnglishName
	if name == "" {
		name = "Quran"
	}
	fmt.Fprintf(&sb, "%s %s\n", name, v.Key())
	sb.WriteString(v.Text + "\n")

	editions := make([]string, 0, len(v.Translations))
	for ed := range v.Translations {
		editions = append(editions, ed)
	}
	sort.Strings(editions)
	for _, ed := range editions {
		fmt.Fprintf(&sb, "[%s] %s\n", ed, v.Translations[ed])
	}
	if v.Sajda {
		sb.WriteString("Contains a prostration (sajda).\n")
	}
	return sb.String()
}
