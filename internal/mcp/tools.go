package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchGuidanceTool defines the search_guidance MCP tool.
var searchGuidanceTool = mcp.NewTool("search_guidance",
	mcp.WithDescription("Search stored Quran verses and hadith by text, translation or theme."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Case-insensitive text to look for"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
	mcp.WithString("source",
		mcp.Description("Restrict results to one source"),
		mcp.Enum("quran", "hadith"),
	),
	mcp.WithString("type",
		mcp.Description("Restrict results to motivation or guidance content"),
		mcp.Enum("motivation", "guidance"),
	),
	mcp.WithString("theme",
		mcp.Description("Restrict results to one theme tag, e.g. patience"),
	),
)

// verseOfTheDayTool defines the verse_of_the_day MCP tool.
var verseOfTheDayTool = mcp.NewTool("verse_of_the_day",
	mcp.WithDescription("Get today's entry. The choice is stable for the whole UTC day."),
)

// getByReferenceTool defines the get_by_reference MCP tool.
var getByReferenceTool = mcp.NewTool("get_by_reference",
	mcp.WithDescription("Get one stored entry by its exact reference, e.g. \"Quran 94:5\" or \"Sahih al-Bukhari 1\"."),
	mcp.WithString("reference",
		mcp.Required(),
		mcp.Description("Exact reference string"),
	),
)

// listThemesTool defines the list_themes MCP tool.
var listThemesTool = mcp.NewTool("list_themes",
	mcp.WithDescription("List every theme tag content can be filtered by."),
)

// getQuranVerseTool defines the get_quran_verse MCP tool.
var getQuranVerseTool = mcp.NewTool("get_quran_verse",
	mcp.WithDescription("Fetch any Quran verse with translations from the verse API."),
	mcp.WithNumber("surah",
		mcp.Required(),
		mcp.Description("Chapter number, 1-114"),
	),
	mcp.WithNumber("ayah",
		mcp.Required(),
		mcp.Description("Verse number within the chapter"),
	),
	mcp.WithString("translations",
		mcp.Description("Comma-separated translation editions, e.g. en.sahih,id.indonesian"),
	),
)
