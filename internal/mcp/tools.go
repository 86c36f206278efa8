package mcp

import "github.com/mark3labs/mcp-go/mcp"

// getQuestionTool defines the get_question MCP tool.
var getQuestionTool = mcp.NewTool("get_question",
	mcp.WithDescription("Get a question with its body converted to Markdown."),
	mcp.WithNumber("question_id",
		mcp.Required(),
		mcp.Description("Numeric question id"),
	),
	mcp.WithString("site",
		mcp.Description("Stack Exchange site to load from (defaults to the source site)"),
	),
)

// findCandidatesTool defines the find_candidates MCP tool.
var findCandidatesTool = mcp.NewTool("find_candidates",
	mcp.WithDescription("Search the target site for questions that may be translations of the given source question."),
	mcp.WithNumber("question_id",
		mcp.Required(),
		mcp.Description("Numeric id of the source question"),
	),
	mcp.WithString("query",
		mcp.Description("Search query (defaults to the question title)"),
	),
)

// getAssociationTool defines the get_association MCP tool.
var getAssociationTool = mcp.NewTool("get_association",
	mcp.WithDescription("Get the recorded association of a source question, if any."),
	mcp.WithNumber("question_id",
		mcp.Required(),
		mcp.Description("Numeric id of the source question"),
	),
)
