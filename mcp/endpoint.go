package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docuchat/docuchat"
)

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      mcp.RequestId   `json:"id"`
	Method  mcp.MCPMethod   `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func errorResponse(id any, code int, message string) mcp.JSONRPCError {
	return mcp.JSONRPCError{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(id),
		Error: struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Data    any    `json:"data,omitempty"`
		}{
			Code:    code,
			Message: message,
		},
	}
}

type MCPEndpoint func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage

const MCPSERVER_INSTRUCTIONS string = `DocuChat answers questions over your own documents, providing:

1. **Document Ingestion**: Split documents into chunks and index them for search
2. **Semantic Retrieval**: Find the most relevant chunks for a natural language query
3. **Grounded Answers**: Generate answers backed by the retrieved chunks, with sources

Available operations:
- tools/list: Get all available tools
- tools/call: Execute tools (ingest_document, query_documents, chat)

Ingest documents first; queries against an empty index return no results.`

func InitializeEndpoint(svc docuchat.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.InitializeParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		protocolVersion := mcp.LATEST_PROTOCOL_VERSION
		if clientVersion := params.ProtocolVersion; clientVersion != "" {
			if slices.Contains(mcp.ValidProtocolVersions, clientVersion) {
				protocolVersion = clientVersion
			}
		}

		result := &mcp.InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: mcp.ServerCapabilities{
				Tools: &struct {
					ListChanged bool `json:"listChanged,omitempty"`
				}{},
			},
			ServerInfo: mcp.Implementation{
				Name:    "docuchat",
				Version: "1.0.0",
			},
			Instructions: MCPSERVER_INSTRUCTIONS,
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func PingEndpoint(svc docuchat.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  struct{}{}, // empty response
		}
	}
}

func ListToolsEndpoint(svc docuchat.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		result := &mcp.ListToolsResult{
			Tools: []mcp.Tool{
				mcp.NewTool("ingest_document",
					mcp.WithDescription("Split a document into chunks, embed them and add them to the vector index."),
					mcp.WithString("document_name",
						mcp.Required(),
						mcp.Description("Name the document is indexed under."),
					),
					mcp.WithString("text",
						mcp.Required(),
						mcp.Description("Raw text content of the document."),
					),
				),
				mcp.NewTool("query_documents",
					mcp.WithDescription("Retrieve the chunks closest to a natural language query."),
					mcp.WithString("query",
						mcp.Required(),
						mcp.Description("Natural language query."),
					),
					mcp.WithNumber("k",
						mcp.Description("Number of chunks to retrieve."),
					),
				),
				mcp.NewTool("chat",
					mcp.WithDescription("Answer a question grounded in the indexed documents, citing sources."),
					mcp.WithString("query",
						mcp.Required(),
						mcp.Description("Question to answer."),
					),
				),
			},
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func CallToolEndpoint(svc docuchat.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.CallToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		callToolReq := mcp.CallToolRequest{
			Request: mcp.Request{
				Method: string(req.Method),
			},
			Params: params,
		}

		result, err := callTool(ctx, svc, callToolReq)
		if err != nil {
			return errorResponse(req.ID, mcp.INTERNAL_ERROR, err.Error())
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func callTool(ctx context.Context, svc docuchat.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	switch req.Params.Name {
	case "ingest_document":
		name, err := req.RequireString("document_name")
		if err != nil {
			return nil, err
		}

		text, err := req.RequireString("text")
		if err != nil {
			return nil, err
		}

		receipt, err := svc.IngestText(ctx, name, text)
		if err != nil {
			return nil, err
		}

		out, err := json.Marshal(receipt)
		if err != nil {
			return nil, err
		}

		return mcp.NewToolResultText(string(out)), nil

	case "query_documents":
		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}

		k := req.GetInt("k", 0)

		results, err := svc.Query(ctx, query, k)
		if err != nil {
			return nil, err
		}

		out, err := json.Marshal(results)
		if err != nil {
			return nil, err
		}

		return mcp.NewToolResultText(string(out)), nil

	case "chat":
		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}

		answer, err := svc.Chat(ctx, query)
		if err != nil {
			return nil, err
		}

		text := answer.Text
		if len(answer.Sources) > 0 {
			text += "\n\nSources: " + strings.Join(answer.Sources, ", ")
		}

		return mcp.NewToolResultText(text), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Params.Name)
	}
}
