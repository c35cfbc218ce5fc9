package http

import (
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docuchat/docuchat"

	mcpE "github.com/docuchat/docuchat/mcp"
)

func AddRouters(r *gin.Engine, endpoints docuchat.EndpointSet) {
	// RESTful API routes
	api := r.Group("/api")
	{
		api.POST("/documents", UploadDocumentHandler(endpoints.UploadDocument))
		api.POST("/documents/text", IngestTextHandler(endpoints.IngestText))
		api.GET("/query", QueryHandler(endpoints.Query))
		api.POST("/chat", ChatHandler(endpoints.Chat))
		api.GET("/stats", StatsHandler(endpoints.Stats))
		api.DELETE("/index", ResetHandler(endpoints.Reset))
	}
}

func AddStreamableRouters(r *gin.Engine, endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint) {
	mcp := r.Group("/mcp")
	{
		mcp.POST("/", MCPStreamableHandler(endpoints))
	}
}
