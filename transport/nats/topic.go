package nats

import (
	"github.com/nats-io/nats.go/micro"

	"github.com/docuchat/docuchat"
)

func AddEndpoints(group micro.Group, endpoints docuchat.EndpointSet) {
	group.AddEndpoint("upload_document", UploadDocumentHandler(endpoints.UploadDocument))
	group.AddEndpoint("ingest_text", IngestTextHandler(endpoints.IngestText))
	group.AddEndpoint("query", QueryHandler(endpoints.Query))
	group.AddEndpoint("chat", ChatHandler(endpoints.Chat))
	group.AddEndpoint("stats", StatsHandler(endpoints.Stats))
	group.AddEndpoint("reset", ResetHandler(endpoints.Reset))
}
