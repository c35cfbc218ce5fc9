package docuchat

import (
	"errors"

	"github.com/docuchat/docuchat/bus"
	"github.com/docuchat/docuchat/embedding"
	"github.com/docuchat/docuchat/generate"
	"github.com/docuchat/docuchat/index"
	"github.com/docuchat/docuchat/segment"
)

var (
	ErrNoContent         = errors.New("no text extracted from document")
	ErrNoChunks          = errors.New("document produced no chunks")
	ErrEmbedderNotSet    = errors.New("embedder not set")
	ErrGeneratorNotSet   = errors.New("generator not set")
	ErrEmbedderDimension = errors.New("embedder dimension disagrees with index dimension")
	ErrUnexpectedPayload = errors.New("unexpected payload kind")
)

// Agent names route envelopes between the pipeline stages.
const (
	AgentIngestion = "IngestionAgent"
	AgentRetrieval = "RetrievalAgent"
	AgentResponse  = "LLMResponseAgent"
)

type Config struct {
	Index      IndexConfig      `yaml:"index"`
	Segmenter  SegmenterConfig  `yaml:"segmenter"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Embedding  embedding.Config `yaml:"embedding"`
	Generation generate.Config  `yaml:"generation"`
}

type IndexConfig struct {
	Path      string `yaml:"path"`
	Dimension int    `yaml:"dimension"`
}

type SegmenterConfig struct {
	ChunkSize int `yaml:"chunkSize"`
	Overlap   int `yaml:"overlap"`
}

func (cfg SegmenterConfig) options() segment.Options {
	opts := segment.DefaultOptions()
	if cfg.ChunkSize > 0 {
		opts.ChunkSize = cfg.ChunkSize
		opts.Overlap = cfg.Overlap
	}

	return opts
}

type RetrievalConfig struct {
	TopK int `yaml:"topK"`
}

const DefaultTopK = 5

// IngestState tracks one document through the ingestion pipeline. A document
// either reaches StatePersisted or stops early: StateIndexed when only the
// snapshot write failed, StateAborted for everything else.
type IngestState string

const (
	StateReceived  IngestState = "received"
	StateSegmented IngestState = "segmented"
	StateEmbedded  IngestState = "embedded"
	StateIndexed   IngestState = "indexed"
	StatePersisted IngestState = "persisted"
	StateAborted   IngestState = "aborted"
)

type IngestReceipt struct {
	Document  string      `json:"document"`
	Chunks    int         `json:"chunks"`
	State     IngestState `json:"state"`
	Persisted bool        `json:"persisted"`
	Reason    string      `json:"reason,omitempty"`
}

func (r *IngestReceipt) abort(err error) {
	r.State = StateAborted
	r.Reason = err.Error()
}

// Payload kinds carried over the bus. Receivers dispatch on Kind and reject
// anything they do not know.
const (
	KindIngestionComplete = "ingestion.complete"
	KindQueryResults      = "query.results"
)

// IngestionCompletePayload notifies the retrieval stage that a document has
// been segmented, embedded and indexed.
type IngestionCompletePayload struct {
	DocumentName string `json:"document_name"`
	FileType     string `json:"file_type,omitempty"`
	ChunkCount   int    `json:"chunk_count"`
	TotalChars   int    `json:"total_chars"`
}

func (p *IngestionCompletePayload) Kind() string { return KindIngestionComplete }

// QueryResultsPayload hands ranked retrieval results to the generation stage.
type QueryResultsPayload struct {
	Query          string         `json:"query"`
	TopChunks      []index.Result `json:"top_chunks"`
	TotalDocuments int            `json:"total_documents"`
}

func (p *QueryResultsPayload) Kind() string { return KindQueryResults }

// Stats aggregates the state of the vector index and the message bus.
type Stats struct {
	Index  index.Stats               `json:"index"`
	Queues map[string]bus.QueueStats `json:"queues"`
}
