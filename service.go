package docuchat

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/docuchat/docuchat/bus"
	"github.com/docuchat/docuchat/embedding"
	"github.com/docuchat/docuchat/extract"
	"github.com/docuchat/docuchat/generate"
	"github.com/docuchat/docuchat/index"
	"github.com/docuchat/docuchat/segment"
)

// Service is the coordination core of the RAG pipeline: it drives documents
// through segmentation, embedding and indexing, and queries through
// retrieval and answer generation, passing stage notifications over the
// message bus.
type Service interface {

	// Close shuts down the service.
	Close() error

	// UploadDocument extracts text from a document file and ingests it.
	UploadDocument(ctx context.Context, filename string, content io.Reader) (*IngestReceipt, error)

	// IngestText ingests raw text under the given document name.
	IngestText(ctx context.Context, documentName, text string) (*IngestReceipt, error)

	// Query embeds the query, retrieves the k nearest chunks and publishes
	// them for the generation stage. An empty index yields empty results.
	Query(ctx context.Context, query string, k int) ([]index.Result, error)

	// Chat runs Query and consumes the published results to produce a
	// grounded answer.
	Chat(ctx context.Context, query string) (*generate.Answer, error)

	// Stats reports vector index and message bus statistics.
	Stats(ctx context.Context) (*Stats, error)

	// Reset clears the vector index, its persisted files, and all agent
	// queues.
	Reset(ctx context.Context) error
}

type ServiceMiddleware func(Service) Service

func NewService(cfg Config, embedder embedding.Embedder, generator generate.Generator) (Service, error) {
	if embedder == nil {
		return nil, ErrEmbedderNotSet
	}

	log := zap.L().With(
		zap.String("service", "docuchat"),
	)

	dim := cfg.Index.Dimension
	if dim <= 0 {
		dim = embedder.Dimension()
	}

	if dim != embedder.Dimension() {
		return nil, ErrEmbedderDimension
	}

	ix, err := index.Open(cfg.Index.Path, dim, log)
	if err != nil {
		return nil, err
	}

	topK := cfg.Retrieval.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &service{
		segment:   cfg.Segmenter.options(),
		topK:      topK,
		embedder:  embedder,
		generator: generator,
		index:     ix,
		bus:       bus.New(),
		log:       log,
	}, nil
}

type service struct {
	segment   segment.Options
	topK      int
	embedder  embedding.Embedder
	generator generate.Generator
	index     *index.Index
	bus       *bus.Bus
	log       *zap.Logger
}

func (svc *service) Close() error {
	return nil
}

func (svc *service) UploadDocument(ctx context.Context, filename string, content io.Reader) (*IngestReceipt, error) {
	receipt := &IngestReceipt{
		Document: filename,
		State:    StateReceived,
	}

	text, err := extract.Text(filename, content)
	if err != nil {
		receipt.abort(err)
		return receipt, err
	}

	if text == "" {
		receipt.abort(ErrNoContent)
		return receipt, ErrNoContent
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")

	return svc.ingest(ctx, receipt, filename, fileType, text)
}

func (svc *service) IngestText(ctx context.Context, documentName, text string) (*IngestReceipt, error) {
	receipt := &IngestReceipt{
		Document: documentName,
		State:    StateReceived,
	}

	return svc.ingest(ctx, receipt, documentName, "", text)
}

// ingest drives one document through the pipeline state machine. Failures
// before indexing abort with no index mutation; a failed persist only keeps
// the receipt at StateIndexed, since the next successful persist captures
// everything accumulated so far.
func (svc *service) ingest(ctx context.Context, receipt *IngestReceipt, documentName, fileType, text string) (*IngestReceipt, error) {
	log := svc.log.With(
		zap.String("action", "ingest"),
		zap.String("document", documentName),
	)

	chunks, err := segment.Split(text, svc.segment)
	if err != nil {
		receipt.abort(err)
		return receipt, err
	}

	if len(chunks) == 0 {
		receipt.abort(ErrNoChunks)
		return receipt, ErrNoChunks
	}

	receipt.State = StateSegmented
	receipt.Chunks = len(chunks)

	vectors, err := svc.embedder.Embed(ctx, chunks)
	if err != nil {
		receipt.abort(err)
		return receipt, err
	}

	receipt.State = StateEmbedded

	if _, err := svc.index.Append(vectors, chunks, documentName); err != nil {
		receipt.abort(err)
		return receipt, err
	}

	receipt.State = StateIndexed

	if err := svc.index.Persist(); err != nil {
		// In-memory state stays authoritative; disk catches up on the
		// next successful persist.
		log.Error("snapshot not persisted", zap.Error(err))
	} else {
		receipt.State = StatePersisted
		receipt.Persisted = true
	}

	err = svc.bus.Send(bus.Draft{
		Sender:   AgentIngestion,
		Receiver: AgentRetrieval,
		Payload: &IngestionCompletePayload{
			DocumentName: documentName,
			FileType:     fileType,
			ChunkCount:   len(chunks),
			TotalChars:   len(text),
		},
	})
	if err != nil {
		log.Error(err.Error())
	}

	return receipt, nil
}

func (svc *service) Query(ctx context.Context, query string, k int) ([]index.Result, error) {
	if k <= 0 {
		k = svc.topK
	}

	vectors, err := svc.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	if len(vectors) != 1 {
		return nil, embedding.ErrEmbeddingUnavailable
	}

	results, err := svc.index.Search(vectors[0], k)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		svc.log.Warn("no chunks retrieved", zap.String("query", query))
		return results, nil
	}

	err = svc.bus.Send(bus.Draft{
		Sender:   AgentRetrieval,
		Receiver: AgentResponse,
		Payload: &QueryResultsPayload{
			Query:          query,
			TopChunks:      results,
			TotalDocuments: svc.index.Stats().DocumentCount,
		},
	})
	if err != nil {
		svc.log.Error(err.Error())
	}

	return results, nil
}

func (svc *service) Chat(ctx context.Context, query string) (*generate.Answer, error) {
	if svc.generator == nil {
		return nil, ErrGeneratorNotSet
	}

	if _, err := svc.Query(ctx, query, 0); err != nil {
		return nil, err
	}

	env, ok := svc.bus.Receive(AgentResponse)
	if !ok {
		// Nothing indexed yet; the generator answers without context.
		return svc.generator.Generate(ctx, query, nil)
	}

	payload, ok := env.Payload.(*QueryResultsPayload)
	if !ok {
		return nil, ErrUnexpectedPayload
	}

	chunks := make([]generate.ContextChunk, len(payload.TopChunks))
	for i, result := range payload.TopChunks {
		chunks[i] = generate.ContextChunk{
			Text:     result.Chunk,
			Document: result.Document,
		}
	}

	return svc.generator.Generate(ctx, payload.Query, chunks)
}

func (svc *service) Stats(ctx context.Context) (*Stats, error) {
	return &Stats{
		Index:  svc.index.Stats(),
		Queues: svc.bus.Stats(),
	}, nil
}

func (svc *service) Reset(ctx context.Context) error {
	if err := svc.index.Clear(); err != nil {
		return err
	}

	for _, agent := range []string{AgentIngestion, AgentRetrieval, AgentResponse} {
		svc.bus.Clear(agent)
	}

	svc.log.Info("service reset")
	return nil
}
