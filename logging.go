package docuchat

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/docuchat/docuchat/generate"
	"github.com/docuchat/docuchat/index"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "docuchat"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) Close() error {
	log := mw.log.With(
		zap.String("action", "close"),
	)

	err := mw.next.Close()
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service closed")
	return nil
}

func (mw *loggingMiddleware) UploadDocument(ctx context.Context, filename string, content io.Reader) (*IngestReceipt, error) {
	log := mw.log.With(
		zap.String("action", "upload_document"),
		zap.String("filename", filename),
	)

	receipt, err := mw.next.UploadDocument(ctx, filename, content)
	if err != nil {
		log.Error(err.Error())
		return receipt, err
	}

	log.Info("document uploaded",
		zap.Int("chunks", receipt.Chunks),
		zap.String("state", string(receipt.State)),
	)
	return receipt, nil
}

func (mw *loggingMiddleware) IngestText(ctx context.Context, documentName, text string) (*IngestReceipt, error) {
	log := mw.log.With(
		zap.String("action", "ingest_text"),
		zap.String("document", documentName),
	)

	receipt, err := mw.next.IngestText(ctx, documentName, text)
	if err != nil {
		log.Error(err.Error())
		return receipt, err
	}

	log.Info("text ingested",
		zap.Int("chunks", receipt.Chunks),
		zap.String("state", string(receipt.State)),
	)
	return receipt, nil
}

func (mw *loggingMiddleware) Query(ctx context.Context, query string, k int) ([]index.Result, error) {
	log := mw.log.With(
		zap.String("action", "query"),
		zap.String("query", query),
	)

	if k > 0 {
		log = log.With(
			zap.Int("k", k),
		)
	}

	results, err := mw.next.Query(ctx, query, k)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("chunks retrieved", zap.Int("count", len(results)))
	return results, nil
}

func (mw *loggingMiddleware) Chat(ctx context.Context, query string) (*generate.Answer, error) {
	log := mw.log.With(
		zap.String("action", "chat"),
		zap.String("query", query),
	)

	answer, err := mw.next.Chat(ctx, query)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("answer produced", zap.Strings("sources", answer.Sources))
	return answer, nil
}

func (mw *loggingMiddleware) Stats(ctx context.Context) (*Stats, error) {
	log := mw.log.With(
		zap.String("action", "stats"),
	)

	stats, err := mw.next.Stats(ctx)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("stats collected",
		zap.Int("total_vectors", stats.Index.TotalVectors),
		zap.Int("documents", stats.Index.DocumentCount),
	)
	return stats, nil
}

func (mw *loggingMiddleware) Reset(ctx context.Context) error {
	log := mw.log.With(
		zap.String("action", "reset"),
	)

	err := mw.next.Reset(ctx)
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("service reset")
	return nil
}
