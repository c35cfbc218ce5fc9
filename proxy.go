package docuchat

import (
	"context"
	"errors"
	"io"

	"github.com/docuchat/docuchat/generate"
	"github.com/docuchat/docuchat/index"
)

// ProxyMiddleware implements Service on top of remote endpoints, letting a
// thin client (for example the stdio MCP server) talk to a docuchat instance
// running elsewhere.
func ProxyMiddleware(endpoints *EndpointSet) ServiceMiddleware {
	return func(next Service) Service {
		return &proxyMiddleware{
			endpoints: endpoints,
		}
	}
}

type proxyMiddleware struct {
	endpoints *EndpointSet
}

func (mw *proxyMiddleware) Close() error {
	return nil
}

func (mw *proxyMiddleware) UploadDocument(ctx context.Context, filename string, content io.Reader) (*IngestReceipt, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}

	req := UploadDocumentRequest{
		Filename: filename,
		Content:  data,
	}

	resp, err := mw.endpoints.UploadDocument(ctx, req)
	if err != nil {
		return nil, err
	}

	receipt, ok := resp.(*IngestReceipt)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return receipt, nil
}

func (mw *proxyMiddleware) IngestText(ctx context.Context, documentName, text string) (*IngestReceipt, error) {
	req := IngestTextRequest{
		DocumentName: documentName,
		Text:         text,
	}

	resp, err := mw.endpoints.IngestText(ctx, req)
	if err != nil {
		return nil, err
	}

	receipt, ok := resp.(*IngestReceipt)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return receipt, nil
}

func (mw *proxyMiddleware) Query(ctx context.Context, query string, k int) ([]index.Result, error) {
	req := QueryRequest{
		Query: query,
		K:     k,
	}

	resp, err := mw.endpoints.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	results, ok := resp.([]index.Result)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return results, nil
}

func (mw *proxyMiddleware) Chat(ctx context.Context, query string) (*generate.Answer, error) {
	req := ChatRequest{
		Query: query,
	}

	resp, err := mw.endpoints.Chat(ctx, req)
	if err != nil {
		return nil, err
	}

	answer, ok := resp.(*generate.Answer)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return answer, nil
}

func (mw *proxyMiddleware) Stats(ctx context.Context) (*Stats, error) {
	resp, err := mw.endpoints.Stats(ctx, nil)
	if err != nil {
		return nil, err
	}

	stats, ok := resp.(*Stats)
	if !ok {
		return nil, errors.New("invalid response type")
	}

	return stats, nil
}

func (mw *proxyMiddleware) Reset(ctx context.Context) error {
	_, err := mw.endpoints.Reset(ctx, nil)
	return err
}
