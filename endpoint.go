package docuchat

import (
	"bytes"
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

type EndpointSet struct {
	UploadDocument endpoint.Endpoint
	IngestText     endpoint.Endpoint
	Query          endpoint.Endpoint
	Chat           endpoint.Endpoint
	Stats          endpoint.Endpoint
	Reset          endpoint.Endpoint
}

type UploadDocumentRequest struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

func UploadDocumentEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(UploadDocumentRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.UploadDocument(ctx, req.Filename, bytes.NewReader(req.Content))
	}
}

type IngestTextRequest struct {
	DocumentName string `json:"document_name"`
	Text         string `json:"text"`
}

func IngestTextEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(IngestTextRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.IngestText(ctx, req.DocumentName, req.Text)
	}
}

type QueryRequest struct {
	Query string `form:"q" json:"query"`
	K     int    `form:"k" json:"k,omitempty"`
}

func QueryEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(QueryRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.Query(ctx, req.Query, req.K)
	}
}

type ChatRequest struct {
	Query string `json:"query"`
}

func ChatEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(ChatRequest)
		if !ok {
			return nil, errors.New("invalid request type")
		}

		return svc.Chat(ctx, req.Query)
	}
}

func StatsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.Stats(ctx)
	}
}

func ResetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		err := svc.Reset(ctx)
		return nil, err
	}
}
