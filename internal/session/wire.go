package session

import (
	"fmt"

	"github.com/dannyboland/loql/internal/loader"
)

// Message types exchanged with a worker process, one JSON document per line.
const (
	msgOpen     = "open"
	msgQuery    = "query"
	msgDescribe = "describe"
	msgCatalog  = "catalog"
	msgShutdown = "shutdown"
	msgReady    = "ready"
	msgReply    = "reply"
)

// envelope carries a request to the worker.
type envelope struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
	Text string `json:"text,omitempty"`
	Save bool   `json:"save,omitempty"`
	View string `json:"view,omitempty"`
}

// reply carries a response, or the worker's startup status, to the parent.
type reply struct {
	Type         string               `json:"type"`
	Response     *Response            `json:"response,omitempty"`
	Capabilities *loader.Capabilities `json:"capabilities,omitempty"`
	Fatal        string               `json:"fatal,omitempty"`
}

func encodeRequest(id string, req Request) (envelope, error) {
	switch r := req.(type) {
	case OpenRequest:
		return envelope{ID: id, Type: msgOpen, Path: r.Path}, nil
	case QueryRequest:
		return envelope{ID: id, Type: msgQuery, Text: r.Text, Save: r.Save}, nil
	case DescribeRequest:
		return envelope{ID: id, Type: msgDescribe, View: r.View}, nil
	case CatalogRequest:
		return envelope{ID: id, Type: msgCatalog}, nil
	default:
		return envelope{}, fmt.Errorf("unsupported request %T", req)
	}
}

func decodeRequest(env envelope) (Request, error) {
	switch env.Type {
	case msgOpen:
		return OpenRequest{Path: env.Path}, nil
	case msgQuery:
		return QueryRequest{Text: env.Text, Save: env.Save}, nil
	case msgDescribe:
		return DescribeRequest{View: env.View}, nil
	case msgCatalog:
		return CatalogRequest{}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
}
