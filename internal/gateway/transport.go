package gateway

import (
	"context"
	"encoding/json"
)

// Transport carries one RPC call to the gateway. params is encoded as JSON and
// the raw JSON result is returned.
type Transport interface {
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
	Close() error
}

const (
	TransportHTTP = "http"
	TransportWS   = "ws"
)
