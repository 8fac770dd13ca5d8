package httpclient

import (
	"net/http"
	"time"
)

const (
	maxIdleConns        = 20
	maxIdleConnsPerHost = 10
	idleConnTimeout     = 120 * time.Second
)

// sharedTransport is reused across all pooled clients so the chat,
// embedding and judge adapters talking to the same endpoint reuse
// connections instead of re-handshaking per request.
var sharedTransport = &http.Transport{
	MaxIdleConns:        maxIdleConns,
	MaxIdleConnsPerHost: maxIdleConnsPerHost,
	IdleConnTimeout:     idleConnTimeout,
}

// NewPooledClient creates an http.Client on the shared transport. The
// timeout bounds the whole request including body read, which also caps
// how long a collaborator call can stall a retrieval.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}
