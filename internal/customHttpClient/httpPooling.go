package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/notex/internal/config"
)

// shared by every provider client so idle connections to the same host are reused
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewClient returns an http.Client on the pooled transport. A zero timeout means none.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
