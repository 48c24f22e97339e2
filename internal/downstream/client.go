package downstream

import (
	"net/http"
	"time"
)

// NewHTTPClient builds the client shared by the downstream forwarders. The
// timeout bounds every external call; no retries happen at this layer.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        32,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
