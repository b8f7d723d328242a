package telegram

import (
	"net"
	"net/http"
	"time"
)

const (
	dialTimeout      = 5 * time.Second
	tlsTimeout       = 5 * time.Second
	idleConnTimeout  = 90 * time.Second
	keepAlive        = 30 * time.Second
	minClientTimeout = 30 * time.Second
	// pollMargin is added on top of the long-poll wait so getUpdates is not cut off by the client.
	pollMargin = 15 * time.Second
)

// BuildHTTPClient returns the client for Telegram API calls. Requests are sent
// once; failed calls surface to the handler that made them. longPoll is the
// getUpdates wait; the client timeout always exceeds it.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	timeout := longPoll + pollMargin
	if timeout < minClientTimeout {
		timeout = minClientTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}).DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     idleConnTimeout,
			TLSHandshakeTimeout: tlsTimeout,
		},
	}
}
