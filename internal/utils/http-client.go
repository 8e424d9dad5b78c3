package utils

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"
)

type HTTPClientConfig struct {
	Timeout       time.Duration // connect + TLS handshake + first response byte
	UserAgent     string
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
	Headers       map[string]string
	InsecureTLS   bool
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type GrablistHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// NewGrablistHTTPClient builds the shared client for all workers. The
// configured timeout bounds dialing, the TLS handshake and the wait for
// response headers; the body transfer itself is unbounded, so a slow but
// live download is never cut off mid-stream. Keep-alives are disabled so
// each task gets its own connection.
func NewGrablistHTTPClient(cfg HTTPClientConfig) *GrablistHTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: cfg.Timeout,
		// The first-byte bound is the response headers. A server that
		// sends headers and then stalls before the first body byte is
		// not cut off; a deadline on the first body read would close
		// that gap without bounding the transfer.
		ResponseHeaderTimeout: cfg.Timeout,
		DisableCompression:    true,
		DisableKeepAlives:     true,
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err == nil {
			if cfg.ProxyUsername != "" {
				if cfg.ProxyPassword != "" {
					proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
				} else {
					proxyURL.User = url.User(cfg.ProxyUsername)
				}
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &GrablistHTTPClient{
		client: &http.Client{
			Transport: transport,
		},
		config: cfg,
	}
}

func (g *GrablistHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if g.config.UserAgent != "" {
		req.Header.Set("User-Agent", g.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", ToolUserAgent)
	}
	for k, v := range g.config.Headers {
		req.Header.Set(k, v)
	}
	return g.client.Do(req)
}
