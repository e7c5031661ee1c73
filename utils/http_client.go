package utils

import (
	"net"
	"net/http"
	"time"
)

const (
	defaultTimeout         = 60 * time.Second
	defaultDialTimeout     = 10 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
	defaultMaxIdleConns    = 100
)

type HTTPClientOption func(*http.Client)

func WithTimeout(timeout time.Duration) HTTPClientOption {
	return func(c *http.Client) {
		c.Timeout = timeout
	}
}

func NewHTTPClient(opts ...HTTPClientOption) *http.Client {
	client := &http.Client{
		Timeout: defaultTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   defaultDialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        defaultMaxIdleConns,
			MaxIdleConnsPerHost: defaultMaxIdleConns,
			IdleConnTimeout:     defaultIdleConnTimeout,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func DefaultHTTPClient() *http.Client {
	return NewHTTPClient()
}
