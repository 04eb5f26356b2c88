package net

import (
	"net/http"
	"time"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 60
	clientAgent      = "geocidr/1.0 (+https://github.com/mchmarny/geocidr)"
)

var (
	reqTransport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       timeoutInSeconds * time.Second,
		DisableCompression:    true,
		DisableKeepAlives:     false,
		ResponseHeaderTimeout: time.Duration(timeoutInSeconds) * time.Second,
	}
)

// GetHTTPClient returns the client used for table downloads.
// There is no overall timeout: large tables may take a while to stream.
func GetHTTPClient() *http.Client {
	return &http.Client{
		Transport: reqTransport,
	}
}
