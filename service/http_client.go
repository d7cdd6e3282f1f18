package service

import (
	"net/http"
	"time"
)

var httpClient *http.Client
var downloadClient *http.Client

func init() {
	httpClient = &http.Client{
		Timeout: 120 * time.Second,
	}
	downloadClient = &http.Client{
		Timeout: 30 * time.Second,
	}
}

// GetHttpClient returns the shared client for upstream API calls.
func GetHttpClient() *http.Client {
	return httpClient
}

// GetDownloadClient returns the client used to fetch result images.
func GetDownloadClient() *http.Client {
	return downloadClient
}
