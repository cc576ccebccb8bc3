// Package http_client provides the <get> task, which downloads a URL into a
// file or a build property.
package http_client

import (
	"time"

	"resty.dev/v3"
)

// DefaultTimeout bounds a download when the build file does not set one.
const DefaultTimeout = 30 * time.Second

// newClient builds the HTTP client used by one download.
func newClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "anvil")
}
