// Package fetch provides the HTTP client that retrieves single document
// pages from a token-authorized DocImage endpoint.
//
// This package handles:
//   - Per-page GET requests with the token and page number as query params
//   - Separate connect and read timeouts
//   - Retry with full-jitter exponential backoff and Retry-After support
//   - Classified errors (timeout, connection, HTTP status, invalid response)
//
// # Usage
//
//	client := fetch.NewClient(fetch.Options{
//	    BaseURL: "https://media.ctump.edu.vn/DocImage.axd",
//	})
//
//	page, err := client.FetchPage(ctx, token, 12)
//	// page.Body, page.ContentType, page.Attempts
//
// Each call is independent; the client is safe for unlimited concurrent use.
package fetch
