// Package fetch wraps outbound HTTP calls with bounded exponential-backoff
// retry and error classification.
//
// Non-2xx responses surface as *StatusError so the retry policy and provider
// adapters can distinguish not-found, rate-limit, and server failures without
// re-reading response bodies. Client errors (4xx other than 429) fail
// immediately; 429 and 5xx responses, along with transport errors, retry up
// to the configured budget. Retry delays block only the calling goroutine.
package fetch
