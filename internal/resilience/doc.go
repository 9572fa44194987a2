// Package resilience holds the fault tolerance building blocks used around
// outbound calls to pravo.gov.ru and the Telegram Bot API.
//
// Subpackages:
//   - retry: exponential backoff with jitter and retryability classification
//   - circuitbreaker: named gobreaker instances with per-target presets
//
// Typical use wraps a retried operation inside a breaker:
//
//	cb := circuitbreaker.New(circuitbreaker.PageFetchConfig("npa"))
//	_, err := cb.Execute(func() (interface{}, error) {
//	    return nil, retry.WithBackoff(ctx, retry.PageFetchConfig, fetchPage)
//	})
package resilience
