// Package llm provides merchant inference clients for unknown-merchant
// categorization. It supports Anthropic, OpenAI and a plain HTTP edge
// function, wrapped with retry logic, rate limiting, a circuit breaker and
// response caching.
package llm
