// Package llm provides an OpenRouter chat client for JSON-only completions.
//
// This package is used by:
//   - Judge personas: produce criterion opinions with cited evidence
//   - Documentation collector: extract claims from README and docs
//
// # Request Shape
//
// The client sends a system prompt and user prompt to a configured model with
// response_format set to json_object and temperature zero. Callers decode the
// returned payload into their own typed structures via DecodeLLMJSON, which
// tolerates code fences and prose wrapping around the JSON body.
//
// # Configuration
//
// Requires api_key and model, and optionally base_url, referer, title,
// timeout. The config [llm] section feeds Config directly.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). Retry-After headers are honored. Context cancellation
// aborts retries immediately.
package llm
