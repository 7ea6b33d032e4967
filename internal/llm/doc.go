// Package llm provides a narrow completion interface over hosted language models.
// It supports OpenAI-compatible gateways and Anthropic, forced tool calls for
// structured output, tolerant JSON extraction from free text, client-side rate
// limiting and retries.
package llm
