// Package llm holds helpers shared by the Generator adapters.
//
// Adapters live in sub-packages:
//   - openai: OpenAI chat completions
//   - anthropic: Anthropic messages API
//   - ollama: local Ollama server
//   - langchain: any OpenAI-compatible server (LM Studio) via langchaingo
//   - template: deterministic offline answers built from context chunks
package llm
