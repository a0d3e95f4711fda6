// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the codex config directory (~/.codex).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates with embedded defaults
package file
