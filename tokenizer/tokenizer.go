// Package tokenizer provides a unified token-counting interface with a
// tiktoken-backed exact counter and a character-ratio estimator, used
// for stream token-throughput accounting.
package tokenizer

// Tokenizer counts model tokens in text.
type Tokenizer interface {
	// CountTokens returns the number of tokens in text.
	CountTokens(text string) (int, error)

	// Model returns the model name this tokenizer targets.
	Model() string
}
