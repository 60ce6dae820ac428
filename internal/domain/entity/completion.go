package entity

// CompletionRequest is a single chat-completion call: one system message,
// one user message and the sampling parameters.
type CompletionRequest struct {
	System      string
	User        string
	Model       string
	Temperature float64
	MaxTokens   int64
}

type Completion struct {
	Text             string
	Model            string
	PromptTokens     int64
	CompletionTokens int64
}
