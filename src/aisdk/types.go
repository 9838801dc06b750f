// Package aisdk holds the wire types of the OpenAI-compatible chat completions API.
package aisdk

// Message roles understood by chat completion endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role" yaml:"role" validate:"required,role"`
	Content string `json:"content" yaml:"content"`
}

// ChatCompletionRequest represents a request to the chat completions endpoint.
type ChatCompletionRequest struct {
	Model       string     `json:"model"`
	Messages    []*Message `json:"messages"`
	Temperature *float64   `json:"temperature,omitempty"`
	MaxTokens   *int       `json:"max_tokens,omitempty"`
	Stream      bool       `json:"stream,omitempty"`
}

// ChatCompletionResponse represents a response from the chat completions endpoint.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a single completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorResponse is the error envelope returned with non-2xx statuses:
// {"error":{"message":"...","type":"...","code":"..."}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the payload of ErrorResponse.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	// Code is a string for most providers but some send numbers.
	Code any `json:"code,omitempty"`
}

// Content returns the content of the first choice, or "" when there is none.
func (r *ChatCompletionResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}
