package llm

import "encoding/json"

// Message roles used in the conversation transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a structured request emitted by the model to invoke a tool.
type ToolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

// ToolResult carries the output of a tool call back into the conversation.
type ToolResult struct {
	ToolCallID string
	Name       string
	Content    string
}

// Message is one entry in the conversation transcript. Transcripts are
// append-only; a message is never edited once appended.
type Message struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// UserMessage builds a plain user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage builds a plain assistant message.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// ToolMessage wraps a tool result as a transcript message.
func ToolMessage(result ToolResult) Message {
	return Message{Role: RoleTool, ToolResults: []ToolResult{result}}
}

// ToolSpec describes a tool the model may call.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

type ChatRequest struct {
	System      string
	Messages    []Message
	Tools       []ToolSpec
	MaxTokens   int
	Temperature float64
}

type ChatResponse struct {
	Message    Message
	StopReason string
}

type GenerateRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

type GenerateResponse struct {
	Content    string
	StopReason string
}
