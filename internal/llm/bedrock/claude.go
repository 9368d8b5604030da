package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/aismail/findoc-agent/internal/llm"
)

var anthropicVersion = "bedrock-2023-05-31"

// Claude API request format (what Bedrock expects).
type claudeMessageRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature,omitempty"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
	Tools            []claudeTool    `json:"tools,omitempty"`
}

type claudeMessage struct {
	Role    string               `json:"role"`
	Content []claudeContentBlock `json:"content"`
}

// claudeContentBlock covers the text, tool_use and tool_result block
// variants of the Anthropic messages API.
type claudeContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type claudeTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// Claude API response format (what Bedrock returns).
type claudeMessageResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

const defaultMaxTokens = 1024

// Chat sends the conversation transcript, with tool bindings, to Claude.
// Tool calls emitted by the model come back as ToolCalls on the response
// message; the caller feeds results back in as RoleTool messages.
func (c *Client) Chat(ctx context.Context, request llm.ChatRequest) (*llm.ChatResponse, error) {
	maxTokens := request.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	payload := claudeMessageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      request.Temperature,
		System:           request.System,
		Messages:         buildClaudeMessages(request.Messages),
		Tools:            buildClaudeTools(request.Tools),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claude request: %w", err)
	}

	output, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke model: %w", err)
	}

	var response claudeMessageResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bedrock response: %w", err)
	}

	return &llm.ChatResponse{
		Message:    parseClaudeMessage(response),
		StopReason: response.StopReason,
	}, nil
}

// Generate runs a single-prompt completion without tool bindings.
func (c *Client) Generate(ctx context.Context, request llm.GenerateRequest) (*llm.GenerateResponse, error) {
	response, err := c.Chat(ctx, llm.ChatRequest{
		Messages:    []llm.Message{llm.UserMessage(request.Prompt)},
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
	})
	if err != nil {
		return nil, err
	}

	return &llm.GenerateResponse{
		Content:    response.Message.Content,
		StopReason: response.StopReason,
	}, nil
}

// buildClaudeMessages maps transcript messages onto Claude content blocks.
// Tool results travel as user-role tool_result blocks per the messages API.
func buildClaudeMessages(messages []llm.Message) []claudeMessage {
	out := make([]claudeMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleTool:
			blocks := make([]claudeContentBlock, 0, len(msg.ToolResults))
			for _, result := range msg.ToolResults {
				blocks = append(blocks, claudeContentBlock{
					Type:      "tool_result",
					ToolUseID: result.ToolCallID,
					Content:   result.Content,
				})
			}
			out = append(out, claudeMessage{Role: "user", Content: blocks})
		case llm.RoleAssistant:
			var blocks []claudeContentBlock
			if msg.Content != "" {
				blocks = append(blocks, claudeContentBlock{Type: "text", Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, claudeContentBlock{
					Type:  "tool_use",
					ID:    call.ID,
					Name:  call.Name,
					Input: call.Args,
				})
			}
			out = append(out, claudeMessage{Role: "assistant", Content: blocks})
		default:
			out = append(out, claudeMessage{
				Role:    "user",
				Content: []claudeContentBlock{{Type: "text", Text: msg.Content}},
			})
		}
	}
	return out
}

func buildClaudeTools(tools []llm.ToolSpec) []claudeTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]claudeTool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, claudeTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	return out
}

func parseClaudeMessage(response claudeMessageResponse) llm.Message {
	msg := llm.Message{Role: llm.RoleAssistant}
	for _, block := range response.Content {
		switch block.Type {
		case "text":
			msg.Content += block.Text
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
				ID:   block.ID,
				Name: block.Name,
				Args: block.Input,
			})
		}
	}
	return msg
}
