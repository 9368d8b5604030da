// Package conversation runs the assistant's turn-taking loop as a small
// state machine over five nodes: chatbot, human, tools, request and end.
package conversation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aismail/findoc-agent/internal/config"
	"github.com/aismail/findoc-agent/internal/llm"
	"github.com/aismail/findoc-agent/internal/tools"
	"github.com/aismail/findoc-agent/internal/voice"
)

// ErrNoMessages is returned when routing runs on an empty transcript.
var ErrNoMessages = errors.New("no messages in conversation state")

const quitCommand = "quit"

const toolApology = "Apologies, I ran into a problem while analyzing the document. Could you try again?"

type node int

const (
	nodeChatbot node = iota
	nodeHuman
	nodeTools
	nodeRequest
	nodeEnd
)

// Params tunes the chat model calls made by the controller.
type Params struct {
	MaxTokens   int
	Temperature float64
}

// Controller drives one interactive session. It owns the transcript and
// moves between nodes until the session ends.
type Controller struct {
	chat     llm.ChatClient
	registry *tools.Registry
	speaker  voice.Speaker
	prompts  *config.Prompts
	in       *bufio.Scanner
	out      io.Writer
	params   Params
	logger   *zerolog.Logger
}

func NewController(
	chat llm.ChatClient,
	registry *tools.Registry,
	speaker voice.Speaker,
	prompts *config.Prompts,
	in io.Reader,
	out io.Writer,
	params Params,
	logger *zerolog.Logger,
) *Controller {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Controller{
		chat:     chat,
		registry: registry,
		speaker:  speaker,
		prompts:  prompts,
		in:       scanner,
		out:      out,
		params:   params,
		logger:   logger,
	}
}

// Run executes the state machine until the end node is reached or the
// context is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	state := &State{}
	current := nodeChatbot

	for current != nodeEnd {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		switch current {
		case nodeChatbot:
			current, err = c.chatbotNode(ctx, state)
		case nodeHuman:
			current, err = c.humanNode(ctx, state)
		case nodeTools:
			current, err = c.toolsNode(ctx, state)
		case nodeRequest:
			current, err = c.requestNode(ctx, state)
		}
		if err != nil {
			return err
		}
	}

	c.logger.Info().Int("messages", len(state.Messages)).Msg("session ended")
	return nil
}

// chatbotNode produces the next assistant message. On an empty transcript
// it emits the configured greeting without calling the model. Model
// failures become an apology message and the session continues.
func (c *Controller) chatbotNode(ctx context.Context, state *State) (node, error) {
	if len(state.Messages) == 0 {
		state.append(llm.AssistantMessage(c.prompts.Greeting))
		return c.routeAfterChatbot(state)
	}

	response, err := c.chat.Chat(ctx, llm.ChatRequest{
		System:      c.prompts.Persona,
		Messages:    state.Messages,
		Tools:       c.registry.Specs(),
		MaxTokens:   c.params.MaxTokens,
		Temperature: c.params.Temperature,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("chat model call failed")
		state.append(llm.AssistantMessage(toolApology))
		return nodeHuman, nil
	}

	state.append(response.Message)
	return c.routeAfterChatbot(state)
}

// routeAfterChatbot picks the next node from the last assistant message.
// Tool calls go to the tools node when at least one of them is natively
// resolvable, otherwise to the request node.
func (c *Controller) routeAfterChatbot(state *State) (node, error) {
	last, ok := state.last()
	if !ok {
		return nodeEnd, ErrNoMessages
	}
	if state.End {
		return nodeEnd, nil
	}
	if len(last.ToolCalls) > 0 {
		for _, call := range last.ToolCalls {
			if c.registry.Resolvable(call.Name) {
				return nodeTools, nil
			}
		}
		return nodeRequest, nil
	}
	return nodeHuman, nil
}

// humanNode prints the assistant's reply, speaks it, and reads the next
// user line. EOF on input and a literal "quit" both end the session.
func (c *Controller) humanNode(ctx context.Context, state *State) (node, error) {
	last, ok := state.last()
	if !ok {
		return nodeEnd, ErrNoMessages
	}

	if last.Content != "" {
		fmt.Fprintf(c.out, "AI: %s\n", last.Content)
		if err := c.speaker.Speak(ctx, last.Content); err != nil {
			c.logger.Warn().Err(err).Msg("speech synthesis failed")
		}
	}

	fmt.Fprint(c.out, "> ")
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return nodeEnd, err
		}
		state.End = true
		return nodeEnd, nil
	}

	input := strings.TrimSpace(c.in.Text())
	if strings.EqualFold(input, quitCommand) {
		state.End = true
		return nodeEnd, nil
	}

	state.append(llm.UserMessage(input))
	return nodeChatbot, nil
}

// toolsNode executes every tool call from the last assistant message and
// appends the results. A failed execution becomes an apologetic result so
// the model can recover instead of the session dying.
func (c *Controller) toolsNode(ctx context.Context, state *State) (node, error) {
	last, ok := state.last()
	if !ok {
		return nodeEnd, ErrNoMessages
	}

	for _, call := range last.ToolCalls {
		result, err := c.registry.Execute(ctx, call)
		if err != nil {
			result = c.failureResult(call, err)
		}
		state.append(llm.ToolMessage(result))
	}
	return nodeChatbot, nil
}

// requestNode handles tool calls that could not be resolved natively. Each
// call gets an explanatory result so the model can rephrase or fall back.
func (c *Controller) requestNode(ctx context.Context, state *State) (node, error) {
	last, ok := state.last()
	if !ok {
		return nodeEnd, ErrNoMessages
	}

	for _, call := range last.ToolCalls {
		result, err := c.registry.Dispatch(ctx, call)
		if err != nil {
			result = c.failureResult(call, err)
		}
		state.append(llm.ToolMessage(result))
	}
	return nodeChatbot, nil
}

// failureResult turns a tool execution error into a result message. An
// unknown tool name gets an explicit unavailability notice on both the
// native and the manual path, so a mixed batch reports each call the same
// way; anything else becomes an apology.
func (c *Controller) failureResult(call llm.ToolCall, err error) llm.ToolResult {
	if errors.Is(err, tools.ErrUnresolvedTool) {
		c.logger.Warn().Str("tool", call.Name).Msg("model requested an unknown tool")
		return llm.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    fmt.Sprintf("The tool %q is not available. Available tools: %s.", call.Name, c.availableTools()),
		}
	}
	c.logger.Error().Err(err).Str("tool", call.Name).Msg("tool execution failed")
	return llm.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    toolApology,
	}
}

func (c *Controller) availableTools() string {
	specs := c.registry.Specs()
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return strings.Join(names, ", ")
}
