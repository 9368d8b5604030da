package conversation

import "github.com/aismail/findoc-agent/internal/llm"

// State is the conversation transcript plus the termination flag. The
// transcript is append-only; nodes add messages, never rewrite them.
type State struct {
	Messages []llm.Message
	End      bool
}

func (s *State) append(msg llm.Message) {
	s.Messages = append(s.Messages, msg)
}

func (s *State) last() (llm.Message, bool) {
	if len(s.Messages) == 0 {
		return llm.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
