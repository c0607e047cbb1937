package details

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"worldfolio/internal/country"
	"worldfolio/internal/platform/metrics"
	dErrors "worldfolio/pkg/domain-errors"
	"worldfolio/pkg/fetch"
	wstrings "worldfolio/pkg/platform/strings"
	"worldfolio/pkg/requestcontext"
)

// Chat fallbacks.
const (
	greetingFormat = "Hello! I'm your AI assistant. Ask me anything about %s!"
	chatFallback   = "Sorry, I had trouble processing your request. Please try again."
)

var (
	// ErrChatBusy is returned while an answer is still pending.
	ErrChatBusy = dErrors.New(dErrors.CodeConflict, "the assistant is still answering")

	// ErrNoSubject is returned before a country has loaded.
	ErrNoSubject = dErrors.New(dErrors.CodeConflict, "no country loaded yet")
)

// Role tells who wrote a chat message.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// ChatStatus is idle or awaiting an answer.
type ChatStatus string

const (
	ChatIdle     ChatStatus = "idle"
	ChatAwaiting ChatStatus = "awaiting"
)

type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type ChatState struct {
	Status   ChatStatus `json:"status"`
	Messages []Message  `json:"messages"`
}

// Asker answers a question about a country. It never fails; an empty answer
// means the assistant had nothing to say.
type Asker interface {
	Ask(ctx context.Context, subject country.Country, question string) string
}

// Chat is the question-and-answer widget for the current subject. History is
// append-only until the subject changes.
type Chat struct {
	ai      Asker
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.Mutex
	guard    fetch.Guard
	subject  *country.Country
	awaiting bool
	messages []Message
}

func NewChat(ai Asker, m *metrics.Metrics) *Chat {
	return &Chat{
		ai:       ai,
		metrics:  m,
		now:      time.Now,
		messages: []Message{},
	}
}

// Reset starts a new conversation about subject, or clears the widget when
// subject is nil. A pending answer for the previous subject is discarded.
func (c *Chat) Reset(subject *country.Country) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guard.Invalidate()
	c.subject = subject
	c.awaiting = false
	c.messages = []Message{}
	if subject != nil {
		c.messages = append(c.messages, Message{
			Role: RoleBot,
			Text: fmt.Sprintf(greetingFormat, subject.DisplayName()),
			At:   c.now(),
		})
	}
}

// Submit asks question and blocks until the answer is appended. Blank
// questions are ignored and leave the chat idle.
func (c *Chat) Submit(ctx context.Context, question string) (ChatState, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return c.State(), nil
	}

	c.mu.Lock()
	if c.subject == nil {
		c.mu.Unlock()
		return c.State(), ErrNoSubject
	}
	if c.awaiting {
		c.mu.Unlock()
		return c.State(), ErrChatBusy
	}
	c.messages = append(c.messages, Message{Role: RoleUser, Text: question, At: requestcontext.Now(ctx)})
	c.awaiting = true
	subject := *c.subject
	actx, token := c.guard.Next(context.WithoutCancel(ctx))
	c.mu.Unlock()

	start := time.Now()
	answer := c.ai.Ask(actx, subject, question)
	if wstrings.IsBlank(answer) {
		answer = chatFallback
	}

	c.mu.Lock()
	if c.guard.IsCurrent(token) {
		c.messages = append(c.messages, Message{Role: RoleBot, Text: answer, At: c.now()})
		c.awaiting = false
		c.guard.Settle(token)
		c.metrics.ObserveChatTurn(time.Since(start))
	} else {
		c.metrics.StaleResult("chat")
	}
	c.mu.Unlock()
	return c.State(), nil
}

// State returns a snapshot for rendering.
func (c *Chat) State() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := ChatIdle
	if c.awaiting {
		status = ChatAwaiting
	}
	msgs := make([]Message, len(c.messages))
	copy(msgs, c.messages)
	return ChatState{Status: status, Messages: msgs}
}

// Close discards any pending answer.
func (c *Chat) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guard.Invalidate()
}
