// Package assistant answers the in-app help questions.
package assistant

import (
	"slices"
	"strings"
	"sync"
	"unicode"
)

const (
	Greeting = "Hi! I am XepoL, your assistant. How can I help you?"
	Fallback = "I am not sure about that. Try asking one of the suggested questions."
	hello    = "Hello! How can I assist you today?"
)

type FAQ struct {
	Question string
	Answer   string
}

// Questions are offered as suggestions until the conversation gets going.
var Questions = []FAQ{
	{"What is budget?", "A budget is a plan to manage your income and expenses over a period of time."},
	{"How to add expense?", `Go to the Expenses page and use the "Add Expense" form.`},
	{"How to view reports?", "Navigate to the Reports page to see a breakdown of your spending."},
	{"Is my data safe?", "Yes, your data is stored securely and only accessible by you."},
}

// Message is one line of the conversation.
type Message struct {
	Text   string
	FromMe bool
}

// Answer replies to a free-text question. A question matches an FAQ when
// it contains the FAQ's wording, ignoring case and the question mark.
func Answer(input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))
	if lower == "" {
		return ""
	}

	for _, faq := range Questions {
		if strings.Contains(lower, normalise(faq.Question)) {
			return faq.Answer
		}
	}

	for _, word := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if word == "hi" || word == "hello" {
			return hello
		}
	}
	return Fallback
}

func normalise(q string) string {
	return strings.ToLower(strings.ReplaceAll(q, "?", ""))
}

// Chat is the running conversation. The app serves one user, so there is
// one Chat per process; Reset clears it on sign-out.
type Chat struct {
	mu       sync.Mutex
	messages []Message
}

// Ask records input and the reply, and returns the conversation so far.
func (c *Chat) Ask(input string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startLocked()
	if input = strings.TrimSpace(input); input != "" {
		c.messages = append(c.messages,
			Message{Text: input, FromMe: true},
			Message{Text: Answer(input)},
		)
	}
	return slices.Clone(c.messages)
}

func (c *Chat) Messages() []Message { return c.Ask("") }

func (c *Chat) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

func (c *Chat) startLocked() {
	if len(c.messages) == 0 {
		c.messages = []Message{{Text: Greeting}}
	}
}

// ShowSuggestions reports whether the suggested questions are still shown,
// which they are until the first exchange.
func ShowSuggestions(history []Message) bool { return len(history) < 3 }
