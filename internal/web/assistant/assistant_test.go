package assistant_test

import (
	"testing"

	"github.com/aussiebroadwan/budgetwise/internal/web/assistant"
	"github.com/stretchr/testify/require"
)

func TestAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"What is budget?", assistant.Questions[0].Answer},
		{"so, what is budget exactly", assistant.Questions[0].Answer},
		{"HOW TO ADD EXPENSE", assistant.Questions[1].Answer},
		{"how to view reports?", assistant.Questions[2].Answer},
		{"Is my data safe", assistant.Questions[3].Answer},
		{"hello there", "Hello! How can I assist you today?"},
		{"Hi!", "Hello! How can I assist you today?"},
		{"this is weird", assistant.Fallback},
		{"what is the weather", assistant.Fallback},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, assistant.Answer(tt.in))
		})
	}
}

func TestChat(t *testing.T) {
	t.Parallel()

	var c assistant.Chat
	h := c.Messages()
	require.Equal(t, []assistant.Message{{Text: assistant.Greeting}}, h)
	require.True(t, assistant.ShowSuggestions(h))

	h = c.Ask("  Is my data safe?  ")
	require.Len(t, h, 3)
	require.Equal(t, assistant.Message{Text: "Is my data safe?", FromMe: true}, h[1])
	require.Equal(t, assistant.Questions[3].Answer, h[2].Text)
	require.False(t, assistant.ShowSuggestions(h))

	h[0].Text = "changed"
	require.Equal(t, assistant.Greeting, c.Messages()[0].Text)

	c.Reset()
	require.Len(t, c.Messages(), 1)
}
