package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	last LLMRequest
	resp LLMResponse
	err  error
	wait time.Duration
}

func (s *stubLLM) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.last = req
	if s.wait > 0 {
		select {
		case <-time.After(s.wait):
		case <-ctx.Done():
			return LLMResponse{}, ctx.Err()
		}
	}
	return s.resp, s.err
}

func TestFallbackReplies_FirstMatchWins(t *testing.T) {
	f := NewFallbackReplies(Contact{Email: "lodge@example.com", Phone: "+27 73 342 6833"})

	tests := []struct {
		message string
		want    string
	}{
		{"HELLO there, I want a booking", f.entries[0].reply},
		{"Tell me about hunting at the lodge", f.entries[1].reply},
		{"Is the Lodge open?", f.entries[2].reply},
		{"Do you sell game meat?", f.entries[3].reply},
		{"How does booking work?", f.entries[4].reply},
		{"What is the weather like", f.def},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Reply(tt.message), tt.message)
	}
	assert.Contains(t, f.Reply("booking"), "lodge@example.com or +27 73 342 6833")
}

func TestFallbackReplies_ContactLine(t *testing.T) {
	assert.Contains(t, NewFallbackReplies(Contact{Phone: "+27 73 342 6833"}).Reply("booking"), "directly at +27 73 342 6833.")
	assert.Contains(t, NewFallbackReplies(Contact{Email: "a@b.co"}).Reply("?"), "contact us at a@b.co.")
}

func TestAssistant_FallbackWithoutClient(t *testing.T) {
	a := NewAssistant(nil, nil, AssistantConfig{}, nil)
	assert.False(t, a.UsesLLM())

	reply, err := a.Reply(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, reply.Source)
	assert.Contains(t, reply.Text, "Welcome")
}

func TestAssistant_BlankMessage(t *testing.T) {
	a := NewAssistant(&stubLLM{}, nil, AssistantConfig{}, nil)
	_, err := a.Reply(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrMessageRequired)
}

func TestAssistant_UsesLLM(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "  We offer walking safaris.  ", StopReason: "stop"}}
	a := NewAssistant(llm, nil, AssistantConfig{}, nil)

	reply, err := a.Reply(context.Background(), " walking safaris? ")
	require.NoError(t, err)
	assert.Equal(t, Reply{Text: "We offer walking safaris.", Source: SourceLLM}, reply)

	assert.Equal(t, int32(150), llm.last.MaxTokens)
	assert.InDelta(t, 0.7, llm.last.Temperature, 0.0001)
	require.Len(t, llm.last.Messages, 1)
	assert.Equal(t, "walking safaris?", llm.last.Messages[0].Content)
	assert.Equal(t, []string{defaultSystemPrompt}, llm.last.System)
}

func TestAssistant_ProviderError(t *testing.T) {
	a := NewAssistant(&stubLLM{err: errors.New("rate limited")}, nil, AssistantConfig{}, nil)
	_, err := a.Reply(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrCompletionFailed)
}

func TestAssistant_EmptyCompletion(t *testing.T) {
	a := NewAssistant(&stubLLM{resp: LLMResponse{Text: "  "}}, nil, AssistantConfig{}, nil)
	_, err := a.Reply(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestAssistant_Timeout(t *testing.T) {
	a := NewAssistant(&stubLLM{wait: time.Second}, nil, AssistantConfig{Timeout: 20 * time.Millisecond}, nil)
	_, err := a.Reply(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type stubOpenAI struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (s *stubOpenAI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.req = req
	return s.resp, s.err
}

func TestOpenAILLMClient_Complete(t *testing.T) {
	api := &stubOpenAI{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: " Karibu! "}, FinishReason: openai.FinishReasonStop}},
		Usage:   openai.Usage{PromptTokens: 10, CompletionTokens: 3, TotalTokens: 13},
	}}
	c := newOpenAILLMClient(api, "")

	resp, err := c.Complete(context.Background(), LLMRequest{
		System:      []string{"be brief"},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
		MaxTokens:   150,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Karibu!", resp.Text)
	assert.Equal(t, int32(13), resp.Usage.TotalTokens)

	assert.Equal(t, openai.GPT4oMini, api.req.Model)
	assert.Equal(t, 150, api.req.MaxTokens)
	require.Len(t, api.req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, api.req.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, api.req.Messages[1].Role)
}

func TestOpenAILLMClient_NoChoicesIsEmpty(t *testing.T) {
	c := newOpenAILLMClient(&stubOpenAI{}, "gpt-4o-mini")
	resp, err := c.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
}

func TestNewOpenAILLMClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAILLMClient(" ", "")
	assert.Error(t, err)
}

type stubBedrock struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (s *stubBedrock) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	s.input = params
	return s.out, s.err
}

func TestBedrockLLMClient_Complete(t *testing.T) {
	api := &stubBedrock{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: "Sawubona"}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage:      &brtypes.TokenUsage{InputTokens: aws.Int32(5), OutputTokens: aws.Int32(2), TotalTokens: aws.Int32(7)},
	}}
	c, err := NewBedrockLLMClient(api, "anthropic.claude-3-haiku")
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), LLMRequest{
		System:      []string{"be brief"},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
		MaxTokens:   150,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sawubona", resp.Text)
	assert.Equal(t, int32(7), resp.Usage.TotalTokens)
	assert.Equal(t, "anthropic.claude-3-haiku", aws.ToString(api.input.ModelId))
	assert.Equal(t, int32(150), aws.ToInt32(api.input.InferenceConfig.MaxTokens))
	assert.Len(t, api.input.System, 1)
}

func TestBedrockLLMClient_Errors(t *testing.T) {
	_, err := NewBedrockLLMClient(&stubBedrock{}, "")
	assert.Error(t, err)

	c, err := NewBedrockLLMClient(&stubBedrock{err: errors.New("denied")}, "model")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}}})
	assert.Error(t, err)

	_, err = c.Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: "tool", Content: "hi"}}})
	assert.Error(t, err)
}
