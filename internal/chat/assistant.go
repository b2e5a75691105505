package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mulambwane/safari-forms/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultSystemPrompt = "You are a helpful assistant for Mulambwane Wildlife & Hunting Safaris in Waterpoort Louis Trichardt, Limpopo Province, South Africa. Answer questions about hunting safaris, wildlife conservation, game meat, lodge accommodations, and safari experiences. Be professional, knowledgeable, and maintain the warm, authentic South African hospitality tone of the brand. Keep responses concise and informative."

var chatTracer = otel.Tracer("safari.internal.chat")

// Reply sources.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Reply is the assistant's answer to one visitor message.
type Reply struct {
	Text   string
	Source string
}

// AssistantConfig tunes the completion request.
type AssistantConfig struct {
	SystemPrompt string
	MaxTokens    int32
	Temperature  float32
	Timeout      time.Duration
}

// Assistant answers website chat messages, through an LLM when one is
// configured and from canned replies otherwise.
type Assistant struct {
	client   LLMClient
	fallback *FallbackReplies
	cfg      AssistantConfig
	logger   *logging.Logger
}

// NewAssistant creates an Assistant. client may be nil.
func NewAssistant(client LLMClient, fallback *FallbackReplies, cfg AssistantConfig, logger *logging.Logger) *Assistant {
	if fallback == nil {
		fallback = NewFallbackReplies(Contact{})
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 150
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	return &Assistant{client: client, fallback: fallback, cfg: cfg, logger: logger}
}

// UsesLLM reports whether replies come from a model.
func (a *Assistant) UsesLLM() bool { return a.client != nil }

// Reply answers message. A blank message is ErrMessageRequired; provider
// failures wrap ErrCompletionFailed and empty completions wrap ErrUnexpectedResponse.
func (a *Assistant) Reply(ctx context.Context, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrMessageRequired
	}
	if a.client == nil {
		return Reply{Text: a.fallback.Reply(message), Source: SourceFallback}, nil
	}

	ctx, span := chatTracer.Start(ctx, "chat.Complete")
	defer span.End()

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	resp, err := a.client.Complete(ctx, LLMRequest{
		System:      []string{a.cfg.SystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: message}},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		a.logger.Error("chat: completion failed", "error", err)
		return Reply{}, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		span.SetStatus(codes.Error, "empty completion")
		a.logger.Error("chat: empty completion", "stop_reason", resp.StopReason)
		return Reply{}, fmt.Errorf("%w: empty completion (stop reason %q)", ErrUnexpectedResponse, resp.StopReason)
	}

	span.SetAttributes(
		attribute.Int("safari.chat.output_tokens", int(resp.Usage.OutputTokens)),
		attribute.String("safari.chat.stop_reason", resp.StopReason),
	)
	return Reply{Text: text, Source: SourceLLM}, nil
}
