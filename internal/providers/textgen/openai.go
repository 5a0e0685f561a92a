package textgen

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"contentgen/internal/domain"
	"contentgen/internal/infra"
)

// OpenAIOptions configures the OpenAI chat completion generator.
type OpenAIOptions struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxRetries     int
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// OpenAI implements Generator with the chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
	logger *infra.Logger
}

// NewOpenAI constructs an OpenAI generator. A request without a model uses
// the configured default.
func NewOpenAI(opts OpenAIOptions) *OpenAI {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(opts.APIKey)),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(max(opts.MaxRetries, 0)),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}

	return &OpenAI{
		client: openai.NewClient(reqOpts...),
		model:  model,
		logger: logger,
	}
}

// Generate sends one chat completion and returns the first choice.
func (g *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	const op = "textgen: chat completion"
	if strings.TrimSpace(req.User) == "" {
		return "", domain.NewValidationError(op, "user message is required")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = g.model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if sys := strings.TrimSpace(req.System); sys != "" {
		messages = append(messages, openai.SystemMessage(sys))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	started := time.Now()
	completion, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &domain.JobError{Kind: domain.ErrGeneration, Op: op, Err: err}
	}
	if len(completion.Choices) == 0 {
		return "", &domain.JobError{Kind: domain.ErrProtocol, Op: op, Detail: "no choices in response"}
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", &domain.JobError{Kind: domain.ErrProtocol, Op: op, Detail: "empty completion"}
	}

	g.logger.Debug().
		Str("model", model).
		Int("max_tokens", req.MaxTokens).
		Int("chars", len(content)).
		Dur("elapsed", time.Since(started)).
		Msg("textgen: completion received")
	return content, nil
}
