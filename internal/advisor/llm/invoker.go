// Package llm wraps the external model invocation. The rest of the
// system treats it as an opaque call: messages in, raw text or error out.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/dx-advisor/server/internal/advisor/model"
	errx "github.com/dx-advisor/server/internal/core/error"
	logx "github.com/dx-advisor/server/pkg/logger"
)

// Invoker issues one model call over the full conversation. This is the
// only suspension point in the system besides file extraction; callers
// must treat any failure as a model communication error, never as state.
type Invoker interface {
	Invoke(ctx context.Context, messages []*schema.Message, systemPrompt string) (string, error)
}

// GeminiConfig holds what the Gemini invoker needs beyond the model config.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   model.AdvisorModelConfig
}

// GeminiInvoker implements Invoker on a Gemini chat model forced into
// JSON output mode.
type GeminiInvoker struct {
	chatModel *gemini.ChatModel
	modelName string
}

func NewGeminiInvoker(ctx context.Context, cfg GeminiConfig) (*GeminiInvoker, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:           client,
		Model:            cfg.Model.Model,
		Temperature:      &cfg.Model.Temperature,
		MaxTokens:        &cfg.Model.MaxTokens,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating advisor model")
		return nil, fmt.Errorf("error creating advisor model: %w", err)
	}

	return &GeminiInvoker{chatModel: chatModel, modelName: cfg.Model.Model}, nil
}

func (g *GeminiInvoker) Invoke(ctx context.Context, messages []*schema.Message, systemPrompt string) (string, error) {
	in := make([]*schema.Message, 0, len(messages)+1)
	in = append(in, schema.SystemMessage(systemPrompt))
	in = append(in, messages...)

	out, err := g.chatModel.Generate(ctx, in)
	if err != nil {
		logx.Error().Err(err).Str("model", g.modelName).Msg("model invocation failed")
		return "", errx.Model(err)
	}
	if out == nil || out.Content == "" {
		return "", errx.Model(fmt.Errorf("empty completion from %s", g.modelName))
	}

	logUsage(g.modelName, out)
	return out.Content, nil
}

func logUsage(modelName string, out *schema.Message) {
	if out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	in, outCost, total := ComputeCost(usage, ResolvePricing(modelName))
	logx.Debug().
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Float64("input_cost_usd", in).
		Float64("output_cost_usd", outCost).
		Float64("total_cost_usd", total).
		Msg("model call usage")
}

var _ Invoker = (*GeminiInvoker)(nil)
