package vendors

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/attent-app/attent/log"
)

var openaiLogger = log.GetLogger("OpenAI")

// OpenAIConfig holds the settings for one OpenAI-compatible endpoint
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	WhisperModel string
}

// OpenAIClient wraps the OpenAI client
type OpenAIClient struct {
	client       *openai.Client
	model        string
	whisperModel string
}

// CompletionOptions holds options for completions
type CompletionOptions struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float32
	JSONMode     bool
}

// CompletionResponse represents a completion response
type CompletionResponse struct {
	Content      string
	FinishReason string
	Usage        struct {
		PromptTokens     int
		CompletionTokens int
		TotalTokens      int
	}
}

// NewOpenAIClient creates a client for the configured endpoint
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" && cfg.BaseURL != "https://api.openai.com/v1" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	whisperModel := cfg.WhisperModel
	if whisperModel == "" {
		whisperModel = "whisper-1"
	}

	openaiLogger.Info().Str("model", model).Str("baseURL", cfg.BaseURL).Msg("OpenAI initialized")

	return &OpenAIClient{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        model,
		whisperModel: whisperModel,
	}, nil
}

// Model returns the configured chat model name
func (o *OpenAIClient) Model() string {
	return o.model
}

// Complete performs a chat completion
func (o *OpenAIClient) Complete(ctx context.Context, opts CompletionOptions) (*CompletionResponse, error) {
	var messages []openai.ChatCompletionMessage

	if opts.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.SystemPrompt,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: opts.Prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	openaiLogger.Debug().
		Str("model", o.model).
		Int("maxTokens", opts.MaxTokens).
		Bool("jsonMode", opts.JSONMode).
		Msg("openai request")

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		openaiLogger.Error().Err(err).Msg("completion failed")
		return nil, err
	}

	if len(resp.Choices) == 0 {
		openaiLogger.Error().Msg("openai response has no choices")
		return &CompletionResponse{}, nil
	}

	content := resp.Choices[0].Message.Content
	finishReason := string(resp.Choices[0].FinishReason)

	openaiLogger.Debug().
		Str("finishReason", finishReason).
		Int("promptTokens", resp.Usage.PromptTokens).
		Int("completionTokens", resp.Usage.CompletionTokens).
		Msg("openai response")

	return &CompletionResponse{
		Content:      content,
		FinishReason: finishReason,
		Usage: struct {
			PromptTokens     int
			CompletionTokens int
			TotalTokens      int
		}{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Transcribe converts a voice recording to text via Whisper
func (o *OpenAIClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.whisperModel,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		openaiLogger.Error().Err(err).Str("file", filename).Msg("transcription failed")
		return "", err
	}

	openaiLogger.Debug().Str("file", filename).Int("chars", len(resp.Text)).Msg("transcription done")
	return resp.Text, nil
}
