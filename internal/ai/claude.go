package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicOption "github.com/anthropics/anthropic-sdk-go/option"
)

// Claude wraps the Anthropic SDK client.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaude creates a Claude client for the given model.
func NewClaude(apiKey, model string, maxTokens int) *Claude {
	return &Claude{
		client:    anthropic.NewClient(anthropicOption.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Name identifies the provider in logs and fallback messages.
func (c *Claude) Name() string {
	return "claude"
}

// GetText requests a plain text completion.
func (c *Claude) GetText(ctx context.Context, prompt, systemPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude request failed: %w", err)
	}
	return messageText(msg), nil
}

// GetTextWithImages requests a completion over a prompt plus one or more
// local image files. Images are sent as base64 blocks; files that are not
// images are rejected before any bytes go on the wire.
func (c *Claude) GetTextWithImages(ctx context.Context, prompt string, imagePaths []string, systemPrompt string) (string, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(imagePaths)+1)
	for _, path := range imagePaths {
		block, err := imageBlock(path)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude vision request failed: %w", err)
	}
	return messageText(msg), nil
}

// AnalyzeDocument asks the model to analyze extracted document text,
// optionally answering a specific question about it.
func (c *Claude) AnalyzeDocument(ctx context.Context, documentText, question string) (string, error) {
	return c.GetText(ctx, documentPrompt(documentText, question), "")
}

// GenerateProjectIdeas produces marketing project ideas for a field and
// set of goals; constraints may be empty.
func (c *Claude) GenerateProjectIdeas(ctx context.Context, field, goals, constraints string) (string, error) {
	return c.GetText(ctx, ProjectIdeasPrompt(field, goals, constraints), IdeaGeneratorPrompt)
}

// AnalyzeMarketTrends analyzes trends in an industry; question may be empty.
func (c *Claude) AnalyzeMarketTrends(ctx context.Context, industry, question string) (string, error) {
	return c.GetText(ctx, MarketTrendsPrompt(industry, question), MarketAnalystPrompt)
}

func documentPrompt(documentText, question string) string {
	prompt := "Here is a document to analyze:\n\n" + documentText + "\n\n"
	if question != "" {
		prompt += "Question: " + question
	} else {
		prompt += "Please analyze this document, highlight the main ideas and key points, and provide a short summary."
	}
	return prompt
}

// imageBlock builds a base64 image block for a local file, validating that
// the file is actually an image.
func imageBlock(path string) (anthropic.ContentBlockParamUnion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return anthropic.ContentBlockParamUnion{}, fmt.Errorf("failed to read image %s: %w", path, err)
	}

	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return anthropic.ContentBlockParamUnion{}, fmt.Errorf("file %s is not an image (%s)", path, mediaType)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	return anthropic.NewImageBlockBase64(mediaType, encoded), nil
}

// messageText concatenates the text blocks of a response.
func messageText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
