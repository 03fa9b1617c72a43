package ai

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"
)

// Gemini wraps the Google genai SDK client.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// NewGemini creates a Gemini client for the given model.
func NewGemini(ctx context.Context, apiKey, model string, maxTokens int) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, maxTokens: int32(maxTokens)}, nil
}

// Name identifies the provider in logs and fallback messages.
func (g *Gemini) Name() string {
	return "gemini"
}

// GetText requests a plain text completion.
func (g *Gemini) GetText(ctx context.Context, prompt, systemPrompt string) (string, error) {
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(prompt)},
	}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.generateConfig(systemPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return resp.Text(), nil
}

// GetTextWithImages requests a completion over a prompt plus one or more
// local image files, passed as inline data parts.
func (g *Gemini) GetTextWithImages(ctx context.Context, prompt string, imagePaths []string, systemPrompt string) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, path := range imagePaths {
		part, err := imagePart(path)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.generateConfig(systemPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini vision request failed: %w", err)
	}
	return resp.Text(), nil
}

// AnalyzeDocument asks the model to analyze extracted document text,
// optionally answering a specific question about it.
func (g *Gemini) AnalyzeDocument(ctx context.Context, documentText, question string) (string, error) {
	return g.GetText(ctx, documentPrompt(documentText, question), "")
}

// AnalyzeImage describes or answers a question about a single image.
func (g *Gemini) AnalyzeImage(ctx context.Context, imagePath, question string) (string, error) {
	prompt := "Analyze this image and describe what is in it."
	if question != "" {
		prompt = "Analyze this image. " + question
	}
	return g.GetTextWithImages(ctx, prompt, []string{imagePath}, "")
}

// GenerateMarketingStrategy produces a full marketing strategy for a
// business; budget may be empty.
func (g *Gemini) GenerateMarketingStrategy(ctx context.Context, businessType, targetAudience, goals, budget string) (string, error) {
	return g.GetText(ctx, MarketingStrategyPrompt(businessType, targetAudience, goals, budget), StrategistPrompt)
}

// AnalyzeCompetitor analyzes a competitor company within an industry.
func (g *Gemini) AnalyzeCompetitor(ctx context.Context, competitorName, industry string) (string, error) {
	return g.GetText(ctx, CompetitorPrompt(competitorName, industry), CompetitorAnalystPrompt)
}

func (g *Gemini) generateConfig(systemPrompt string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{MaxOutputTokens: g.maxTokens}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(systemPrompt)},
		}
	}
	return config
}

// imagePart builds an inline-data part for a local image file.
func imagePart(path string) (*genai.Part, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return &genai.Part{
		InlineData: &genai.Blob{MIMEType: mimeType, Data: data},
	}, nil
}
