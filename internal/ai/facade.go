package ai

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Provider is the common surface of the model backends.
type Provider interface {
	Name() string
	GetText(ctx context.Context, prompt, systemPrompt string) (string, error)
	GetTextWithImages(ctx context.Context, prompt string, imagePaths []string, systemPrompt string) (string, error)
	AnalyzeDocument(ctx context.Context, documentText, question string) (string, error)
}

// Facade routes requests to a primary provider and falls back to a
// secondary one on failure. Callers always get a displayable string:
// when both providers fail, the returned text carries the primary
// failure instead of an error.
type Facade struct {
	primary   Provider
	secondary Provider
}

// NewFacade wires the primary and secondary providers. secondary may be
// nil, in which case primary failures surface directly as text.
func NewFacade(primary, secondary Provider) *Facade {
	return &Facade{primary: primary, secondary: secondary}
}

// GetText asks the primary provider, falling back to the secondary.
// An empty systemPrompt is replaced with DefaultSystemPrompt.
func (f *Facade) GetText(ctx context.Context, prompt, systemPrompt string) string {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return f.run(func(p Provider) (string, error) {
		return p.GetText(ctx, prompt, systemPrompt)
	})
}

// GetTextWithImages asks the primary provider with images attached,
// falling back to the secondary.
func (f *Facade) GetTextWithImages(ctx context.Context, prompt string, imagePaths []string, systemPrompt string) string {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return f.run(func(p Provider) (string, error) {
		return p.GetTextWithImages(ctx, prompt, imagePaths, systemPrompt)
	})
}

// AnalyzeDocument analyzes extracted document text with fallback.
func (f *Facade) AnalyzeDocument(ctx context.Context, documentText, question string) string {
	return f.run(func(p Provider) (string, error) {
		return p.AnalyzeDocument(ctx, documentText, question)
	})
}

// GenerateProjectIdeas produces marketing project ideas with fallback.
func (f *Facade) GenerateProjectIdeas(ctx context.Context, field, goals, constraints string) string {
	return f.GetText(ctx, ProjectIdeasPrompt(field, goals, constraints), IdeaGeneratorPrompt)
}

// AnalyzeMarketTrends analyzes industry trends with fallback.
func (f *Facade) AnalyzeMarketTrends(ctx context.Context, industry, question string) string {
	return f.GetText(ctx, MarketTrendsPrompt(industry, question), MarketAnalystPrompt)
}

func (f *Facade) run(call func(Provider) (string, error)) string {
	text, primaryErr := call(f.primary)
	if primaryErr == nil {
		return text
	}
	logrus.WithError(primaryErr).Warnf("%s request failed, trying fallback", f.primary.Name())

	if f.secondary != nil {
		text, err := call(f.secondary)
		if err == nil {
			return text
		}
		logrus.WithError(err).Errorf("%s fallback also failed", f.secondary.Name())
	}

	return fmt.Sprintf("Failed to get a response from the AI services. Please try again later. (%v)", primaryErr)
}
