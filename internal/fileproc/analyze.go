package fileproc

import (
	"context"
	"fmt"

	"github.com/marketerbot/marketerbot/internal/ai"
)

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path, language string) (string, error)
}

// AnalyzeWithAI routes a processed file to the right model call and returns
// displayable text. question may be empty for a general analysis.
func AnalyzeWithAI(ctx context.Context, facade *ai.Facade, transcriber Transcriber, path, question, language string) string {
	result := Process(path)
	if !result.OK {
		return result.Message
	}

	switch result.Kind {
	case KindText, KindDocument:
		return facade.AnalyzeDocument(ctx, result.Text, question)
	case KindImage:
		prompt := "Analyze this image and describe what is in it."
		if question != "" {
			prompt = "Analyze this image. " + question
		}
		return facade.GetTextWithImages(ctx, prompt, []string{path}, "")
	case KindAudio:
		transcript, err := transcriber.Transcribe(ctx, path, language)
		if err != nil {
			return fmt.Sprintf("Could not transcribe the audio: %v", err)
		}
		doc := "Audio recording transcript:\n\n" + transcript
		// Without a question the transcript itself is the answer.
		if question == "" {
			return doc
		}
		return facade.AnalyzeDocument(ctx, doc, question)
	default:
		return "Unsupported file type."
	}
}
