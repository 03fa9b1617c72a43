package transcribe

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/marketerbot/marketerbot/internal/fileproc"
)

// Whisper transcribes audio through the OpenAI transcription endpoint.
type Whisper struct {
	client   *openai.Client
	maxBytes int64
}

// NewWhisper creates a transcriber with a size ceiling matching the bot's
// file limit.
func NewWhisper(apiKey string, maxBytes int64) *Whisper {
	return &Whisper{client: openai.NewClient(apiKey), maxBytes: maxBytes}
}

// Transcribe converts an audio file to text. Non-mp3 inputs are converted
// first; the converted temp file is removed regardless of outcome.
// language may be a two-letter code or empty for auto-detection.
func (w *Whisper) Transcribe(ctx context.Context, path, language string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat audio file: %w", err)
	}
	if info.Size() > w.maxBytes {
		return "", fmt.Errorf("audio file too large: %d bytes", info.Size())
	}

	mp3Path, cleanup, err := fileproc.EnsureMP3(path)
	if err != nil {
		return "", err
	}
	defer cleanup()

	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: mp3Path,
	}
	if language != "" && language != "auto" {
		req.Language = language
	}

	resp, err := w.client.CreateTranscription(ctx, req)
	if err != nil {
		logrus.WithError(err).Warn("transcription request failed")
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return resp.Text, nil
}
