package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/marketerbot/marketerbot/internal/ai"
	"github.com/marketerbot/marketerbot/internal/db"
	"github.com/marketerbot/marketerbot/internal/fileproc"
	"github.com/marketerbot/marketerbot/internal/metrika"
	"github.com/marketerbot/marketerbot/internal/research"
)

// Bot commands.
const (
	CommandStart    = "start"
	CommandHelp     = "help"
	CommandProject  = "project"
	CommandProjects = "projects"
	CommandSearch   = "search"
	CommandIdeas    = "ideas"
	CommandMarket   = "market"
	CommandMetrika  = "metrika"
)

// Callback data values for inline keyboards.
const (
	CallbackMetrikaDaily   = "metrika_daily"
	CallbackMetrikaWeekly  = "metrika_weekly"
	CallbackMetrikaMonthly = "metrika_monthly"

	CallbackAudioLangRU   = "audio_lang_ru"
	CallbackAudioLangEN   = "audio_lang_en"
	CallbackAudioLangAuto = "audio_lang_auto"

	CallbackAnalyzeGeneral   = "analyze_general"
	CallbackAnalyzeKeyPoints = "analyze_key_points"
	CallbackAnalyzeSummary   = "analyze_summary"
)

// maxMessageLen is Telegram's per-message text limit, minus headroom.
const maxMessageLen = 4000

// telegramAPI is the slice of the Telegram client the bot uses.
// *tgbotapi.BotAPI satisfies it; tests substitute a recorder.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Deps bundles everything the bot needs.
type Deps struct {
	Store       *db.Store
	Facade      *ai.Facade
	Research    *research.Client
	Reporter    *metrika.Reporter
	Storage     *fileproc.Storage
	Transcriber fileproc.Transcriber
	Language    string
}

// Bot is the Telegram front end.
type Bot struct {
	api         telegramAPI
	store       *db.Store
	facade      *ai.Facade
	research    *research.Client
	reporter    *metrika.Reporter
	storage     *fileproc.Storage
	transcriber fileproc.Transcriber
	sessions    *SessionStore
	language    string
	httpClient  *http.Client
}

// New wires the bot together.
func New(api telegramAPI, deps Deps) *Bot {
	return &Bot{
		api:         api,
		store:       deps.Store,
		facade:      deps.Facade,
		research:    deps.Research,
		reporter:    deps.Reporter,
		storage:     deps.Storage,
		transcriber: deps.Transcriber,
		sessions:    NewSessionStore(),
		language:    deps.Language,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Run polls for updates until the context is cancelled. Each update is
// handled in its own goroutine so one slow model call does not stall the
// rest of the chat.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	logrus.Info("bot update loop started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			logrus.Info("bot update loop stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("panic in update handler: %v", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	user, err := b.store.GetOrCreateUser(msg.From.ID, msg.From.UserName, msg.From.FirstName, msg.From.LastName)
	if err != nil {
		logrus.WithError(err).Error("failed to resolve user")
		b.reply(msg.Chat.ID, "Something went wrong, please try again.")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}
	if b.hasAttachment(msg) {
		b.handleFile(ctx, msg, user)
		return
	}
	if msg.Text != "" {
		b.handleText(ctx, msg, user)
	}
}

func (b *Bot) hasAttachment(msg *tgbotapi.Message) bool {
	return msg.Document != nil || len(msg.Photo) > 0 || msg.Voice != nil || msg.Audio != nil
}

// reply sends text to a chat, splitting messages that exceed Telegram's
// length limit.
func (b *Bot) reply(chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			logrus.WithError(err).Warn("failed to send message")
			return
		}
	}
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		logrus.WithError(err).Warn("failed to send keyboard message")
	}
}

func (b *Bot) ackCallback(id string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, "")); err != nil {
		logrus.WithError(err).Warn("failed to ack callback")
	}
}

// splitMessage breaks text into chunks of at most max runes, preferring
// newline boundaries.
func splitMessage(text string, max int) []string {
	runes := []rune(text)
	if len(runes) <= max {
		return []string{text}
	}

	var chunks []string
	for len(runes) > max {
		cut := max
		for i := max - 1; i > max/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// downloadFile fetches a Telegram file by id into the upload directory and
// returns the stored path.
func (b *Bot) downloadFile(fileID, name string) (string, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file url: %w", err)
	}

	resp, err := b.httpClient.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read file body: %w", err)
	}
	return b.storage.Save(data, name)
}
