package bot

import (
	"context"
	"fmt"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/marketerbot/marketerbot/internal/ai"
	"github.com/marketerbot/marketerbot/internal/db"
	"github.com/marketerbot/marketerbot/internal/fileproc"
)

const skipToken = "-"

const helpText = `Available commands:
/start - restart the bot
/help - this message
/project - create a new project
/projects - list your projects
/search - web research on a topic
/ideas - generate marketing project ideas
/market - analyze market trends
/metrika - website traffic reports

You can also just write me a message, or send a file (text, PDF, DOCX, image or audio) for analysis.`

// handleCommand processes a slash command. Commands interrupt whatever
// flow the user is in: the session resets before dispatch.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *db.User) {
	session := b.sessions.Reset(user.TelegramID)
	chatID := msg.Chat.ID

	switch msg.Command() {
	case CommandStart:
		b.reply(chatID, fmt.Sprintf("Hello, %s! I am a marketing assistant bot.\n\n%s", user.FirstName, helpText))
	case CommandHelp:
		b.reply(chatID, helpText)
	case CommandProject:
		session.State = StateWaitingProjectName
		b.reply(chatID, "What should the project be called?")
	case CommandProjects:
		b.listProjects(chatID, user)
	case CommandSearch:
		session.State = StateWaitingSearchQuery
		b.reply(chatID, "What should I research? Send me the query.")
	case CommandIdeas:
		session.State = StateWaitingIdeaField
		b.reply(chatID, "What area is the project in? (e.g. e-commerce, SaaS, local services)")
	case CommandMarket:
		session.State = StateWaitingMarketIndustry
		b.reply(chatID, "Which industry should I analyze?")
	case CommandMetrika:
		b.replyWithKeyboard(chatID, "Which report do you need?", metrikaKeyboard())
	default:
		b.reply(chatID, "Unknown command. Send /help for the list of commands.")
	}
}

// handleText routes free text through the conversation state machine.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message, user *db.User) {
	session := b.sessions.Get(user.TelegramID)
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch session.State {
	case StateWaitingProjectName:
		session.ProjectName = text
		session.State = StateWaitingProjectDescription
		b.reply(chatID, "Add a short description, or send \"-\" to skip.")

	case StateWaitingProjectDescription:
		if session.ProjectName == "" {
			b.sessions.Reset(user.TelegramID)
			b.reply(chatID, "I lost the context of this flow, let's start over with /project.")
			return
		}
		var description *string
		if text != skipToken {
			description = &text
		}
		project, err := b.store.CreateProject(user.ID, session.ProjectName, description)
		b.sessions.Reset(user.TelegramID)
		if err != nil {
			logrus.WithError(err).Error("failed to create project")
			b.reply(chatID, "Could not create the project, please try again.")
			return
		}
		b.reply(chatID, fmt.Sprintf("Project %q created.", project.Name))

	case StateWaitingSearchQuery:
		b.sessions.Reset(user.TelegramID)
		b.reply(chatID, "Searching, give me a moment...")
		result := b.research.SearchAndSummarize(ctx, b.facade, ai.ResearchAnalystPrompt, text)
		b.reply(chatID, result)

	case StateWaitingIdeaField:
		session.IdeaField = text
		session.State = StateWaitingIdeaGoals
		b.reply(chatID, "What are the goals of the project?")

	case StateWaitingIdeaGoals:
		session.IdeaGoals = text
		session.State = StateWaitingIdeaConstraints
		b.reply(chatID, "Any constraints (budget, timeline)? Send \"-\" to skip.")

	case StateWaitingIdeaConstraints:
		field, goals := session.IdeaField, session.IdeaGoals
		b.sessions.Reset(user.TelegramID)
		if field == "" || goals == "" {
			b.reply(chatID, "I lost the context of this flow, let's start over with /ideas.")
			return
		}
		constraints := ""
		if text != skipToken {
			constraints = text
		}
		b.reply(chatID, "Generating ideas...")
		b.reply(chatID, b.facade.GenerateProjectIdeas(ctx, field, goals, constraints))

	case StateWaitingMarketIndustry:
		b.sessions.Reset(user.TelegramID)
		b.reply(chatID, "Analyzing the market...")
		b.reply(chatID, b.facade.AnalyzeMarketTrends(ctx, text, ""))

	case StateWaitingDocumentQuestion:
		// A typed message doubles as a custom question about the file.
		b.analyzeStoredFile(ctx, chatID, user, text, "")

	case StateWaitingAudioLanguage:
		switch strings.ToLower(text) {
		case "ru", "en", "auto":
			b.analyzeStoredFile(ctx, chatID, user, "", strings.ToLower(text))
		default:
			b.reply(chatID, "Please pick the language with the buttons, or send \"ru\", \"en\" or \"auto\".")
		}

	default:
		b.chat(ctx, chatID, user, text)
	}
}

// chat handles a free-form message in the main state: the exchange is
// persisted into the active conversation and answered with recent history
// as context.
func (b *Bot) chat(ctx context.Context, chatID int64, user *db.User, text string) {
	conv, err := b.store.ActiveConversation(user.ID, nil)
	if err == nil && conv == nil {
		conv, err = b.store.CreateConversation(user.ID, nil)
	}
	if err != nil {
		logrus.WithError(err).Error("failed to resolve conversation")
		b.reply(chatID, "Something went wrong, please try again.")
		return
	}

	if _, err := b.store.AddMessage(conv.ID, db.SenderUser, text); err != nil {
		logrus.WithError(err).Warn("failed to record user message")
	}

	prompt := b.buildChatPrompt(conv.ID, text)
	answer := b.facade.GetText(ctx, prompt, ai.MarketingAssistantPrompt)

	if _, err := b.store.AddMessage(conv.ID, db.SenderBot, answer); err != nil {
		logrus.WithError(err).Warn("failed to record bot message")
	}
	b.reply(chatID, answer)
}

// buildChatPrompt prepends up to the last 10 transcript messages so the
// model sees the recent exchange.
func (b *Bot) buildChatPrompt(conversationID int64, text string) string {
	messages, err := b.store.ListMessages(conversationID)
	if err != nil || len(messages) <= 1 {
		return text
	}

	history := messages
	if len(history) > 11 {
		history = history[len(history)-11:]
	}
	// The newest entry is the message being answered.
	history = history[:len(history)-1]

	var sb strings.Builder
	sb.WriteString("Conversation so far:\n")
	for _, m := range history {
		role := "User"
		if m.SenderType == db.SenderBot {
			role = "Assistant"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", role, m.Content))
	}
	sb.WriteString("\nUser's new message: " + text)
	return sb.String()
}

func (b *Bot) listProjects(chatID int64, user *db.User) {
	projects, err := b.store.ListProjectsByUser(user.ID)
	if err != nil {
		logrus.WithError(err).Error("failed to list projects")
		b.reply(chatID, "Could not load your projects, please try again.")
		return
	}
	if len(projects) == 0 {
		b.reply(chatID, "You have no projects yet. Create one with /project.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your projects:\n\n")
	for i, p := range projects {
		sb.WriteString(fmt.Sprintf("%d. %s [%s]", i+1, p.Name, p.Status))
		if p.Description != nil && *p.Description != "" {
			sb.WriteString(" - " + *p.Description)
		}
		sb.WriteString("\n")
	}
	b.reply(chatID, sb.String())
}

// handleFile downloads an attachment, records it and offers analysis
// options. Files arrive in any state and do not disturb the current flow
// beyond storing the path.
func (b *Bot) handleFile(ctx context.Context, msg *tgbotapi.Message, user *db.User) {
	chatID := msg.Chat.ID
	fileID, name := attachmentInfo(msg)
	if fileID == "" {
		return
	}

	path, err := b.downloadFile(fileID, name)
	if err != nil {
		logrus.WithError(err).Error("file download failed")
		b.reply(chatID, "Could not download the file, please try again.")
		return
	}

	if !b.storage.CheckSize(path) {
		b.storage.Remove(path)
		b.reply(chatID, "The file is too large.")
		return
	}

	kind := fileproc.Classify(path)
	if kind == fileproc.KindUnknown {
		b.storage.Remove(path)
		b.reply(chatID, "Unsupported file type.")
		return
	}

	info := fileSize(path)
	if _, err := b.store.SaveDocument(nil, name, path, string(kind), info); err != nil {
		logrus.WithError(err).Warn("failed to record document")
	}

	session := b.sessions.Get(user.TelegramID)
	session.FilePath = path
	session.FileKind = kind

	if kind == fileproc.KindAudio {
		session.State = StateWaitingAudioLanguage
		b.replyWithKeyboard(chatID, "Got the audio. What language is it in?", audioLanguageKeyboard())
		return
	}
	session.State = StateWaitingDocumentQuestion
	b.replyWithKeyboard(chatID, "Got the file. Pick an analysis mode, or just type your question about it.", analyzeKeyboard())
}

// attachmentInfo picks the file id and a display name from whichever
// attachment slot is populated. For photos the largest size wins.
func attachmentInfo(msg *tgbotapi.Message) (string, string) {
	switch {
	case msg.Document != nil:
		return msg.Document.FileID, msg.Document.FileName
	case len(msg.Photo) > 0:
		largest := msg.Photo[len(msg.Photo)-1]
		return largest.FileID, "photo.jpg"
	case msg.Voice != nil:
		return msg.Voice.FileID, "voice.ogg"
	case msg.Audio != nil:
		name := msg.Audio.FileName
		if name == "" {
			name = "audio.mp3"
		}
		return msg.Audio.FileID, name
	}
	return "", ""
}

// handleCallback processes inline keyboard presses.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	b.ackCallback(cq.ID)
	if cq.From == nil || cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	user, err := b.store.GetOrCreateUser(cq.From.ID, cq.From.UserName, cq.From.FirstName, cq.From.LastName)
	if err != nil {
		logrus.WithError(err).Error("failed to resolve user")
		return
	}

	switch cq.Data {
	case CallbackMetrikaDaily:
		b.reply(chatID, "Building the daily report...")
		b.reply(chatID, b.reporter.Daily(ctx))
	case CallbackMetrikaWeekly:
		b.reply(chatID, "Building the weekly report...")
		b.reply(chatID, b.reporter.Weekly(ctx))
	case CallbackMetrikaMonthly:
		b.reply(chatID, "Building the monthly report...")
		b.reply(chatID, b.reporter.Monthly(ctx))

	case CallbackAudioLangRU, CallbackAudioLangEN, CallbackAudioLangAuto:
		b.analyzeStoredFile(ctx, chatID, user, "", callbackLanguage(cq.Data))

	case CallbackAnalyzeGeneral:
		b.analyzeStoredFile(ctx, chatID, user, "", "")
	case CallbackAnalyzeKeyPoints:
		b.analyzeStoredFile(ctx, chatID, user, "Highlight the key points of this material.", "")
	case CallbackAnalyzeSummary:
		b.analyzeStoredFile(ctx, chatID, user, "Give a short summary of this material.", "")

	default:
		logrus.Warnf("unknown callback data %q", cq.Data)
	}
}

func callbackLanguage(data string) string {
	switch data {
	case CallbackAudioLangRU:
		return "ru"
	case CallbackAudioLangEN:
		return "en"
	default:
		return "auto"
	}
}

// analyzeStoredFile runs AI analysis over the file remembered in the
// session. A pressed button can outlive the session (e.g. after a restart);
// in that case the user is asked to resend the file.
func (b *Bot) analyzeStoredFile(ctx context.Context, chatID int64, user *db.User, question, language string) {
	session := b.sessions.Get(user.TelegramID)
	path := session.FilePath
	b.sessions.Reset(user.TelegramID)
	if path == "" {
		b.reply(chatID, "I lost track of that file, please send it again.")
		return
	}

	if language == "" {
		language = b.language
	}

	b.reply(chatID, "Analyzing...")
	b.reply(chatID, fileproc.AnalyzeWithAI(ctx, b.facade, b.transcriber, path, question, language))
}

func metrikaKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Daily", CallbackMetrikaDaily),
			tgbotapi.NewInlineKeyboardButtonData("Weekly", CallbackMetrikaWeekly),
			tgbotapi.NewInlineKeyboardButtonData("Monthly", CallbackMetrikaMonthly),
		),
	)
}

func audioLanguageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Russian", CallbackAudioLangRU),
			tgbotapi.NewInlineKeyboardButtonData("English", CallbackAudioLangEN),
			tgbotapi.NewInlineKeyboardButtonData("Auto", CallbackAudioLangAuto),
		),
	)
}

func analyzeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("General analysis", CallbackAnalyzeGeneral),
			tgbotapi.NewInlineKeyboardButtonData("Key points", CallbackAnalyzeKeyPoints),
			tgbotapi.NewInlineKeyboardButtonData("Summary", CallbackAnalyzeSummary),
		),
	)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
