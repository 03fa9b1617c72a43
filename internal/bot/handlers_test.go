package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marketerbot/marketerbot/internal/ai"
	"github.com/marketerbot/marketerbot/internal/db"
	"github.com/marketerbot/marketerbot/internal/fileproc"
)

type stubAPI struct {
	mu   sync.Mutex
	sent []string
}

func (s *stubAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (s *stubAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *stubAPI) GetFileDirectURL(string) (string, error) {
	return "", errors.New("not available in tests")
}

func (s *stubAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (s *stubAPI) StopReceivingUpdates() {}

func (s *stubAPI) lastMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1]
}

type fixedProvider struct {
	reply string
}

func (p *fixedProvider) Name() string { return "fixed" }
func (p *fixedProvider) GetText(context.Context, string, string) (string, error) {
	return p.reply, nil
}
func (p *fixedProvider) GetTextWithImages(context.Context, string, []string, string) (string, error) {
	return p.reply, nil
}
func (p *fixedProvider) AnalyzeDocument(context.Context, string, string) (string, error) {
	return p.reply, nil
}

func newTestBot(t *testing.T) (*Bot, *stubAPI, *db.Store) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "bot-test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))
	store := db.NewStore(gdb)

	storage, err := fileproc.NewStorage(filepath.Join(t.TempDir(), "uploads"), 1<<20)
	require.NoError(t, err)

	api := &stubAPI{}
	b := New(api, Deps{
		Store:    store,
		Facade:   ai.NewFacade(&fixedProvider{reply: "model answer"}, nil),
		Storage:  storage,
		Language: "ru",
	})
	return b, api, store
}

func textMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "tester", FirstName: "Test"},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
}

func commandMessage(userID int64, text string) *tgbotapi.Message {
	msg := textMessage(userID, text)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	return msg
}

func TestProjectCreationFlow(t *testing.T) {
	b, _, store := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, commandMessage(1, "/project"))
	b.handleMessage(ctx, textMessage(1, "Acme"))
	b.handleMessage(ctx, textMessage(1, "-"))

	user, err := store.GetOrCreateUser(1, "tester", "Test", "")
	require.NoError(t, err)
	projects, err := store.ListProjectsByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "Acme", projects[0].Name)
	require.Nil(t, projects[0].Description)

	require.Equal(t, StateMain, b.sessions.Get(1).State)
}

func TestProjectDescriptionStored(t *testing.T) {
	b, _, store := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, commandMessage(2, "/project"))
	b.handleMessage(ctx, textMessage(2, "Beta"))
	b.handleMessage(ctx, textMessage(2, "spring launch"))

	user, err := store.GetOrCreateUser(2, "tester", "Test", "")
	require.NoError(t, err)
	projects, err := store.ListProjectsByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.NotNil(t, projects[0].Description)
	require.Equal(t, "spring launch", *projects[0].Description)
}

func TestCommandInterruptsFlow(t *testing.T) {
	b, api, store := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, commandMessage(3, "/project"))
	require.Equal(t, StateWaitingProjectName, b.sessions.Get(3).State)

	b.handleMessage(ctx, commandMessage(3, "/help"))
	require.Equal(t, StateMain, b.sessions.Get(3).State)
	require.Contains(t, api.lastMessage(), "Available commands")

	// The aborted flow must not have produced a project.
	user, err := store.GetOrCreateUser(3, "tester", "Test", "")
	require.NoError(t, err)
	projects, err := store.ListProjectsByUser(user.ID)
	require.NoError(t, err)
	require.Empty(t, projects)
}

func TestFreeTextChatPersistsTranscript(t *testing.T) {
	b, api, store := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, textMessage(4, "how do I grow my channel?"))
	require.Equal(t, "model answer", api.lastMessage())

	user, err := store.GetOrCreateUser(4, "tester", "Test", "")
	require.NoError(t, err)
	conv, err := store.ActiveConversation(user.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, conv)

	messages, err := store.ListMessages(conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, db.SenderUser, messages[0].SenderType)
	require.Equal(t, db.SenderBot, messages[1].SenderType)
}

func TestLostContextResetsFlow(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	// Simulate a session that lost its flow data.
	session := b.sessions.Get(5)
	session.State = StateWaitingIdeaConstraints

	b.handleMessage(ctx, textMessage(5, "-"))
	require.Contains(t, api.lastMessage(), "lost the context")
	require.Equal(t, StateMain, b.sessions.Get(5).State)
}

func TestLostFileContextOnCallback(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	cq := &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    CallbackAnalyzeSummary,
		From:    &tgbotapi.User{ID: 6, UserName: "tester", FirstName: "Test"},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 6}},
	}
	b.handleCallback(ctx, cq)
	require.Contains(t, api.lastMessage(), "lost track of that file")
}

func TestMarketFlowAnalyzesOnIndustry(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, commandMessage(9, "/market"))
	require.Equal(t, StateWaitingMarketIndustry, b.sessions.Get(9).State)

	// The industry answer is the terminal step: analysis runs and the
	// session returns to main.
	b.handleMessage(ctx, textMessage(9, "fintech"))
	require.Equal(t, "model answer", api.lastMessage())
	require.Equal(t, StateMain, b.sessions.Get(9).State)
}

func TestDocumentQuestionAnalyzesStoredFile(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("quarterly numbers"), 0o644))

	session := b.sessions.Get(8)
	session.State = StateWaitingDocumentQuestion
	session.FilePath = path
	session.FileKind = fileproc.KindText

	b.handleMessage(ctx, textMessage(8, "what stands out?"))
	require.Equal(t, "model answer", api.lastMessage())
	require.Equal(t, StateMain, b.sessions.Get(8).State)
}

func TestSplitMessage(t *testing.T) {
	require.Equal(t, []string{"short"}, splitMessage("short", 10))

	long := "line one\nline two\nline three"
	chunks := splitMessage(long, 12)
	require.Greater(t, len(chunks), 1)
	var rejoined string
	for _, c := range chunks {
		require.LessOrEqual(t, len([]rune(c)), 12)
		rejoined += c
	}
	require.Equal(t, long, rejoined)
}

func TestUnknownCommand(t *testing.T) {
	b, api, _ := newTestBot(t)
	b.handleMessage(context.Background(), commandMessage(7, "/bogus"))
	require.Contains(t, api.lastMessage(), "Unknown command")
}
