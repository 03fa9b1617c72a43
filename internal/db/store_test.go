package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "marketerbot-test.db")
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(gdb))
	return NewStore(gdb)
}

func TestGetOrCreateUser(t *testing.T) {
	store := newTestStore(t)

	user, err := store.GetOrCreateUser(1001, "alice", "Alice", "Smith")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.Equal(t, int64(1001), user.TelegramID)

	// Second call with the same id must not create a new row.
	again, err := store.GetOrCreateUser(1001, "alice", "Alice", "Smith")
	require.NoError(t, err)
	require.Equal(t, user.ID, again.ID)

	users, err := store.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestGetOrCreateUserProfileDrift(t *testing.T) {
	store := newTestStore(t)

	user, err := store.GetOrCreateUser(1002, "bob", "Bob", "")
	require.NoError(t, err)

	updated, err := store.GetOrCreateUser(1002, "bobby", "Bobby", "Jones")
	require.NoError(t, err)
	require.Equal(t, user.ID, updated.ID)
	require.Equal(t, "bobby", updated.Username)
	require.Equal(t, "Jones", updated.LastName)
}

func TestCreateProject(t *testing.T) {
	store := newTestStore(t)
	user, err := store.GetOrCreateUser(1003, "carol", "Carol", "")
	require.NoError(t, err)

	desc := "launch plan"
	project, err := store.CreateProject(user.ID, "Acme", &desc)
	require.NoError(t, err)
	require.Equal(t, ProjectStatusActive, project.Status)

	// Nil description is preserved as NULL.
	nilDesc, err := store.CreateProject(user.ID, "Beta", nil)
	require.NoError(t, err)
	require.Nil(t, nilDesc.Description)

	projects, err := store.ListProjectsByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, projects, 2)
}

func TestCreateProjectRejectsMissingUser(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateProject(9999, "Orphan", nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProjectStatus(t *testing.T) {
	store := newTestStore(t)
	user, err := store.GetOrCreateUser(1004, "dave", "Dave", "")
	require.NoError(t, err)
	project, err := store.CreateProject(user.ID, "Acme", nil)
	require.NoError(t, err)

	require.NoError(t, store.UpdateProjectStatus(project.ID, "paused"))
	loaded, err := store.GetProject(project.ID)
	require.NoError(t, err)
	require.Equal(t, "paused", loaded.Status)

	require.ErrorIs(t, store.UpdateProjectStatus(9999, "paused"), ErrNotFound)
}

func TestTaskLifecycle(t *testing.T) {
	store := newTestStore(t)
	user, err := store.GetOrCreateUser(1005, "erin", "Erin", "")
	require.NoError(t, err)
	project, err := store.CreateProject(user.ID, "Acme", nil)
	require.NoError(t, err)

	task, err := store.CreateTask(project.ID, "Write brief", nil, nil, TaskPriorityHigh)
	require.NoError(t, err)
	require.Equal(t, TaskStatusPending, task.Status)

	require.NoError(t, store.UpdateTaskStatus(task.ID, TaskStatusDone))
	tasks, err := store.ListTasksByProject(project.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, TaskStatusDone, tasks[0].Status)

	_, err = store.CreateTask(9999, "orphan", nil, nil, TaskPriorityLow)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveDocument(t *testing.T) {
	store := newTestStore(t)
	user, err := store.GetOrCreateUser(1006, "frank", "Frank", "")
	require.NoError(t, err)
	project, err := store.CreateProject(user.ID, "Acme", nil)
	require.NoError(t, err)

	doc, err := store.SaveDocument(&project.ID, "brief.pdf", "/tmp/brief.pdf", "document", 2048)
	require.NoError(t, err)
	require.NotZero(t, doc.ID)

	// Documents may be saved without a project.
	free, err := store.SaveDocument(nil, "note.txt", "/tmp/note.txt", "text", 10)
	require.NoError(t, err)
	require.Nil(t, free.ProjectID)

	missing := int64(9999)
	_, err = store.SaveDocument(&missing, "x", "/tmp/x", "text", 1)
	require.ErrorIs(t, err, ErrNotFound)

	docs, err := store.ListDocumentsByProject(project.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestConversationTranscript(t *testing.T) {
	store := newTestStore(t)
	user, err := store.GetOrCreateUser(1007, "grace", "Grace", "")
	require.NoError(t, err)

	conv, err := store.ActiveConversation(user.ID, nil)
	require.NoError(t, err)
	require.Nil(t, conv)

	created, err := store.CreateConversation(user.ID, nil)
	require.NoError(t, err)

	conv, err = store.ActiveConversation(user.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, conv)
	require.Equal(t, created.ID, conv.ID)

	_, err = store.AddMessage(conv.ID, SenderUser, "hello")
	require.NoError(t, err)
	_, err = store.AddMessage(conv.ID, SenderBot, "hi there")
	require.NoError(t, err)

	messages, err := store.ListMessages(conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, SenderUser, messages[0].SenderType)
	require.Equal(t, SenderBot, messages[1].SenderType)

	_, err = store.AddMessage(9999, SenderUser, "orphan")
	require.ErrorIs(t, err, ErrNotFound)
}
