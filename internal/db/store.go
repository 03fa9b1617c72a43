package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// Store wraps all database operations used by the bot. Every method opens
// its own implicit session; there is no shared transaction state between
// handlers.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over an opened gorm connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying gorm handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// GetOrCreateUser returns the user with the given Telegram id, creating it
// on first contact. Profile fields are refreshed when they drift from what
// Telegram reports.
func (s *Store) GetOrCreateUser(telegramID int64, username, firstName, lastName string) (*User, error) {
	var user User
	err := s.db.Where("telegram_id = ?", telegramID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = User{
			TelegramID: telegramID,
			Username:   username,
			FirstName:  firstName,
			LastName:   lastName,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return &user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if username != "" && (user.Username != username || user.FirstName != firstName || user.LastName != lastName) {
		user.Username = username
		user.FirstName = firstName
		user.LastName = lastName
		if err := s.db.Save(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}
	return &user, nil
}

// ListUsers returns every known user.
func (s *Store) ListUsers() ([]User, error) {
	var users []User
	if err := s.db.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CreateProject creates a project for the user with status "active".
// The user must already exist.
func (s *Store) CreateProject(userID int64, name string, description *string) (*Project, error) {
	if err := s.requireRow(&User{}, userID, "user"); err != nil {
		return nil, err
	}
	project := Project{
		UserID:      userID,
		Name:        name,
		Description: description,
		Status:      ProjectStatusActive,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &project, nil
}

// ListProjectsByUser returns the user's projects, newest first.
func (s *Store) ListProjectsByUser(userID int64) ([]Project, error) {
	var projects []Project
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns one project by id.
func (s *Store) GetProject(projectID int64) (*Project, error) {
	var project Project
	err := s.db.Where("id = ?", projectID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &project, nil
}

// UpdateProjectStatus sets the project's status. Returns ErrNotFound when
// the project does not exist.
func (s *Store) UpdateProjectStatus(projectID int64, status string) error {
	res := s.db.Model(&Project{}).Where("id = ?", projectID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update project status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTask creates a task inside an existing project.
func (s *Store) CreateTask(projectID int64, title string, description *string, dueDate *time.Time, priority int) (*Task, error) {
	if err := s.requireRow(&Project{}, projectID, "project"); err != nil {
		return nil, err
	}
	if priority < TaskPriorityLow || priority > TaskPriorityHigh {
		priority = TaskPriorityLow
	}
	task := Task{
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		Status:      TaskStatusPending,
		DueDate:     dueDate,
		Priority:    priority,
	}
	if err := s.db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &task, nil
}

// ListTasksByProject returns the project's tasks, newest first.
func (s *Store) ListTasksByProject(projectID int64) ([]Task, error) {
	var tasks []Task
	err := s.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskStatus sets a task's status. Returns ErrNotFound when the task
// does not exist.
func (s *Store) UpdateTaskStatus(taskID int64, status string) error {
	res := s.db.Model(&Task{}).Where("id = ?", taskID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update task status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveDocument records an ingested file. projectID may be nil; when set,
// the project must exist.
func (s *Store) SaveDocument(projectID *int64, name, filePath, documentType string, fileSize int64) (*Document, error) {
	if projectID != nil {
		if err := s.requireRow(&Project{}, *projectID, "project"); err != nil {
			return nil, err
		}
	}
	doc := Document{
		ProjectID:    projectID,
		Name:         name,
		FilePath:     filePath,
		DocumentType: documentType,
		FileSize:     fileSize,
	}
	if err := s.db.Create(&doc).Error; err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	return &doc, nil
}

// ListDocumentsByProject returns the project's documents, newest first.
func (s *Store) ListDocumentsByProject(projectID int64) ([]Document, error) {
	var docs []Document
	err := s.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// CreateConversation starts a new active conversation for the user,
// optionally scoped to a project.
func (s *Store) CreateConversation(userID int64, projectID *int64) (*Conversation, error) {
	if err := s.requireRow(&User{}, userID, "user"); err != nil {
		return nil, err
	}
	if projectID != nil {
		if err := s.requireRow(&Project{}, *projectID, "project"); err != nil {
			return nil, err
		}
	}
	conv := Conversation{
		UserID:    userID,
		ProjectID: projectID,
		IsActive:  true,
	}
	if err := s.db.Create(&conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conv, nil
}

// ActiveConversation returns the newest active conversation for the user,
// or nil when there is none. The single-active-conversation invariant is
// advisory: a read-then-create race can produce two active rows, in which
// case the newest one wins.
func (s *Store) ActiveConversation(userID int64, projectID *int64) (*Conversation, error) {
	query := s.db.Where("user_id = ? AND is_active = ?", userID, true)
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}
	var conv Conversation
	err := query.Order("created_at DESC").First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &conv, nil
}

// AddMessage appends a message to a conversation transcript.
func (s *Store) AddMessage(conversationID int64, senderType, content string) (*Message, error) {
	if err := s.requireRow(&Conversation{}, conversationID, "conversation"); err != nil {
		return nil, err
	}
	msg := Message{
		ConversationID: conversationID,
		SenderType:     senderType,
		Content:        content,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to add message: %w", err)
	}
	return &msg, nil
}

// ListMessages returns the conversation transcript in creation order.
func (s *Store) ListMessages(conversationID int64) ([]Message, error) {
	var messages []Message
	err := s.db.Where("conversation_id = ?", conversationID).Order("created_at ASC").Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// requireRow verifies a parent row exists before inserting a child.
// Orphaned rows must never be created; this check happens here rather than
// relying on a database constraint failure path.
func (s *Store) requireRow(model interface{}, id int64, kind string) error {
	var count int64
	if err := s.db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check %s %d: %w", kind, id, err)
	}
	if count == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}
