package db

import (
	"time"

	"gorm.io/gorm"
)

// User is a Telegram user known to the bot. Created on first contact.
type User struct {
	ID         int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	TelegramID int64     `gorm:"uniqueIndex;column:telegram_id;not null" json:"telegram_id"`
	Username   string    `gorm:"column:username;type:varchar(50)" json:"username"`
	FirstName  string    `gorm:"column:first_name;type:varchar(50)" json:"first_name"`
	LastName   string    `gorm:"column:last_name;type:varchar(50)" json:"last_name"`
	IsAdmin    bool      `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	LastActive time.Time `gorm:"column:last_active;autoUpdateTime" json:"last_active"`

	// Relations
	Projects      []Project      `gorm:"foreignKey:UserID" json:"projects,omitempty"`
	Conversations []Conversation `gorm:"foreignKey:UserID" json:"conversations,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// ProjectStatusActive is the status assigned to newly created projects.
const ProjectStatusActive = "active"

// Project belongs to exactly one user. Projects are never hard-deleted;
// lifecycle is expressed through the free-form status field.
type Project struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID               int64     `gorm:"column:user_id;not null;index:idx_projects_user_id" json:"user_id"`
	Name                 string    `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Description          *string   `gorm:"column:description;type:text" json:"description"`
	Status               string    `gorm:"column:status;type:varchar(50);not null;default:'active'" json:"status"`
	CompletionPercentage float64   `gorm:"column:completion_percentage;not null;default:0" json:"completion_percentage"`
	Metadata             *string   `gorm:"column:metadata;type:text" json:"metadata"` // JSON blob
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relations
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Tasks     []Task     `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
	Documents []Document `gorm:"foreignKey:ProjectID" json:"documents,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}

// Task statuses
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

// Task priorities
const (
	TaskPriorityLow    = 1
	TaskPriorityMedium = 2
	TaskPriorityHigh   = 3
)

// Task is a unit of work inside a project. Tasks are managed through the
// store API and are not exposed on the bot command surface.
type Task struct {
	ID          int64      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	ProjectID   int64      `gorm:"column:project_id;not null;index:idx_tasks_project_id" json:"project_id"`
	Title       string     `gorm:"column:title;type:varchar(100);not null" json:"title"`
	Description *string    `gorm:"column:description;type:text" json:"description"`
	Status      string     `gorm:"column:status;type:varchar(50);not null;default:'pending'" json:"status"`
	DueDate     *time.Time `gorm:"column:due_date" json:"due_date"`
	Priority    int        `gorm:"column:priority;not null;default:1" json:"priority"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	// Relations
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

// Document records an ingested file. ProjectID is optional: files uploaded
// outside a project context are still tracked.
type Document struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	ProjectID      *int64    `gorm:"column:project_id;index:idx_documents_project_id" json:"project_id"`
	Name           string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	FilePath       string    `gorm:"column:file_path;type:varchar(500);not null" json:"file_path"`
	DocumentType   string    `gorm:"column:document_type;type:varchar(50)" json:"document_type"`
	ContentSummary *string   `gorm:"column:content_summary;type:text" json:"content_summary"`
	FileSize       int64     `gorm:"column:file_size" json:"file_size"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relations
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (Document) TableName() string {
	return "documents"
}

// Conversation groups the messages exchanged between one user and the bot,
// optionally scoped to a project. At most one conversation should be active
// per (user, project) pair; this is enforced by query convention only.
type Conversation struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	UserID    int64     `gorm:"column:user_id;not null;index:idx_conversations_user_id" json:"user_id"`
	ProjectID *int64    `gorm:"column:project_id;index:idx_conversations_project_id" json:"project_id"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message sender roles
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Message is one entry in a conversation transcript. Append-only; ordering
// by creation time defines the transcript.
type Message struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	ConversationID int64     `gorm:"column:conversation_id;not null;index:idx_messages_conversation_id" json:"conversation_id"`
	SenderType     string    `gorm:"column:sender_type;type:varchar(20);not null" json:"sender_type"`
	Content        string    `gorm:"column:content;type:text;not null" json:"content"`
	Metadata       *string   `gorm:"column:metadata;type:text" json:"metadata"` // JSON blob
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relations
	Conversation *Conversation `gorm:"foreignKey:ConversationID" json:"conversation,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

// AutoMigrate creates or updates all bot tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Project{},
		&Task{},
		&Document{},
		&Conversation{},
		&Message{},
	)
}
