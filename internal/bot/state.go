package bot

import (
	"sync"

	"github.com/marketerbot/marketerbot/internal/fileproc"
)

// State is the per-user conversation state.
type State string

const (
	StateMain                      State = "main"
	StateWaitingProjectName        State = "waiting_project_name"
	StateWaitingProjectDescription State = "waiting_project_description"
	StateWaitingSearchQuery        State = "waiting_search_query"
	StateWaitingIdeaField          State = "waiting_idea_field"
	StateWaitingIdeaGoals          State = "waiting_idea_goals"
	StateWaitingIdeaConstraints    State = "waiting_idea_constraints"
	StateWaitingMarketIndustry     State = "waiting_market_industry"
	StateWaitingDocumentQuestion   State = "waiting_document_question"
	StateWaitingAudioLanguage      State = "waiting_audio_language"
)

// Session carries a user's state plus the intermediate answers of
// multi-step flows. Fields outside the current flow are meaningless.
type Session struct {
	State State

	ProjectName string

	IdeaField string
	IdeaGoals string

	FilePath string
	FileKind fileproc.Kind
}

// SessionStore holds one session per Telegram user.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[int64]*Session)}
}

// Get returns the user's session, creating one in StateMain on first use.
func (s *SessionStore) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		session = &Session{State: StateMain}
		s.sessions[userID] = session
	}
	return session
}

// Reset clears the user's session back to StateMain, dropping all
// intermediate flow data.
func (s *SessionStore) Reset(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := &Session{State: StateMain}
	s.sessions[userID] = session
	return session
}
