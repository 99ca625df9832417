package state

import (
	"sync"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
)

// User states constants
const (
	None             = "none"
	ChoosingCategory = "choosing_category"
)

// StateManager keeps per-chat conversation state between updates
type StateManager interface {
	SetUserState(userID int64, state string)
	GetUserState(userID int64) string
	ClearUserState(userID int64)
	SetCategory(userID int64, category domain.Category)
	// GetCategory returns general when nothing was selected
	GetCategory(userID int64) domain.Category
}

// Manager manages user states in process memory
type Manager struct {
	userStates map[int64]string
	categories map[int64]domain.Category
	mu         sync.RWMutex
}

// NewManager creates a new state manager
func NewManager() *Manager {
	return &Manager{
		userStates: make(map[int64]string),
		categories: make(map[int64]domain.Category),
	}
}

// SetUserState sets the state for a user
func (m *Manager) SetUserState(userID int64, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userStates[userID] = state
}

// GetUserState gets the state for a user
func (m *Manager) GetUserState(userID int64) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, exists := m.userStates[userID]
	if !exists {
		return None
	}
	return state
}

// ClearUserState clears the state for a user. The selected category survives.
func (m *Manager) ClearUserState(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.userStates, userID)
}

func (m *Manager) SetCategory(userID int64, category domain.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[userID] = category
}

func (m *Manager) GetCategory(userID int64) domain.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	category, exists := m.categories[userID]
	if !exists || !category.Valid() {
		return domain.CategoryGeneral
	}
	return category
}
