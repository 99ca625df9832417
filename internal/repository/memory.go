package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

// MemoryStores bundles the in-memory implementations used with STORAGE=memory and in tests
type MemoryStores struct {
	Users         *MemoryUserRepository
	Chats         *MemoryChatRepository
	Notifications *MemoryNotificationRepository
}

func NewMemoryStores() *MemoryStores {
	users := NewMemoryUserRepository()
	return &MemoryStores{
		Users:         users,
		Chats:         NewMemoryChatRepository(users),
		Notifications: NewMemoryNotificationRepository(users),
	}
}

// SetClock sets the time source used for created_at on every store
func (s *MemoryStores) SetClock(now func() time.Time) {
	s.Chats.now = now
	s.Notifications.now = now
}

// MemoryUserRepository implements domain.UserStore and domain.ProfileStore
type MemoryUserRepository struct {
	mu       sync.Mutex
	nextID   uint
	profiles map[uint]domain.HealthProfile
	telegram map[int64]uint
	onDelete []func(userID uint)
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		profiles: make(map[uint]domain.HealthProfile),
		telegram: make(map[int64]uint),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, profile domain.HealthProfile) (*domain.HealthProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.insertLocked(profile)
	return &p, nil
}

func (r *MemoryUserRepository) insertLocked(profile domain.HealthProfile) domain.HealthProfile {
	r.nextID++
	p := profile.Clone()
	p.UserID = r.nextID
	r.profiles[p.UserID] = p
	return p.Clone()
}

func (r *MemoryUserRepository) GetOrCreateByTelegramID(_ context.Context, telegramID int64, name string) (*domain.HealthProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.telegram[telegramID]; ok {
		p := r.profiles[id].Clone()
		return &p, nil
	}
	p := r.insertLocked(domain.HealthProfile{Name: name})
	r.telegram[telegramID] = p.UserID
	return &p, nil
}

func (r *MemoryUserRepository) Get(_ context.Context, userID uint) (*domain.HealthProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	out := p.Clone()
	return &out, nil
}

func (r *MemoryUserRepository) ApplyPartialUpdate(_ context.Context, userID uint, update domain.ProfileUpdate) (*domain.HealthProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	updated := update.Apply(p)
	r.profiles[userID] = updated
	out := updated.Clone()
	return &out, nil
}

// Delete drops the profile, its telegram binding and everything the
// dependent stores hold for the user
func (r *MemoryUserRepository) Delete(_ context.Context, userID uint) error {
	r.mu.Lock()
	if _, ok := r.profiles[userID]; !ok {
		r.mu.Unlock()
		return apperrors.ErrUserNotFound
	}
	delete(r.profiles, userID)
	for tgID, id := range r.telegram {
		if id == userID {
			delete(r.telegram, tgID)
		}
	}
	hooks := r.onDelete
	r.mu.Unlock()

	for _, purge := range hooks {
		purge(userID)
	}
	return nil
}

func (r *MemoryUserRepository) cascade(purge func(userID uint)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDelete = append(r.onDelete, purge)
}

func (r *MemoryUserRepository) exists(userID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.profiles[userID]
	return ok
}

// MemoryChatRepository implements domain.ChatStore
type MemoryChatRepository struct {
	mu    sync.Mutex
	users *MemoryUserRepository
	turns []domain.ChatTurn
	last  map[uint]time.Time
	now   func() time.Time
}

func NewMemoryChatRepository(users *MemoryUserRepository) *MemoryChatRepository {
	r := &MemoryChatRepository{users: users, last: make(map[uint]time.Time), now: time.Now}
	users.cascade(r.purge)
	return r
}

func (r *MemoryChatRepository) purge(userID uint) {
	_, _ = r.Delete(context.Background(), userID, domain.ChatDeleteFilter{})
	r.mu.Lock()
	delete(r.last, userID)
	r.mu.Unlock()
}

func (r *MemoryChatRepository) Append(_ context.Context, in domain.ChatTurnInput) (*domain.ChatTurn, error) {
	if !r.users.exists(in.UserID) {
		return nil, apperrors.ErrUserNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	createdAt := r.now().UTC()
	if last, ok := r.last[in.UserID]; ok && last.After(createdAt) {
		createdAt = last
	}
	r.last[in.UserID] = createdAt

	turn := domain.ChatTurn{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Message:   in.Message,
		Response:  in.Response,
		Category:  domain.OrDefault(&in.Category),
		Metadata:  copyMetadata(in.Metadata),
		CreatedAt: createdAt,
	}
	r.turns = append(r.turns, turn)
	return &turn, nil
}

func copyMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (r *MemoryChatRepository) matches(t domain.ChatTurn, userID uint, q domain.ChatQuery) bool {
	if t.UserID != userID {
		return false
	}
	if len(q.Categories) > 0 {
		found := false
		for _, c := range q.Categories {
			if t.Category == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Since != nil && t.CreatedAt.Before(*q.Since) {
		return false
	}
	if q.Before != nil && !t.CreatedAt.Before(*q.Before) {
		return false
	}
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(t.Message), term) && !strings.Contains(strings.ToLower(t.Response), term) {
			return false
		}
	}
	return true
}

func (r *MemoryChatRepository) Query(_ context.Context, userID uint, q domain.ChatQuery) (*domain.ChatPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// turns is append-ordered, which is also created_at order per user
	var matched []domain.ChatTurn
	for _, t := range r.turns {
		if r.matches(t, userID, q) {
			matched = append(matched, t)
		}
	}
	if q.Order == domain.NewestFirst {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	total := int64(len(matched))
	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	items := make([]domain.ChatTurn, 0, len(matched))
	for _, t := range matched {
		t.Metadata = copyMetadata(t.Metadata)
		items = append(items, t)
	}
	return &domain.ChatPage{Items: items, TotalCount: total}, nil
}

func (r *MemoryChatRepository) Get(_ context.Context, userID uint, id string) (*domain.ChatTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.turns {
		if t.ID == id && t.UserID == userID {
			t.Metadata = copyMetadata(t.Metadata)
			return &t, nil
		}
	}
	return nil, apperrors.ErrChatNotFound
}

func (r *MemoryChatRepository) Delete(_ context.Context, userID uint, filter domain.ChatDeleteFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.turns[:0]
	var deleted int64
	for _, t := range r.turns {
		match := t.UserID == userID &&
			(filter.Category == nil || t.Category == *filter.Category) &&
			(filter.Before == nil || t.CreatedAt.Before(*filter.Before))
		if match {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	r.turns = kept
	return deleted, nil
}

func (r *MemoryChatRepository) CountByCategory(_ context.Context, userID uint) (map[domain.Category]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[domain.Category]int64)
	for _, t := range r.turns {
		if t.UserID == userID {
			out[t.Category]++
		}
	}
	return out, nil
}

// MemoryNotificationRepository implements domain.NotificationStore
type MemoryNotificationRepository struct {
	mu    sync.Mutex
	users *MemoryUserRepository
	items map[string]domain.Notification
	now   func() time.Time
}

func NewMemoryNotificationRepository(users *MemoryUserRepository) *MemoryNotificationRepository {
	r := &MemoryNotificationRepository{users: users, items: make(map[string]domain.Notification), now: time.Now}
	users.cascade(r.purge)
	return r
}

func (r *MemoryNotificationRepository) purge(userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.items {
		if n.UserID == userID {
			delete(r.items, id)
		}
	}
}

func (r *MemoryNotificationRepository) Create(_ context.Context, in domain.NotificationInput) (*domain.Notification, error) {
	if !r.users.exists(in.UserID) {
		return nil, apperrors.ErrUserNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n := domain.Notification{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		Type:         in.Type,
		Title:        in.Title,
		Message:      in.Message,
		ScheduledFor: in.ScheduledFor.UTC(),
		CreatedAt:    r.now().UTC(),
	}
	r.items[n.ID] = n
	return &n, nil
}

func visible(n domain.Notification, now time.Time) bool {
	return !n.ScheduledFor.After(now)
}

func (r *MemoryNotificationRepository) QueryVisible(_ context.Context, userID uint, filter domain.NotificationFilter, now time.Time, page, limit int) (*domain.NotificationPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []domain.Notification
	for _, n := range r.items {
		if n.UserID != userID || !visible(n, now) {
			continue
		}
		if filter.Type != nil && n.Type != *filter.Type {
			continue
		}
		if filter.IsRead != nil && n.IsRead != *filter.IsRead {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ScheduledFor.Equal(matched[j].ScheduledFor) {
			return matched[i].ScheduledFor.After(matched[j].ScheduledFor)
		}
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	items := append([]domain.Notification{}, matched[start:end]...)
	return &domain.NotificationPage{Items: items, TotalCount: total, Page: page, Limit: limit}, nil
}

func (r *MemoryNotificationRepository) MarkRead(_ context.Context, id string, userID uint) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return nil, apperrors.ErrNotifNotFound
	}
	n.IsRead = true
	r.items[id] = n
	return &n, nil
}

func (r *MemoryNotificationRepository) MarkAllRead(_ context.Context, userID uint, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for id, n := range r.items {
		if n.UserID == userID && !n.IsRead && visible(n, now) {
			n.IsRead = true
			r.items[id] = n
			updated++
		}
	}
	return updated, nil
}

func (r *MemoryNotificationRepository) Delete(_ context.Context, id string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return apperrors.ErrNotifNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryNotificationRepository) CountByType(_ context.Context, userID uint) (map[domain.NotificationType]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[domain.NotificationType]int64)
	for _, n := range r.items {
		if n.UserID == userID {
			out[n.Type]++
		}
	}
	return out, nil
}

func (r *MemoryNotificationRepository) CountUnreadVisible(_ context.Context, userID uint, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead && visible(n, now) {
			count++
		}
	}
	return count, nil
}
