package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quillhq/expenseflow/internal/models"
)

// MemoryStore is an in-memory Store implementation. All data is lost on
// restart; it backs tests and local development.
type MemoryStore struct {
	mu sync.RWMutex

	users        map[int64]*models.User
	usersByEmail map[string]int64
	expenses     map[int64]*models.Expense
	settings     map[string]models.SystemSetting

	nextUserID    int64
	nextExpenseID int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[int64]*models.User),
		usersByEmail: make(map[string]int64),
		expenses:     make(map[int64]*models.Expense),
		settings:     make(map[string]models.SystemSetting),
	}
}

// CreateUser creates a new user, assigning its id.
func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[user.Email]; exists {
		return nil, ErrDuplicateEmail
	}

	s.nextUserID++
	u := *user
	u.ID = s.nextUserID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	s.users[u.ID] = &u
	s.usersByEmail[u.Email] = u.ID

	out := u
	return &out, nil
}

// GetUser retrieves a user by id.
func (s *MemoryStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

// GetUserByEmail retrieves a user by its unique email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

// ListUsers retrieves all users ordered by id.
func (s *MemoryStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out := *u
		users = append(users, &out)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// CreateExpense creates a new expense, assigning its id.
func (s *MemoryStore) CreateExpense(ctx context.Context, expense *models.Expense) (*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextExpenseID++
	e := *expense
	e.ID = s.nextExpenseID
	s.expenses[e.ID] = &e

	out := e
	return &out, nil
}

// GetExpense retrieves an expense by id.
func (s *MemoryStore) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *e
	return &out, nil
}

// ListExpenses retrieves expenses matching the filter, most recent first.
func (s *MemoryStore) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]*models.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if !filter.matches(e) {
			continue
		}
		out := *e
		expenses = append(expenses, &out)
	}

	sort.Slice(expenses, func(i, j int) bool {
		if !expenses[i].SubmissionDate.Equal(expenses[j].SubmissionDate) {
			return expenses[i].SubmissionDate.After(expenses[j].SubmissionDate)
		}
		return expenses[i].ID > expenses[j].ID
	})

	return expenses, nil
}

// UpdateExpense merges the given fields into an existing expense.
func (s *MemoryStore) UpdateExpense(ctx context.Context, id int64, upd models.ExpenseUpdate) (*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok {
		return nil, ErrNotFound
	}

	applyUpdate(e, upd)

	out := *e
	return &out, nil
}

// GetSetting retrieves a setting value by key.
func (s *MemoryStore) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	setting, ok := s.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return setting.Value, nil
}

// SetSetting upserts a setting.
func (s *MemoryStore) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = models.SystemSetting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
