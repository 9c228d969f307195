package httpserver

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"trackjoi/internal/apperror"
	"trackjoi/internal/model"
)

// memStore implements every store interface the services need, in memory.
type memStore struct {
	mu         sync.Mutex
	users      map[string]*model.User
	activities map[int64]*model.Activity
	logs       map[logKey]*model.ActivityLog
	nextID     int64
	pingErr    error
}

type logKey struct {
	activityID int64
	date       string
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]*model.User{},
		activities: map[int64]*model.Activity{},
		logs:       map[logKey]*model.ActivityLog{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) Ping(ctx context.Context) error { return m.pingErr }

func (m *memStore) CreateUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return apperror.ErrConflict
	}
	u.ID = m.id()
	u.IsActive = true
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.Email] = &cp
	return nil
}

func (m *memStore) FindActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok || !u.IsActive {
		return nil, apperror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) TouchLastLogin(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			now := time.Now()
			u.LastLogin = &now
			return nil
		}
	}
	return apperror.ErrNotFound
}

func (m *memStore) ListActiveByUser(ctx context.Context, userID int64, weekStart, weekEnd time.Time) ([]model.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, to := weekStart.Format(model.DateLayout), weekEnd.Format(model.DateLayout)
	out := make([]model.Activity, 0)
	for _, a := range m.activities {
		if a.UserID != userID || !a.IsActive {
			continue
		}
		cp := *a
		for k, l := range m.logs {
			if k.activityID == a.ID && l.Status == model.StatusCompleted && k.date >= from && k.date <= to {
				cp.CompletedThisWeek++
			}
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) Create(ctx context.Context, userID int64, in model.ActivityInput) (*model.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	a := &model.Activity{
		ID:          m.id(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Reminder:    in.Reminder,
		IsActive:    true,
		Days:        sortedDays(in.Days),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.activities[a.ID] = a
	cp := *a
	return &cp, nil
}

func (m *memStore) Update(ctx context.Context, userID, activityID int64, in model.ActivityInput) (*model.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.activities[activityID]
	if !ok || a.UserID != userID {
		return nil, apperror.ErrNotFound
	}
	a.Name, a.Description, a.Reminder = in.Name, in.Description, in.Reminder
	a.Days = sortedDays(in.Days)
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (m *memStore) SoftDelete(ctx context.Context, userID, activityID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.activities[activityID]
	if !ok || a.UserID != userID {
		return apperror.ErrNotFound
	}
	a.IsActive = false
	return nil
}

func (m *memStore) Upsert(ctx context.Context, userID, activityID int64, in model.CompletionInput) (*model.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.activities[activityID]
	if !ok || a.UserID != userID {
		return nil, apperror.ErrNotFound
	}
	k := logKey{activityID: activityID, date: in.Date.Format(model.DateLayout)}
	l, ok := m.logs[k]
	if !ok {
		l = &model.ActivityLog{ID: m.id(), ActivityID: activityID, UserID: userID, CompletedDate: in.Date}
		m.logs[k] = l
	}
	l.Status, l.Notes, l.CreatedAt = in.Status, in.Notes, time.Now()
	cp := *l
	return &cp, nil
}

func (m *memStore) WeeklyCounts(ctx context.Context, userID int64, start, end time.Time) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, to := start.Format(model.DateLayout), end.Format(model.DateLayout)
	total, completed := 0, 0
	for _, a := range m.activities {
		if a.UserID != userID || !a.IsActive {
			continue
		}
		total++
		for k, l := range m.logs {
			if k.activityID == a.ID && l.Status == model.StatusCompleted && k.date >= from && k.date <= to {
				completed++
				break
			}
		}
	}
	return total, completed, nil
}

func (m *memStore) DailyCompletions(ctx context.Context, userID int64, start, end time.Time) ([]model.DailyStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, to := start.Format(model.DateLayout), end.Format(model.DateLayout)
	counts := map[string]int{}
	for k, l := range m.logs {
		a := m.activities[k.activityID]
		if a.UserID != userID || !a.IsActive || l.Status != model.StatusCompleted {
			continue
		}
		if k.date >= from && k.date <= to {
			counts[k.date]++
		}
	}
	out := make([]model.DailyStat, 0, len(counts))
	for d, n := range counts {
		out = append(out, model.DailyStat{CompletedDate: d, CompletedCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedDate < out[j].CompletedDate })
	return out, nil
}

func sortedDays(days []model.Weekday) []model.Weekday {
	out := append([]model.Weekday(nil), days...)
	model.SortWeekdays(out)
	return out
}

var errPingFailed = errors.New("connection refused")
