// Package repositorytest provides in-memory repositories for service and
// handler tests.
package repositorytest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/model"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/repository"
)

// Users is a map-backed repository.UserRepository.
type Users struct {
	mu    sync.Mutex
	users map[string]*model.User
	seq   int
}

var _ repository.UserRepository = (*Users)(nil)

func NewUsers() *Users {
	return &Users{users: map[string]*model.User{}}
}

// Put stores a copy of user as is, bypassing uniqueness checks.
func (s *Users) Put(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(user)
}

func (s *Users) put(user *model.User) {
	s.seq++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Unix(int64(s.seq), 0).UTC()
		user.UpdatedAt = user.CreatedAt
	}
	c := *user
	s.users[c.ID] = &c
}

// Len counts stored users of kind.
func (s *Users) Len(kind model.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.users {
		if u.Kind == kind {
			n++
		}
	}
	return n
}

func (s *Users) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Kind == user.Kind && strings.EqualFold(u.Email, user.Email) {
			return common.ErrDuplicateEmail
		}
	}
	s.put(user)
	return nil
}

func (s *Users) FindByEmail(_ context.Context, kind model.Kind, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Kind == kind && strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrUserNotFound
}

func (s *Users) FindByID(_ context.Context, kind model.Kind, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Kind != kind {
		return nil, common.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s *Users) FindPrincipal(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s *Users) MarkVerified(_ context.Context, kind model.Kind, id string) (*model.User, error) {
	return s.mutate(kind, id, func(u *model.User) { u.IsVerified = true })
}

func (s *Users) UpdatePassword(_ context.Context, kind model.Kind, id, passwordHash string) error {
	_, err := s.mutate(kind, id, func(u *model.User) { u.PasswordHash = passwordHash })
	return err
}

func (s *Users) UpdateProfile(_ context.Context, user *model.User) (*model.User, error) {
	return s.mutate(user.Kind, user.ID, func(u *model.User) {
		u.FirstName = user.FirstName
		u.MiddleName = user.MiddleName
		u.LastName = user.LastName
		u.Gender = user.Gender
		u.DOB = user.DOB
		u.PhoneNumber = user.PhoneNumber
		u.Address = user.Address
		u.CountryOfResidence = user.CountryOfResidence
		u.StateOfResidence = user.StateOfResidence
		u.Profile = user.Profile
		u.IsUpdated = true
	})
}

func (s *Users) mutate(kind model.Kind, id string, fn func(*model.User)) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Kind != kind {
		return nil, common.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	c := *u
	return &c, nil
}

func (s *Users) sorted(match func(*model.User) bool) []*model.User {
	out := []*model.User{}
	for _, u := range s.users {
		if match(u) {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Users) List(_ context.Context, q repository.ListQuery) (*model.UserPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.sorted(func(u *model.User) bool { return u.Kind == q.Kind && u.Role == q.Role })
	count := len(all)
	if q.Page == nil {
		return &model.UserPage{Users: all, Count: count, Pages: 1}, nil
	}

	size := q.PageSize
	if size <= 0 {
		size = 10
	}
	pages := (count + size - 1) / size
	if *q.Page < 1 || *q.Page > pages {
		return nil, common.ErrPageOutOfRange
	}
	start := (*q.Page - 1) * size
	end := min(start+size, count)
	return &model.UserPage{Users: all[start:end], Count: count, Pages: pages}, nil
}

func (s *Users) Search(_ context.Context, kind model.Kind, text string) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(text)
	return s.sorted(func(u *model.User) bool {
		if u.Kind != kind {
			return false
		}
		for _, f := range []string{u.FirstName, u.MiddleName, u.LastName, u.Email, u.Address, u.CountryOfResidence, u.StateOfResidence} {
			if strings.Contains(strings.ToLower(f), needle) {
				return true
			}
		}
		return false
	}), nil
}

// Contacts is a slice-backed repository.ContactRepository.
type Contacts struct {
	mu            sync.Mutex
	Feedback      []model.Feedback
	Messages      []model.ContactMessage
	Subscriptions []model.EmailSubscription
}

var _ repository.ContactRepository = (*Contacts)(nil)

func (c *Contacts) SaveFeedback(_ context.Context, f *model.Feedback) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.CreatedAt = time.Now().UTC()
	c.Feedback = append(c.Feedback, *f)
	return nil
}

func (c *Contacts) SaveContactMessage(_ context.Context, m *model.ContactMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m.CreatedAt = time.Now().UTC()
	c.Messages = append(c.Messages, *m)
	return nil
}

func (c *Contacts) SaveSubscription(_ context.Context, s *model.EmailSubscription) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.Subscriptions {
		if strings.EqualFold(existing.Email, s.Email) {
			return common.ErrDuplicateEmail
		}
	}
	s.CreatedAt = time.Now().UTC()
	c.Subscriptions = append(c.Subscriptions, *s)
	return nil
}
