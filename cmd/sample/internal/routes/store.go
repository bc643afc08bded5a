package routes

import (
	"slices"
	"strconv"
	"sync"
	"time"
)

// User is the core domain entity.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is an in-memory user store.
type Store struct {
	mu     sync.RWMutex
	users  map[string]*User
	nextID int
}

// NewStore returns a store seeded with users.
func NewStore(seed ...User) *Store {
	s := &Store{users: make(map[string]*User), nextID: 1}
	for _, u := range seed {
		s.Create(u.Name, u.Email, u.Role)
	}
	return s
}

// List returns users with the given role, or every user when role is empty,
// ordered by ID.
func (s *Store) List(role string) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b User) int {
		ai, _ := strconv.Atoi(a.ID)
		bi, _ := strconv.Atoi(b.ID)
		return ai - bi
	})
	return out
}

// Get returns a copy of the user with id.
func (s *Store) Get(id string) (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, false
	}
	cp := *u
	return &cp, true
}

// Create adds a user and returns a copy.
func (s *Store) Create(name, email, role string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if role == "" {
		role = "member"
	}
	u := &User{
		ID:        strconv.Itoa(s.nextID),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now(),
	}
	s.nextID++
	s.users[u.ID] = u
	cp := *u
	return &cp
}

// Delete removes the user with id.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false
	}
	delete(s.users, id)
	return true
}
