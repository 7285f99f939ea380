package memory

import (
	"context"
	"sync"
)

// Directory is a static user/subject registry (useful for tests/demos); swap
// it for the platform's user store in production.
type Directory struct {
	mu       sync.RWMutex
	users    map[string]struct{}
	subjects map[string]struct{}
}

func NewDirectory(users, subjects []string) *Directory {
	d := &Directory{
		users:    make(map[string]struct{}, len(users)),
		subjects: make(map[string]struct{}, len(subjects)),
	}
	for _, u := range users {
		d.users[u] = struct{}{}
	}
	for _, s := range subjects {
		d.subjects[s] = struct{}{}
	}
	return d
}

func (d *Directory) AddUser(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[userID] = struct{}{}
}

func (d *Directory) AddSubject(subjectID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subjects[subjectID] = struct{}{}
}

func (d *Directory) UserExists(_ context.Context, userID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[userID]
	return ok, nil
}

func (d *Directory) SubjectExists(_ context.Context, subjectID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.subjects[subjectID]
	return ok, nil
}
