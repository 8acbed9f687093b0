package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/MrEthical07/authchain"
)

var errUsernameTaken = errors.New("username already taken")

type passwordHasher interface {
	Hash(password string) (string, error)
}

// userStore is the demo server's in-memory user directory.
type userStore struct {
	hasher passwordHasher

	mu         sync.RWMutex
	byID       map[string]*authchain.UserRecord
	byUsername map[string]string
}

func newUserStore(hasher passwordHasher) *userStore {
	return &userStore{
		hasher:     hasher,
		byID:       make(map[string]*authchain.UserRecord),
		byUsername: make(map[string]string),
	}
}

func (s *userStore) seed(users []seedUser) error {
	for _, u := range users {
		if _, err := s.create(u.ID, u.Username, u.Password, u.Roles, !u.Disabled); err != nil {
			return fmt.Errorf("seed user %q: %w", u.Username, err)
		}
	}
	return nil
}

// create hashes password and stores the user. An empty id gets a UUID.
func (s *userStore) create(id, username, password string, roles []string, active bool) (*authchain.UserRecord, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[username]; ok {
		return nil, errUsernameTaken
	}
	if _, ok := s.byID[id]; ok {
		return nil, fmt.Errorf("user id %q already exists", id)
	}
	rec := &authchain.UserRecord{
		ID:           id,
		Username:     username,
		PasswordHash: hash,
		Roles:        append([]string(nil), roles...),
		Active:       active,
	}
	s.byID[id] = rec
	s.byUsername[username] = id
	return copyRecord(rec), nil
}

func (s *userStore) FindByUsername(_ context.Context, username string) (*authchain.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[username]
	if !ok {
		return nil, authchain.ErrNoSuchUser
	}
	return copyRecord(s.byID[id]), nil
}

func (s *userStore) FindByID(_ context.Context, id string) (*authchain.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, authchain.ErrNoSuchUser
	}
	return copyRecord(rec), nil
}

func (s *userStore) RecordLoginIP(_ context.Context, userID, ip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.byID[userID]; ok {
		rec.LastLoginIP = ip
	}
	return nil
}

func copyRecord(rec *authchain.UserRecord) *authchain.UserRecord {
	cp := *rec
	cp.Roles = append([]string(nil), rec.Roles...)
	return &cp
}
