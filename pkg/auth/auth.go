// Package auth is the Auth & Session component: an admin identity
// trusted at startup, a durable users log, and a process-wide session
// table. No HTTP concerns live here; httpapi calls straight into it.
package auth

import (
	"time"

	dberrors "github.com/emberdb/emberdb/pkg/errors"
	"github.com/google/uuid"
)

// Hasher matches bcrypt.GenerateFromPassword's shape.
type Hasher func(plaintext string, cost int) (string, error)

// Comparer matches bcrypt.CompareHashAndPassword's shape: nil means match.
type Comparer func(hash, plaintext string) error

// AdminInfo is the trusted admin identity configured at startup.
type AdminInfo struct {
	ID           string
	PasswordHash string
	Cost         int
}

// Service ties the admin identity, the users log, and the session
// table together behind the four Auth & Session operations.
type Service struct {
	admin      AdminInfo
	users      *UsersLog
	sessions   *SessionTable
	hash       Hasher
	compare    Comparer
	defaultTTL time.Duration
}

func NewService(admin AdminInfo, users *UsersLog, sessions *SessionTable, hash Hasher, compare Comparer, defaultTTL time.Duration) *Service {
	return &Service{admin: admin, users: users, sessions: sessions, hash: hash, compare: compare, defaultTTL: defaultTTL}
}

// DefaultTTL is the session lifetime configured at startup
// (EMBERDB_SESSION_TTL_SECONDS), used whenever a caller doesn't pin a
// different one to PutUserSession.
func (s *Service) DefaultTTL() time.Duration { return s.defaultTTL }

func (s *Service) validAdmin(adminID, adminPassword string) bool {
	if adminID != s.admin.ID {
		return false
	}
	return s.compare(s.admin.PasswordHash, adminPassword) == nil
}

// CreateUser verifies the admin credentials, hashes userPassword at the
// admin's configured cost, appends the new user to the users log, and
// returns its freshly minted id.
func (s *Service) CreateUser(adminID, adminPassword, userPassword string, roles []string) (uuid.UUID, error) {
	if !s.validAdmin(adminID, adminPassword) {
		return uuid.UUID{}, &dberrors.AuthBadRequest{}
	}

	hash, err := s.hash(userPassword, s.admin.Cost)
	if err != nil {
		return uuid.UUID{}, &dberrors.FailedToCreateUser{}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return uuid.UUID{}, &dberrors.FailedToCreateUser{}
	}

	if err := s.users.Append(User{ID: id, Hash: hash, Roles: roles}); err != nil {
		return uuid.UUID{}, &dberrors.FailedToCreateUser{}
	}
	return id, nil
}

// DeleteUsers verifies the admin credentials and removes every
// matching id from the users log.
func (s *Service) DeleteUsers(adminID, adminPassword string, ids []uuid.UUID) ([]uuid.UUID, error) {
	if !s.validAdmin(adminID, adminPassword) {
		return nil, &dberrors.AuthBadRequest{}
	}
	if err := s.users.Remove(ids); err != nil {
		return nil, &dberrors.FailedToDeleteUser{}
	}
	return ids, nil
}

// PutUserSession verifies id/password against the users log and, on
// success, issues a bearer token: a bcrypt hash of a freshly minted
// uuid, independent of the admin/user password cost, stored against
// the user's roles for session_ttl_seconds.
func (s *Service) PutUserSession(id uuid.UUID, password string, ttl time.Duration) (string, error) {
	u, err := s.users.Find(id)
	if err != nil {
		return "", &dberrors.AuthUnknown{}
	}
	if s.compare(u.Hash, password) != nil {
		return "", &dberrors.AuthUnknown{}
	}

	tokenSeed, err := uuid.NewV7()
	if err != nil {
		return "", &dberrors.AuthUnknown{}
	}
	token, err := s.hash(tokenSeed.String(), tokenHashCost)
	if err != nil {
		return "", &dberrors.AuthUnknown{}
	}

	s.sessions.Put(token, SessionInfo{Expiry: time.Now().UTC().Add(ttl), Roles: u.Roles})
	return token, nil
}

// tokenHashCost is the fixed, low bcrypt cost used only for hashing
// session tokens, independent of the configured admin/user password
// cost: the token itself is already high-entropy, the hash only keeps
// it from being stored as plaintext.
const tokenHashCost = 4

// Authorize accepts iff token is present in the session table,
// unexpired, and its stored roles are a superset of requiredRole (when
// non-empty).
func (s *Service) Authorize(token, requiredRole string) bool {
	roles, ok := s.sessions.Get(token)
	if !ok {
		return false
	}
	if requiredRole == "" {
		return true
	}
	for _, r := range roles {
		if r == requiredRole {
			return true
		}
	}
	return false
}
