package auth

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// User is one row of the users log: an id, its password hash, and the
// roles it was created with.
type User struct {
	ID    uuid.UUID
	Hash  string
	Roles []string
}

func (u User) encode() string {
	return strings.Join([]string{u.ID.String(), u.Hash, strings.Join(u.Roles, ",")}, "\t")
}

func decodeUser(line string) (User, error) {
	cols := strings.SplitN(line, "\t", 3)
	if len(cols) != 3 {
		return User{}, fmt.Errorf("auth: malformed users log line")
	}
	id, err := uuid.Parse(cols[0])
	if err != nil {
		return User{}, fmt.Errorf("auth: bad user id %q: %w", cols[0], err)
	}
	var roles []string
	if cols[2] != "" {
		roles = strings.Split(cols[2], ",")
	}
	return User{ID: id, Hash: cols[1], Roles: roles}, nil
}

// UsersLog is a durable, append-mostly list of created users: appends
// are a single O_APPEND write, deletion rewrites the whole file without
// the removed ids (there are few enough users, and deletions rare
// enough, that this needs no index).
type UsersLog struct {
	mu   sync.Mutex
	path string
}

func NewUsersLog(path string) (*UsersLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("auth: creating users log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("auth: opening users log: %w", err)
	}
	f.Close()
	return &UsersLog{path: path}, nil
}

func (l *UsersLog) Append(u User) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(u.encode() + "\n"); err != nil {
		return err
	}
	return f.Sync()
}

func (l *UsersLog) all() ([]User, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var users []User
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		u, err := decodeUser(line)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, sc.Err()
}

func (l *UsersLog) Find(id uuid.UUID) (User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	users, err := l.all()
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("auth: user %s not found", id)
}

// Remove rewrites the users log without the given ids.
func (l *UsersLog) Remove(ids []uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	doomed := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}

	users, err := l.all()
	if err != nil {
		return err
	}

	tmp := l.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	for _, u := range users {
		if doomed[u.ID] {
			continue
		}
		if _, err := f.WriteString(u.encode() + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}
