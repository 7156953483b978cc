// Command emberdb starts the database's HTTP surface: it loads
// configuration from the environment, replays the day log to rebuild
// in-memory state, and serves /txn, /query, /entity-history and the
// auth endpoints until interrupted.
package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/emberdb/emberdb/internal/config"
	"github.com/emberdb/emberdb/internal/httpapi"
	"github.com/emberdb/emberdb/pkg/auth"
	"github.com/emberdb/emberdb/pkg/logio"
	"github.com/emberdb/emberdb/pkg/query"
	"github.com/emberdb/emberdb/pkg/register"
	"github.com/emberdb/emberdb/pkg/store"
	"github.com/emberdb/emberdb/pkg/txn"
	"github.com/emberdb/emberdb/pkg/values"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "emberdb: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	s := store.New()
	logDir := cfg.DataDirectory
	if err := recover_(s, logDir); err != nil {
		return fmt.Errorf("recovering from log: %w", err)
	}

	opts := logio.DefaultOptions()
	opts.DirPath = logDir
	writer, err := logio.NewWriter(opts)
	if err != nil {
		return fmt.Errorf("opening log writer: %w", err)
	}
	defer writer.Close()

	hasher := func(plaintext string, cost int) (string, error) {
		hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
		return string(hash), err
	}
	comparer := func(hash, plaintext string) error {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	}

	executor := txn.New(s, writer, hasher, cfg.BcryptCost)
	engine := query.New(s, logDir, comparer)

	adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	admin := auth.AdminInfo{ID: cfg.AdminID, PasswordHash: string(adminHash), Cost: cfg.BcryptCost}

	usersLog, err := auth.NewUsersLog(filepath.Join(logDir, "users.log"))
	if err != nil {
		return fmt.Errorf("opening users log: %w", err)
	}
	authSvc := auth.NewService(admin, usersLog, auth.NewSessionTable(), hasher, comparer, cfg.SessionTTL)

	server := httpapi.New(executor, engine, authSvc, cfg.SerializationMode)

	addr := os.Getenv("EMBERDB_LISTEN_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("emberdb listening on %s (data directory %s)", addr, logDir)
	return http.ListenAndServe(addr, server.Handler())
}

// recover_ rebuilds the live Store by folding every day-log record in
// chronological order: entity creation, entity eviction, and each id's
// insert/update/delete/evict. A record the store rejects (one appended
// for a write whose revalidation then failed) is logged and skipped.
// Named with a trailing underscore since "recover" shadows the builtin.
func recover_(s *store.Store, logDir string) error {
	files, err := logio.AllDayFiles(logDir)
	if err != nil {
		return err
	}
	count := 0
	for _, path := range files {
		r, err := logio.NewReader(path)
		if err != nil {
			return err
		}
		for {
			rec, err := r.ReadRecord()
			if err == io.EOF {
				break
			}
			if err != nil {
				r.Close()
				return err
			}
			if err := applyRecord(s, rec); err != nil {
				log.Printf("recover: skipping %s record for %s %s: %v", rec.Op, rec.Entity, rec.ID, err)
				continue
			}
			count++
		}
		r.Close()
	}
	if count > 0 {
		log.Printf("recovered %d records from %s", count, logDir)
	}
	return nil
}

func applyRecord(s *store.Store, rec logio.Record) error {
	s.Lock()
	defer s.Unlock()

	switch rec.Op {
	case logio.OpCreateEntity:
		uniqueKeys, encryptedKeys, schemaKeys := logio.DecodeEntityMeta(rec.State)
		return s.CreateEntity(rec.Entity, uniqueKeys, encryptedKeys, schemaKeys)
	case logio.OpEvict:
		if rec.ID == "" {
			return s.EvictEntity(rec.Entity)
		}
		id, err := values.ParseID(rec.ID)
		if err != nil {
			return err
		}
		return s.EvictRow(rec.Entity, id)
	case logio.OpDelete:
		id, err := values.ParseID(rec.ID)
		if err != nil {
			return err
		}
		return s.DeleteRow(rec.Entity, id)
	case logio.OpInsert:
		id, err := values.ParseID(rec.ID)
		if err != nil {
			return err
		}
		reg := registerFor(rec)
		return s.InsertRow(rec.Entity, id, reg, rec.State)
	case logio.OpUpdate:
		id, err := values.ParseID(rec.ID)
		if err != nil {
			return err
		}
		reg := registerFor(rec)
		return s.ReplaceRow(rec.Entity, id, reg, rec.State)
	default:
		return fmt.Errorf("recover: unknown log op %q", rec.Op)
	}
}

// registerFor rebuilds a Register from its already-computed hashes
// rather than recomputing them, since the log line is the record of
// what New actually produced at write time.
func registerFor(rec logio.Record) register.Register {
	return register.Register{
		PreviousHash: rec.PreviousHash,
		EntityName:   rec.Entity,
		EntityID:     rec.ID,
		Timestamp:    rec.Timestamp,
		StateAfter:   rec.State,
		ContentHash:  rec.ContentHash,
	}
}
