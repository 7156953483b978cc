// Package config loads the six environment knobs the server needs at
// startup. The teacher's own engine takes constructor arguments and
// has no config surface of its own; no config library is grounded
// anywhere in the retrieved pack for a single-process embedded engine
// like this one, so this is a deliberate, documented standard-library
// reading of os.Getenv (see DESIGN.md).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// SerializationMode selects the response encoding.
type SerializationMode string

const (
	Structured SerializationMode = "structured"
	JSON       SerializationMode = "json"
)

// Config is every environment knob spec.md §6 enumerates.
type Config struct {
	AdminID           string
	AdminPassword     string
	BcryptCost        int
	SessionTTL        time.Duration
	DataDirectory     string
	SerializationMode SerializationMode
}

const (
	defaultBcryptCost    = 10
	defaultSessionTTLSec = 3600
	defaultDataDirectory = "data"
)

// Load reads EMBERDB_ADMIN_ID, EMBERDB_ADMIN_PASSWORD,
// EMBERDB_BCRYPT_COST, EMBERDB_SESSION_TTL_SECONDS,
// EMBERDB_DATA_DIRECTORY, and EMBERDB_SERIALIZATION_MODE, applying
// defaults for everything but the admin identity.
func Load() (Config, error) {
	adminID := os.Getenv("EMBERDB_ADMIN_ID")
	if adminID == "" {
		return Config{}, fmt.Errorf("config: EMBERDB_ADMIN_ID is required")
	}
	adminPassword := os.Getenv("EMBERDB_ADMIN_PASSWORD")
	if adminPassword == "" {
		return Config{}, fmt.Errorf("config: EMBERDB_ADMIN_PASSWORD is required")
	}

	cost := defaultBcryptCost
	if raw := os.Getenv("EMBERDB_BCRYPT_COST"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid EMBERDB_BCRYPT_COST %q: %w", raw, err)
		}
		cost = n
	}

	ttlSec := defaultSessionTTLSec
	if raw := os.Getenv("EMBERDB_SESSION_TTL_SECONDS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid EMBERDB_SESSION_TTL_SECONDS %q: %w", raw, err)
		}
		ttlSec = n
	}

	dataDir := os.Getenv("EMBERDB_DATA_DIRECTORY")
	if dataDir == "" {
		dataDir = defaultDataDirectory
	}

	mode := SerializationMode(os.Getenv("EMBERDB_SERIALIZATION_MODE"))
	switch mode {
	case "":
		mode = Structured
	case Structured, JSON:
	default:
		return Config{}, fmt.Errorf("config: unknown EMBERDB_SERIALIZATION_MODE %q", mode)
	}

	return Config{
		AdminID:           adminID,
		AdminPassword:     adminPassword,
		BcryptCost:        cost,
		SessionTTL:        time.Duration(ttlSec) * time.Second,
		DataDirectory:     dataDir,
		SerializationMode: mode,
	}, nil
}
