// internal/app/store/userdb/userdb.go

// Package userdb is the durable store of TrackedUser records. The whole
// database lives in memory behind a single lock and is persisted as one JSON
// file with an atomic write, which is plenty at the expected scale (hundreds
// to low thousands of users).
package userdb

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/chorushub/chorushub/internal/app/system/atomicfile"
	"github.com/chorushub/chorushub/internal/domain/models"
)

// CurrentSchemaVersion is bumped whenever the on-disk shape changes; Load
// migrates older shapes forward before decoding.
const CurrentSchemaVersion = 3

// DB holds all tracked users keyed by Discord ID.
type DB struct {
	mu sync.RWMutex

	version     int
	lastUpdated int64
	users       map[string]models.TrackedUser
}

// fileShape is the persisted representation.
type fileShape struct {
	Version     int                           `json:"version"`
	LastUpdated int64                         `json:"last_updated"`
	Users       map[string]models.TrackedUser `json:"users"`
}

// New returns an empty database at the current schema version.
func New() *DB {
	return &DB{
		version:     CurrentSchemaVersion,
		lastUpdated: time.Now().Unix(),
		users:       make(map[string]models.TrackedUser),
	}
}

// Load reads the database from path. A missing file yields a fresh database;
// an unreadable or unparsable file is an error. Older schema versions are
// migrated forward in memory and persisted at the new version on the next
// Save.
func Load(path string) (*DB, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user database %s: %w", path, err)
	}

	migrated, err := migrate(raw)
	if err != nil {
		return nil, fmt.Errorf("parse user database %s: %w", path, err)
	}

	var shape fileShape
	if err := json.Unmarshal(migrated, &shape); err != nil {
		return nil, fmt.Errorf("parse user database %s: %w", path, err)
	}
	if shape.Users == nil {
		shape.Users = make(map[string]models.TrackedUser)
	}

	return &DB{
		version:     shape.Version,
		lastUpdated: shape.LastUpdated,
		users:       shape.Users,
	}, nil
}

// Save writes the database to path via temp-file-and-rename. In-memory state
// stays valid even when persistence fails; callers log and retry later.
func (db *DB) Save(path string) error {
	raw, err := db.Export()
	if err != nil {
		return err
	}
	if err := atomicfile.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("save user database: %w", err)
	}
	return nil
}

// Export serializes the database as pretty JSON for admin download.
func (db *DB) Export() ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	raw, err := json.MarshalIndent(fileShape{
		Version:     db.version,
		LastUpdated: db.lastUpdated,
		Users:       db.users,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode user database: %w", err)
	}
	return raw, nil
}

// UpsertUser inserts or replaces the record keyed by its Discord ID.
func (db *DB) UpsertUser(user models.TrackedUser) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[user.DiscordID] = user
	db.lastUpdated = time.Now().Unix()
}

// FindByDiscordID returns the record for a Discord ID.
func (db *DB) FindByDiscordID(discordID string) (models.TrackedUser, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	u, ok := db.users[discordID]
	return u, ok
}

// FindByVerificationID scans all users for one holding the verification ID
// in any season. Linear in users x seasons-per-user; fine at this scale.
func (db *DB) FindByVerificationID(verificationID string) (models.TrackedUser, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, u := range db.users {
		if u.HasVerificationID(verificationID) {
			return u, true
		}
	}
	return models.TrackedUser{}, false
}

// IsVerified reports whether the Discord ID has a verified record.
func (db *DB) IsVerified(discordID string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	u, ok := db.users[discordID]
	return ok && u.Status == models.StatusVerified
}

// UsersBySeason returns every user verified for the season, sorted by
// Discord ID for stable output.
func (db *DB) UsersBySeason(seasonID string) []models.TrackedUser {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []models.TrackedUser
	for _, u := range db.users {
		if _, ok := u.VerificationIDs[seasonID]; ok {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DiscordID < out[j].DiscordID })
	return out
}

// AllUsers returns every record sorted by Discord ID.
func (db *DB) AllUsers() []models.TrackedUser {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]models.TrackedUser, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DiscordID < out[j].DiscordID })
	return out
}

// UserCount returns the number of tracked users.
func (db *DB) UserCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.users)
}

// Version returns the in-memory schema version (current after Load).
func (db *DB) Version() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.version
}
