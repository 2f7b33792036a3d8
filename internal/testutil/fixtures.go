package testutil

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chorushub/chorushub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestContext returns a context with a deadline suitable for tests.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// MaintainerUser returns a session user with the maintainer role.
func MaintainerUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:       "maint-test",
		Name:     "Test Maintainer",
		Username: "maint",
		Role:     auth.RoleMaintainer,
	}
}

// DataDir builds the on-disk configuration layout for tests. Paths are
// relative to the data root (e.g., "seasons/2025A/users.json").
type DataDir struct {
	Root string
	t    *testing.T
}

// NewDataDir creates an empty temp data tree, removed when the test ends.
func NewDataDir(t *testing.T) *DataDir {
	t.Helper()
	return &DataDir{Root: t.TempDir(), t: t}
}

// Write places one file in the tree, creating parent directories.
func (d *DataDir) Write(rel, content string) *DataDir {
	d.t.Helper()
	path := filepath.Join(d.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		d.t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		d.t.Fatalf("write %s: %v", rel, err)
	}
	return d
}

// Season writes a season.json and users.json pair for one season.
func (d *DataDir) Season(seasonID, seasonJSON, usersJSON string) *DataDir {
	d.t.Helper()
	if seasonJSON != "" {
		d.Write("seasons/"+seasonID+"/season.json", seasonJSON)
	}
	d.Write("seasons/"+seasonID+"/users.json", usersJSON)
	return d
}

// SampleRoster is a minimal valid bare-array roster with one entry.
const SampleRoster = `[{"Name":"Alice","DiscordId":"11111111-1111-1111-1111-111111111111"}]`
