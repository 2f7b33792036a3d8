package health

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/chorushub/chorushub/internal/app/store/configstore"
	"github.com/chorushub/chorushub/internal/app/store/userdb"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Config *configstore.Store
	Users  *userdb.DB
	Log    *zap.Logger
}

// NewHandler constructs a health Handler over the live stores.
func NewHandler(cfg *configstore.Store, users *userdb.DB, logger *zap.Logger) *Handler {
	return &Handler{
		Config: cfg,
		Users:  users,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status  string `json:"status"`
	DataDir string `json:"data_dir"`
	Seasons int    `json:"seasons"`
	Users   int    `json:"users"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "data_dir":"readable", "seasons":2, "users":140 }
//
// When the data directory is gone: 503 and
//
//	{ "status":"error", "message":"Data directory unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:  "ok",
		DataDir: "readable",
		Seasons: h.Config.SeasonCount(),
		Users:   h.Users.UserCount(),
	}

	// The config lives on disk; if the data directory disappears, commits
	// and reloads will fail even though the in-memory copy still serves.
	if _, err := os.Stat(h.Config.DataPath()); err != nil {
		h.Log.Error("health-check: data directory stat failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.DataDir = "unavailable"
		resp.Message = "Data directory unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	_ = json.NewEncoder(w).Encode(resp)
}
