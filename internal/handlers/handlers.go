package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	applog "ricereport/internal/log"
)

const sessionFlashKey = "flash:notifications"

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	nowFunc        = time.Now
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB) {
	sessionManager = sm
	database = db
}

func today() string {
	return nowFunc().UTC().Format("2006-01-02")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// notification is a user-facing message carried in the session until the next
// poll of the notifications endpoint.
type notification struct {
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func notify(r *http.Request, level, title, message string) {
	if sessionManager == nil {
		return
	}
	pending := loadNotifications(r.Context())
	pending = append(pending, notification{Level: level, Title: title, Message: message})
	encoded, err := json.Marshal(pending)
	if err != nil {
		applog.Error(r.Context(), "failed to encode notifications", "error", err)
		return
	}
	sessionManager.Put(r.Context(), sessionFlashKey, string(encoded))
}

func loadNotifications(ctx context.Context) []notification {
	raw := sessionManager.GetString(ctx, sessionFlashKey)
	if raw == "" {
		return nil
	}
	var pending []notification
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		applog.Warn(ctx, "discarding malformed notification payload", "error", err)
		return nil
	}
	return pending
}

// Notifications drains the pending user-facing messages for this session.
func Notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sessionManager == nil {
		writeJSON(w, http.StatusOK, []notification{})
		return
	}
	pending := loadNotifications(r.Context())
	sessionManager.Remove(r.Context(), sessionFlashKey)
	if pending == nil {
		pending = []notification{}
	}
	writeJSON(w, http.StatusOK, pending)
}
