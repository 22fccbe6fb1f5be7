package admin

import (
	"net/http"
	"time"

	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
)

const (
	healthy   = "healthy"
	unhealthy = "unhealthy"
)

var healthTables = []string{"trainers", "users", "bot_messages"}

type Health struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// SystemHealth pings the database and counts each core table. Failures are
// logged; the response only says which check failed.
func (h *Handlers) SystemHealth(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	ctx := r.Context()
	out := Health{Status: healthy, Checks: map[string]string{}, Timestamp: h.now().UTC()}

	mark := func(name string, err error) {
		if err == nil {
			out.Checks[name] = healthy
			return
		}
		h.logger.WarnContext(ctx, "health check failed", "check", name, "error", err)
		out.Checks[name] = unhealthy
		out.Status = unhealthy
	}

	mark("database", db.Ping(ctx, h.db))
	for _, table := range healthTables {
		var n int64
		mark(table+"_table", h.db.WithContext(ctx).Table(table).Count(&n).Error)
	}
	utils.WriteJSON(w, http.StatusOK, out)
}
