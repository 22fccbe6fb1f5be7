package trainer

import (
	"net/http"
	"time"

	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
	"gorm.io/gorm"
)

const (
	recentWindow = 7 * 24 * time.Hour
	dayExpr      = "to_char(m.sent_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
)

type MessageAnalytics struct {
	TotalMessages  int64            `json:"total_messages"`
	DailyMessages  map[string]int64 `json:"daily_messages"`
	RecentActivity int64            `json:"recent_activity"`
}

type DailyUserActivity struct {
	UniqueUsersCount int64 `json:"unique_users_count"`
	TotalMessages    int64 `json:"total_messages"`
}

type UserInteraction struct {
	UserID          string     `json:"user_id"`
	UserName        string     `json:"user_name"`
	TotalMessages   int64      `json:"total_messages"`
	LastInteraction *time.Time `json:"last_interaction"`
	CreatedAt       time.Time  `json:"created_at"`
}

type UserAnalytics struct {
	TotalUsers           int64                        `json:"total_users"`
	DailyUserActivity    map[string]DailyUserActivity `json:"daily_user_activity"`
	UserInteractionStats []UserInteraction            `json:"user_interaction_stats"`
}

type dayCount struct {
	Day   string
	Count int64
}

// SummarizeMessages counts bot messages matching scope, which must filter on
// the m alias.
func SummarizeMessages(tx *gorm.DB, scope func(*gorm.DB) *gorm.DB, now time.Time) (MessageAnalytics, error) {
	out := MessageAnalytics{DailyMessages: map[string]int64{}}
	base := func() *gorm.DB { return tx.Table("bot_messages AS m").Scopes(scope) }

	if err := base().Count(&out.TotalMessages).Error; err != nil {
		return out, err
	}

	var days []dayCount
	err := base().
		Select(dayExpr + " AS day, COUNT(*) AS count").
		Where("m.sent_at IS NOT NULL").
		Group("day").
		Scan(&days).Error
	if err != nil {
		return out, err
	}
	for _, d := range days {
		out.DailyMessages[d.Day] = d.Count
	}

	err = base().Where("m.sent_at >= ?", now.Add(-recentWindow)).Count(&out.RecentActivity).Error
	return out, err
}

func (h *Handlers) MessageAnalytics(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	scope, err := readScope(caller, r, "m.trainer_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := SummarizeMessages(h.db.WithContext(r.Context()), scope, h.now().UTC())
	if err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

type dailyUsers struct {
	Day              string
	UniqueUsersCount int64
	TotalMessages    int64
}

// UserAnalytics reports activity of the caller's clients only; messages from
// users who since switched trainer are not counted.
func (h *Handlers) UserAnalytics(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	userScope, err := readScope(caller, r, "u.selected_trainer_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tx := h.db.WithContext(r.Context())
	out := UserAnalytics{
		DailyUserActivity:    map[string]DailyUserActivity{},
		UserInteractionStats: []UserInteraction{},
	}

	clients, err := clientSummaries(tx, userScope, "message_count DESC, u.created_at")
	if err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	out.TotalUsers = int64(len(clients))
	for _, c := range clients {
		name := c.Name
		if name == "" {
			name = "Unknown"
		}
		out.UserInteractionStats = append(out.UserInteractionStats, UserInteraction{
			UserID:          c.ID.String(),
			UserName:        name,
			TotalMessages:   c.MessageCount,
			LastInteraction: c.LastInteraction,
			CreatedAt:       c.CreatedAt,
		})
	}

	var days []dailyUsers
	err = tx.Table("bot_messages AS m").
		Select(dayExpr + " AS day, COUNT(DISTINCT m.user_id) AS unique_users_count, COUNT(*) AS total_messages").
		Joins("JOIN users u ON u.id = m.user_id AND u.selected_trainer_id = m.trainer_id").
		Scopes(userScope).
		Where("m.sent_at IS NOT NULL").
		Group("day").
		Scan(&days).Error
	if err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	for _, d := range days {
		out.DailyUserActivity[d.Day] = DailyUserActivity{
			UniqueUsersCount: d.UniqueUsersCount,
			TotalMessages:    d.TotalMessages,
		}
	}
	utils.WriteJSON(w, http.StatusOK, out)
}
