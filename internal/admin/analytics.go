package admin

import (
	"math"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/regcode"
	"github.com/nutritionbot/dashboard-backend/internal/trainer"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
)

type Overview struct {
	TotalTrainers       int   `json:"total_trainers"`
	ActiveTrainers      int   `json:"active_trainers"`
	TotalUsers          int64 `json:"total_users"`
	TotalMessages       int64 `json:"total_messages"`
	RecentMessages7Days int64 `json:"recent_messages_7_days"`
}

type TrainerPerformance struct {
	TrainerID     uuid.UUID `json:"trainer_id"`
	TrainerName   string    `json:"trainer_name"`
	TotalMessages int64     `json:"total_messages"`
	TotalUsers    int64     `json:"total_users"`
	IsActive      bool      `json:"is_active"`
}

type CodeStats struct {
	TotalCodes   int     `json:"total_codes"`
	UsedCodes    int     `json:"used_codes"`
	ActiveCodes  int     `json:"active_codes"`
	ExpiredCodes int     `json:"expired_codes"`
	UsageRate    float64 `json:"usage_rate"`
}

type Analytics struct {
	Overview           Overview             `json:"overview"`
	TrainerPerformance []TrainerPerformance `json:"trainer_performance"`
	DailyMessages      map[string]int64     `json:"daily_messages"`
	RegistrationCodes  CodeStats            `json:"registration_codes"`
}

// codeStats buckets codes by derived state. usage_rate is a percentage
// rounded to two places.
func codeStats(views []regcode.View) CodeStats {
	var s CodeStats
	s.TotalCodes = len(views)
	for _, v := range views {
		switch v.State {
		case regcode.StateUsed:
			s.UsedCodes++
		case regcode.StateExpired:
			s.ExpiredCodes++
		default:
			s.ActiveCodes++
		}
	}
	if s.TotalCodes > 0 {
		s.UsageRate = math.Round(float64(s.UsedCodes)/float64(s.TotalCodes)*10000) / 100
	}
	return s
}

func performance(trainers []TrainerSummary) []TrainerPerformance {
	out := make([]TrainerPerformance, 0, len(trainers))
	for _, t := range trainers {
		out = append(out, TrainerPerformance{
			TrainerID:     t.ID,
			TrainerName:   t.Name,
			TotalMessages: t.MessageCount,
			TotalUsers:    t.UserCount,
			IsActive:      t.IsActive,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalMessages > out[j].TotalMessages
	})
	return out
}

func (h *Handlers) Analytics(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	trainers, err := h.trainerSummaries(ctx, caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	codes, err := h.codes.List(ctx, caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	tx := h.db.WithContext(ctx)
	var users int64
	if err := tx.Table("users").Count(&users).Error; err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	msgs, err := trainer.SummarizeMessages(tx, identity.OwnedByColumn(caller, "m.trainer_id"), h.now().UTC())
	if err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}

	out := Analytics{
		Overview: Overview{
			TotalTrainers:       len(trainers),
			TotalUsers:          users,
			TotalMessages:       msgs.TotalMessages,
			RecentMessages7Days: msgs.RecentActivity,
		},
		TrainerPerformance: performance(trainers),
		DailyMessages:      msgs.DailyMessages,
		RegistrationCodes:  codeStats(codes),
	}
	for _, t := range trainers {
		if t.IsActive {
			out.Overview.ActiveTrainers++
		}
	}
	utils.WriteJSON(w, http.StatusOK, out)
}
