package http

import (
	"net/http"
	"time"

	"budgeteer/internal/engine"
	applog "budgeteer/internal/log"
)

type bucketInsightDTO struct {
	bucketDTO
	BurnRate  float64 `json:"burn_rate"`
	Projected float64 `json:"projected"`
	Overshoot float64 `json:"overshoot"`
}

type projectionDTO struct {
	TotalRemaining   float64            `json:"total_remaining"`
	SafeToSpendToday float64            `json:"safe_to_spend_today"`
	DaysInMonth      int                `json:"days_in_month"`
	DaysElapsed      int                `json:"days_elapsed"`
	RemainingDays    int                `json:"remaining_days"`
	MonthStatus      string             `json:"month_status"`
	Overshooting     int                `json:"overshooting"`
	Buckets          []bucketInsightDTO `json:"buckets"`
}

func toProjectionDTO(p engine.Projection) projectionDTO {
	out := projectionDTO{
		TotalRemaining:   p.TotalRemaining,
		SafeToSpendToday: p.SafeToSpendToday,
		DaysInMonth:      p.DaysInMonth,
		DaysElapsed:      p.DaysElapsed,
		RemainingDays:    p.RemainingDays,
		MonthStatus:      string(p.MonthStatus),
		Overshooting:     p.Overshooting,
		Buckets:          make([]bucketInsightDTO, 0, len(p.Buckets)),
	}
	for _, b := range p.Buckets {
		out.Buckets = append(out.Buckets, bucketInsightDTO{
			bucketDTO: toBucketDTO(b.Bucket),
			BurnRate:  b.BurnRate,
			Projected: b.Projected,
			Overshoot: b.Overshoot,
		})
	}
	return out
}

// handleProjection evaluates the budget at the requested date, defaulting
// to now. An explicit date lets the dashboard ask "where will I be if the
// month ended today" for any day.
func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	at := s.now()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		at = parsed
	}

	projection, err := s.evaluate(r.Context(), at)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "projection failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to compute projection")
		return
	}
	writeJSON(w, http.StatusOK, toProjectionDTO(projection))
}
