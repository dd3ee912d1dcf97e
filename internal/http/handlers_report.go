package http

import (
	"net/http"
	"strings"

	"contable/internal/advisor"
	"contable/internal/log"
	"contable/internal/report"
)

func (s *Server) handleAvailableMonths(w http.ResponseWriter, r *http.Request) {
	snap := s.books.Engine().Snapshot()
	months := report.AvailableMonths(snap.Sales, snap.Expenses)

	type monthOption struct {
		Month       string `json:"month"`
		DisplayName string `json:"displayName"`
	}
	out := make([]monthOption, 0, len(months))
	for _, m := range months {
		out = append(out, monthOption{Month: m.Label(), DisplayName: m.DisplayName()})
	}
	OK(out).Write(w)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	filter, err := report.ParseFilter(raw)
	if err != nil {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Invalid month filter",
			log.FieldMonth, raw, log.FieldError, err)
		BadRequestError("Mes no válido.").Write(w)
		return
	}

	snap := s.books.Engine().Snapshot()
	OK(report.Monthly(snap.Sales, snap.Expenses, filter)).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.books.Engine().Snapshot()
	OK(report.Dashboard(snap.Sales, snap.Expenses)).Write(w)
}

func (s *Server) handleTip(w http.ResponseWriter, r *http.Request) {
	topic := sanitizeInput(r.URL.Query().Get("topic"))
	if topic == "" {
		BadRequestError("Falta el tema del consejo.").Write(w)
		return
	}
	tip := advisor.DisabledMessage
	if s.tips != nil {
		tip = s.tips.GetTip(r.Context(), topic)
	}
	OK(map[string]string{"topic": topic, "tip": tip}).Write(w)
}
