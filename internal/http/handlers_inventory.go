package http

import (
	"net/http"

	"contable/internal/core"
	"contable/internal/log"
	"contable/internal/report"
)

func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	OK(s.books.Engine().Inventory()).Write(w)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var in core.NewItem
	if err := decodeJSON(r, &in); err != nil {
		s.badBody(w, r, log.OpCreate, err)
		return
	}
	in.Name = sanitizeInput(in.Name)

	item, topic, err := s.books.AddItem(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, log.OpCreate, err)
		return
	}
	Created(item, topic).Write(w)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var in core.NewItem
	if err := decodeJSON(r, &in); err != nil {
		s.badBody(w, r, log.OpUpdate, err)
		return
	}
	in.Name = sanitizeInput(in.Name)

	item, err := s.books.UpdateItem(r.Context(), pathID(r), in)
	if err != nil {
		s.writeServiceError(w, r, log.OpUpdate, err)
		return
	}
	OK(item).Write(w)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.books.DeleteItem(r.Context(), pathID(r)); err != nil {
		s.writeServiceError(w, r, log.OpDelete, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	OK(report.Valuation(s.books.Engine().Inventory(), s.books.LowStockThreshold())).Write(w)
}
