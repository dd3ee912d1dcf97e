package http

import (
	"net/http"

	"contable/internal/core"
	"contable/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	OK(s.books.Engine().Expenses()).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.NewExpense
	if err := decodeJSON(r, &in); err != nil {
		s.badBody(w, r, log.OpCreate, err)
		return
	}
	in.Category = sanitizeInput(in.Category)
	in.Description = sanitizeInput(in.Description)

	exp, topic, err := s.books.AddExpense(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, log.OpCreate, err)
		return
	}
	Created(exp, topic).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.NewExpense
	if err := decodeJSON(r, &in); err != nil {
		s.badBody(w, r, log.OpUpdate, err)
		return
	}
	in.Category = sanitizeInput(in.Category)
	in.Description = sanitizeInput(in.Description)

	exp, err := s.books.UpdateExpense(r.Context(), pathID(r), in)
	if err != nil {
		s.writeServiceError(w, r, log.OpUpdate, err)
		return
	}
	OK(exp).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.books.DeleteExpense(r.Context(), pathID(r)); err != nil {
		s.writeServiceError(w, r, log.OpDelete, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	OK(core.ExpenseCategories()).Write(w)
}
