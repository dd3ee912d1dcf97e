package http

import (
	"net/http"

	"contable/internal/core"
	"contable/internal/log"
	"contable/internal/services"
)

func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	OK(s.books.Engine().Sales()).Write(w)
}

func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var in core.NewSale
	if err := decodeJSON(r, &in); err != nil {
		s.badBody(w, r, log.OpCreate, err)
		return
	}

	sale, err := s.books.RecordSale(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, log.OpCreate, err)
		return
	}
	Created(sale, "").Write(w)
}

func (s *Server) handleUpdateSale(w http.ResponseWriter, r *http.Request) {
	var edit services.SaleEdit
	if err := decodeJSON(r, &edit); err != nil {
		s.badBody(w, r, log.OpUpdate, err)
		return
	}

	sale, err := s.books.UpdateSale(r.Context(), pathID(r), edit)
	if err != nil {
		s.writeServiceError(w, r, log.OpUpdate, err)
		return
	}
	OK(sale).Write(w)
}

func (s *Server) handleDeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := s.books.DeleteSale(r.Context(), pathID(r)); err != nil {
		s.writeServiceError(w, r, log.OpDelete, err)
		return
	}
	NoContent().Write(w)
}
