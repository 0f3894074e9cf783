package http

import (
	"context"
	"net/http"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type CardsHandler struct {
	catalog *catalog.Repository
	timeout time.Duration
}

func NewCardsHandler(catalog *catalog.Repository, timeout time.Duration) *CardsHandler {
	return &CardsHandler{catalog: catalog, timeout: timeout}
}

func (h *CardsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cards, err := h.catalog.List(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

func (h *CardsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	card, err := h.catalog.FindByID(ctx, chi.URLParam(r, "card_id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}
