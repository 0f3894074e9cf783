package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/cart/service"
	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	carts   *service.CartService
	cookie  SessionCookie
	timeout time.Duration
}

func NewCartHandler(carts *service.CartService, cookie SessionCookie, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		cookie:  cookie,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	CardID string `json:"card_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// resolve returns the caller's cart, issuing a fresh session cookie
// when none was presented or the token is unknown. The cookie is
// rewritten on every touch to keep the 7 day expiry rolling.
func (h *CartHandler) resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) (*domain.Cart, bool) {
	cart, _, err := h.carts.Resolve(ctx, h.cookie.Read(r))
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	h.cookie.Write(w, cart.SessionID)
	return cart, true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, ok := h.resolve(ctx, w, r)
	if !ok {
		return
	}

	summary, err := h.carts.Summarize(ctx, cart)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.CardID == "" {
		respondError(w, http.StatusBadRequest, "invalid_card_id", "card_id is required")
		return
	}

	cart, ok := h.resolve(ctx, w, r)
	if !ok {
		return
	}

	if err := h.carts.AddItem(ctx, cart.SessionID, req.CardID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondWithSummary(ctx, w, cart.SessionID, http.StatusCreated)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cardID := chi.URLParam(r, "card_id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	cart, ok := h.resolve(ctx, w, r)
	if !ok {
		return
	}

	if err := h.carts.SetQuantity(ctx, cart.SessionID, cardID, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondWithSummary(ctx, w, cart.SessionID, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cardID := chi.URLParam(r, "card_id")

	cart, ok := h.resolve(ctx, w, r)
	if !ok {
		return
	}

	if err := h.carts.RemoveItem(ctx, cart.SessionID, cardID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.respondWithSummary(ctx, w, cart.SessionID, http.StatusOK)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := h.cookie.Read(r)
	if sessionID == "" {
		respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
		return
	}

	if err := h.carts.Clear(ctx, sessionID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.cookie.Clear(w)
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *CartHandler) respondWithSummary(ctx context.Context, w http.ResponseWriter, sessionID string, status int) {
	cart, _, err := h.carts.Resolve(ctx, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	summary, err := h.carts.Summarize(ctx, cart)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, status, summary)
}
