package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/cart/cache"
	"github.com/billionairedev24/royal-grace-cards/internal/cart/repository"
	"github.com/billionairedev24/royal-grace-cards/internal/catalog"
	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog catalog.Lookup
	sfg     singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, catalog catalog.Lookup) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
	}
}

// Resolve returns the cart for the presented session token. An absent
// or unknown token gets a fresh cart under a new uuid token, which is
// the client's only cart ownership credential. The second return value
// reports whether a new session was issued.
func (s *CartService) Resolve(ctx context.Context, sessionID string) (*domain.Cart, bool, error) {
	if sessionID != "" {
		cart, err := s.getCart(ctx, sessionID)
		if err == nil {
			return cart, false, nil
		}
		if !errors.Is(err, repository.ErrCartNotFound) {
			return nil, false, err
		}
	}

	cart := &domain.Cart{
		SessionID: uuid.NewString(),
		Items:     nil,
	}
	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		return nil, false, err
	}
	return cart, true, nil
}

func (s *CartService) getCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart, errGet := s.repo.GetCart(ctx, sessionID)
		if errGet != nil {
			return nil, errGet
		}

		go func() {
			errSet := s.cache.Set(context.Background(), sessionID, cart)
			if errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddItem increments the line for the card by one, inserting it at
// quantity one when absent. Unknown card ids are rejected.
func (s *CartService) AddItem(ctx context.Context, sessionID, cardID string) error {
	if _, err := s.catalog.FindByID(ctx, cardID); err != nil {
		return err
	}

	if err := s.repo.IncrementItem(ctx, sessionID, cardID); err != nil {
		log.Printf("repo add item error: %v", err)
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

// SetQuantity sets the line quantity, removing the line entirely when
// the quantity drops to zero or below.
func (s *CartService) SetQuantity(ctx context.Context, sessionID, cardID string, quantity int) error {
	if err := s.repo.SetItemQuantity(ctx, sessionID, cardID, quantity); err != nil {
		log.Printf("repo set quantity error: %v", err)
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, cardID string) error {
	if err := s.repo.RemoveItem(ctx, sessionID, cardID); err != nil {
		log.Printf("repo remove item error: %v", err)
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := s.repo.DeleteCart(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil
		}
		log.Printf("repo delete cart error: %v", err)
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

// Summarize prices the cart with current catalog prices. This is a
// live preview. Order pricing freezes its own snapshot at checkout and
// does not go through here. Lines whose card has disappeared from the
// catalog are dropped from the summary.
func (s *CartService) Summarize(ctx context.Context, cart *domain.Cart) (*domain.CartSummary, error) {
	summary := &domain.CartSummary{
		Items:    []domain.CartSummaryItem{},
		Subtotal: decimal.Zero,
	}

	for _, line := range cart.Items {
		card, err := s.catalog.FindByID(ctx, line.CardID)
		if err != nil {
			if errors.Is(err, catalog.ErrCardNotFound) {
				log.Printf("cart %s references missing card %s, skipping", cart.SessionID, line.CardID)
				continue
			}
			return nil, err
		}

		summary.Items = append(summary.Items, domain.CartSummaryItem{
			CardID:   card.ID,
			Name:     card.Name,
			Price:    card.Price,
			Quantity: line.Quantity,
		})
		summary.TotalItems += line.Quantity
		summary.Subtotal = summary.Subtotal.Add(card.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return summary, nil
}

func (s *CartService) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
