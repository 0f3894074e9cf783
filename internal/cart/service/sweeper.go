package service

import (
	"context"
	"log"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/cart/repository"
)

const (
	sweepInterval = time.Hour
	cartRetention = 24 * time.Hour
)

// Sweeper deletes carts idle past the retention window. A failed sweep
// is logged and never blocks the next scheduled run.
type Sweeper struct {
	repo      repository.CartRepository
	interval  time.Duration
	retention time.Duration
}

func NewSweeper(repo repository.CartRepository) *Sweeper {
	return &Sweeper{
		repo:      repo,
		interval:  sweepInterval,
		retention: cartRetention,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)

	deleted, err := s.repo.DeleteIdleSince(ctx, cutoff)
	if err != nil {
		log.Printf("cart sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("cart sweep removed %d idle carts", deleted)
	}
}
