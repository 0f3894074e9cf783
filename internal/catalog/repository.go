package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/billionairedev24/royal-grace-cards/internal/domain"
)

var ErrCardNotFound = errors.New("card not found")

// Lookup is the narrow catalog surface the checkout and cart flows
// need. Inventory writes happen inside the settlement transaction in
// the order repository so the status flip and the decrement stay
// atomic.
type Lookup interface {
	FindByID(ctx context.Context, id string) (*domain.Card, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const cardColumns = `id, name, description, price, image_url, category,
	in_stock, inventory, created_at, updated_at`

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query card by id: %w", err)
	}
	return card, nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return cards, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(s scanner) (*domain.Card, error) {
	var card domain.Card
	var description, imageURL, category sql.NullString
	err := s.Scan(
		&card.ID,
		&card.Name,
		&description,
		&card.Price,
		&imageURL,
		&category,
		&card.InStock,
		&card.Inventory,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	card.Description = description.String
	card.ImageURL = imageURL.String
	card.Category = category.String
	return &card, nil
}
