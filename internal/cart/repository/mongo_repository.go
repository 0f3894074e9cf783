package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return &mongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoRepository) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"session_id": sessionID}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *mongoRepository) UpsertCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	filter := bson.M{"session_id": cart.SessionID}
	update := bson.M{"$set": bson.M{
		"session_id": cart.SessionID,
		"items":      cart.Items,
		"created_at": cart.CreatedAt,
		"updated_at": cart.UpdatedAt,
	}}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	return nil
}

// IncrementItem bumps the line quantity by one as a single conditional
// update, never as a read then write, so concurrent adds cannot lose
// increments. The $ne guard on the insert path keeps the at most one
// line per card invariant under races.
func (m *mongoRepository) IncrementItem(ctx context.Context, sessionID, cardID string) error {
	now := time.Now()

	incFilter := bson.M{"session_id": sessionID, "items.card_id": cardID}
	inc := bson.M{
		"$inc": bson.M{"items.$.quantity": 1},
		"$set": bson.M{"updated_at": now},
	}

	res, err := m.collection.UpdateOne(ctx, incFilter, inc)
	if err != nil {
		return fmt.Errorf("failed to increment item: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	pushFilter := bson.M{
		"session_id":    sessionID,
		"items.card_id": bson.M{"$ne": cardID},
	}
	push := bson.M{
		"$push": bson.M{"items": domain.CartItem{CardID: cardID, Quantity: 1, AddedAt: now}},
		"$set":  bson.M{"updated_at": now},
		"$setOnInsert": bson.M{
			"session_id": sessionID,
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)

	res, err = m.collection.UpdateOne(ctx, pushFilter, push, opts)
	if err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	if res.MatchedCount > 0 || res.UpsertedCount > 0 {
		return nil
	}

	// The line appeared between the two updates. Retry the increment.
	if _, err := m.collection.UpdateOne(ctx, incFilter, inc); err != nil {
		return fmt.Errorf("failed to increment item after race: %w", err)
	}
	return nil
}

// SetItemQuantity sets the line quantity. A quantity of zero or below
// removes the line, it is never stored.
func (m *mongoRepository) SetItemQuantity(ctx context.Context, sessionID, cardID string, quantity int) error {
	if quantity <= 0 {
		return m.RemoveItem(ctx, sessionID, cardID)
	}

	filter := bson.M{"session_id": sessionID, "items.card_id": cardID}
	update := bson.M{
		"$set": bson.M{
			"items.$.quantity": quantity,
			"updated_at":       time.Now(),
		},
	}

	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *mongoRepository) RemoveItem(ctx context.Context, sessionID, cardID string) error {
	filter := bson.M{"session_id": sessionID}
	update := bson.M{
		"$pull": bson.M{"items": bson.M{"card_id": cardID}},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoRepository) DeleteCart(ctx context.Context, sessionID string) error {
	filter := bson.M{"session_id": sessionID}

	res, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

// DeleteIdleSince removes every cart untouched since the cutoff. Used
// by the hourly expiry sweeper.
func (m *mongoRepository) DeleteIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{"updated_at": bson.M{"$lt": cutoff}}

	res, err := m.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle carts: %w", err)
	}
	return res.DeletedCount, nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
