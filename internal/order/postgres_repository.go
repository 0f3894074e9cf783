package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(cred *Credentials) (*PostgresRepository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func NewPostgresRepositoryWithDB(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *PostgresRepository) DB() *sql.DB {
	return r.db
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

const orderColumns = `id, customer_name, customer_email, customer_phone,
	cart_session_id, payment_session_id,
	shipping_street, shipping_city, shipping_state, shipping_zip,
	items, subtotal, shipping_fee, total,
	payment_method, payment_status, fulfillment_status,
	tracking_code, tracking_updates, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, o *domain.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	trackingJSON, err := json.Marshal(o.TrackingUpdates)
	if err != nil {
		return fmt.Errorf("failed to marshal tracking updates: %w", err)
	}

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
	                  $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())`

	_, insertErr := r.db.ExecContext(ctx, query,
		o.ID,
		o.CustomerName,
		o.CustomerEmail,
		nullable(o.CustomerPhone),
		o.CartSessionID,
		nullable(o.PaymentSessionID),
		o.ShippingAddress.Street,
		o.ShippingAddress.City,
		o.ShippingAddress.State,
		o.ShippingAddress.ZipCode,
		itemsJSON,
		o.Subtotal,
		o.ShippingFee,
		o.Total,
		o.PaymentMethod,
		o.PaymentStatus,
		o.FulfillmentStatus,
		nullable(o.TrackingCode),
		trackingJSON)
	if insertErr != nil {
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) GetByPaymentSessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_session_id = $1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by payment session: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE customer_email = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("query orders by email: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

func (r *PostgresRepository) SetPaymentSession(ctx context.Context, orderID, paymentSessionID string) error {
	query := `UPDATE orders SET payment_session_id = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, orderID, paymentSessionID)
	if err != nil {
		return fmt.Errorf("set payment session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Settle performs the one transition that needs a mutual exclusion
// guarantee. The conditional UPDATE keyed on the pre-transition status
// lets exactly one caller through. Concurrent duplicate webhook
// deliveries and manual operator updates observe zero rows affected
// and report ErrAlreadySettled, leaving inventory untouched.
func (r *PostgresRepository) Settle(ctx context.Context, orderID string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settle tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = NOW()
		 WHERE id = $1 AND payment_status = $3`,
		orderID, domain.PaymentCompleted, domain.PaymentPending)
	if err != nil {
		return nil, fmt.Errorf("flip payment status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("settle rows affected: %w", err)
	}
	if n == 0 {
		var status domain.PaymentStatus
		err := tx.QueryRowContext(ctx,
			`SELECT payment_status FROM orders WHERE id = $1`, orderID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("check order status: %w", err)
		}
		return nil, ErrAlreadySettled
	}

	o, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		return nil, fmt.Errorf("load settled order: %w", err)
	}

	// Decrement inventory exactly once per line, clamped at zero.
	// in_stock flips off when the clamp lands on zero.
	for _, item := range o.Items {
		_, err := tx.ExecContext(ctx,
			`UPDATE cards
			 SET inventory = GREATEST(inventory - $2, 0),
			     in_stock = GREATEST(inventory - $2, 0) > 0,
			     updated_at = NOW()
			 WHERE id = $1`,
			item.CardID, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement inventory for card %s: %w", item.CardID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settle tx: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) MarkPaymentFailed(ctx context.Context, orderID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = NOW()
		 WHERE id = $1 AND payment_status = $3`,
		orderID, domain.PaymentFailed, domain.PaymentPending)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark failed rows affected: %w", err)
	}
	if n == 0 {
		if _, getErr := r.GetByID(ctx, orderID); getErr != nil {
			return getErr
		}
		return ErrIllegalTransition
	}
	return nil
}

func (r *PostgresRepository) UpdateFulfillmentStatus(ctx context.Context, orderID string, next domain.FulfillmentStatus) error {
	o, err := r.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !o.FulfillmentStatus.CanTransitionTo(next) {
		return fmt.Errorf("%w: fulfillment %s -> %s", ErrIllegalTransition, o.FulfillmentStatus, next)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET fulfillment_status = $2, updated_at = NOW()
		 WHERE id = $1 AND fulfillment_status = $3`,
		orderID, next, o.FulfillmentStatus)
	if err != nil {
		return fmt.Errorf("update fulfillment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrIllegalTransition
	}
	return nil
}

// AddTracking appends to the tracking log. The log is append only,
// existing entries are never rewritten.
func (r *PostgresRepository) AddTracking(ctx context.Context, orderID, trackingCode string, update *domain.TrackingUpdate) error {
	updateJSON, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal tracking update: %w", err)
	}

	query := `UPDATE orders
	          SET tracking_code = COALESCE(NULLIF($2, ''), tracking_code),
	              tracking_updates = tracking_updates || $3::jsonb,
	              updated_at = NOW()
	          WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, orderID, trackingCode, updateJSON)
	if err != nil {
		return fmt.Errorf("add tracking update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var o domain.Order
	var phone, paymentSession, trackingCode sql.NullString
	var itemsJSON, trackingJSON []byte

	err := s.Scan(
		&o.ID,
		&o.CustomerName,
		&o.CustomerEmail,
		&phone,
		&o.CartSessionID,
		&paymentSession,
		&o.ShippingAddress.Street,
		&o.ShippingAddress.City,
		&o.ShippingAddress.State,
		&o.ShippingAddress.ZipCode,
		&itemsJSON,
		&o.Subtotal,
		&o.ShippingFee,
		&o.Total,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.FulfillmentStatus,
		&trackingCode,
		&trackingJSON,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.CustomerPhone = phone.String
	o.PaymentSessionID = paymentSession.String
	o.TrackingCode = trackingCode.String

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(trackingJSON, &o.TrackingUpdates); err != nil {
		return nil, fmt.Errorf("unmarshal tracking updates: %w", err)
	}
	return &o, nil
}
