package appconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/billionairedev24/royal-grace-cards/internal/domain"
	"github.com/google/uuid"
)

var ErrMultipleConfigs = errors.New("more than one app config row found")

// Store reads the app configuration singleton. Consumers treat it as a
// read-only collaborator.
type Store interface {
	Get(ctx context.Context) (*domain.AppConfig, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Get lazily materializes the default singleton on first read. A second
// persisted row is a data integrity error, not something to pick from.
func (r *Repository) Get(ctx context.Context) (*domain.AppConfig, error) {
	query := `SELECT id, standard_shipping_fee, free_shipping_threshold,
	                 stripe_enabled, zelle_enabled, cashapp_enabled,
	                 zelle_email, zelle_phone, cashapp_handle, updated_at
	          FROM app_config`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query app config: %w", err)
	}
	defer rows.Close()

	var configs []*domain.AppConfig
	for rows.Next() {
		var cfg domain.AppConfig
		if err := rows.Scan(
			&cfg.ID,
			&cfg.StandardShippingFee,
			&cfg.FreeShippingThreshold,
			&cfg.StripeEnabled,
			&cfg.ZelleEnabled,
			&cfg.CashappEnabled,
			&cfg.ZelleEmail,
			&cfg.ZellePhone,
			&cfg.CashappHandle,
			&cfg.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan app config row: %w", err)
		}
		configs = append(configs, &cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(configs) > 1 {
		return nil, ErrMultipleConfigs
	}
	if len(configs) == 1 {
		return configs[0], nil
	}

	return r.insertDefault(ctx)
}

func (r *Repository) insertDefault(ctx context.Context) (*domain.AppConfig, error) {
	cfg := domain.DefaultConfig()
	cfg.ID = uuid.NewString()

	query := `INSERT INTO app_config (id, standard_shipping_fee, free_shipping_threshold,
	              stripe_enabled, zelle_enabled, cashapp_enabled,
	              zelle_email, zelle_phone, cashapp_handle, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	          ON CONFLICT DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		cfg.ID,
		cfg.StandardShippingFee,
		cfg.FreeShippingThreshold,
		cfg.StripeEnabled,
		cfg.ZelleEnabled,
		cfg.CashappEnabled,
		cfg.ZelleEmail,
		cfg.ZellePhone,
		cfg.CashappHandle)
	if err != nil {
		return nil, fmt.Errorf("insert default app config: %w", err)
	}

	// A concurrent first read may have inserted the row already. Re-read
	// so both callers end up with the same singleton.
	if n, _ := res.RowsAffected(); n == 0 {
		return r.Get(ctx)
	}
	return cfg, nil
}
