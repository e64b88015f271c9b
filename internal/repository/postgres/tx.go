package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ridepool/internal/repository"
)

// TxManager is a PostgreSQL implementation of repository.TxManager.
type TxManager struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTxManager creates a TxManager. A positive timeout bounds every transaction.
func NewTxManager(db *sql.DB, timeout time.Duration) *TxManager {
	return &TxManager{db: db, timeout: timeout}
}

// Repositories returns repositories bound to the connection pool, outside any transaction.
func (m *TxManager) Repositories() repository.Repositories {
	return repository.Repositories{
		Requests: NewRequestRepository(m.db),
		Vehicles: NewVehicleRepository(m.db),
		Routes:   NewRouteRepository(m.db),
		Stops:    NewStopRepository(m.db),
	}
}

// WithinTx runs fn inside a transaction with transaction-scoped repositories.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	repos := repository.Repositories{
		Requests: NewRequestRepositoryWithTx(tx),
		Vehicles: NewVehicleRepositoryWithTx(tx),
		Routes:   NewRouteRepositoryWithTx(tx),
		Stops:    NewStopRepositoryWithTx(tx),
	}

	if err = fn(ctx, repos); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Ensure TxManager implements repository.TxManager.
var _ repository.TxManager = (*TxManager)(nil)
