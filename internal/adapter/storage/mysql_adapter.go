package storage

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-cart/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// CreateOrder appends one journal row per accepted submission.
func (m *MySQLAdapter) CreateOrder(ctx context.Context, record domain.OrderRecord) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, product_id, quantity, comment, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.UserID, record.ProductID, record.Quantity,
		record.Comment, record.Status, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// ListOrders returns a user's journal rows, newest first.
func (m *MySQLAdapter) ListOrders(ctx context.Context, userID string) ([]domain.OrderRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, product_id, quantity, comment, status, created_at, updated_at
		FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var records []domain.OrderRecord
	for rows.Next() {
		var record domain.OrderRecord
		if err := rows.Scan(
			&record.ID, &record.UserID, &record.ProductID, &record.Quantity,
			&record.Comment, &record.Status, &record.CreatedAt, &record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return records, nil
}
