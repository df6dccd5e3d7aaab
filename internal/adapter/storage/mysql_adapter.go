package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

const inventoryColumns = `id, name, quantity, location, order_id, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInventoryItem(row rowScanner) (domain.InventoryItem, error) {
	var (
		item    domain.InventoryItem
		orderID sql.NullInt64
	)
	err := row.Scan(&item.ID, &item.Name, &item.Quantity, &item.Location, &orderID,
		&item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	if orderID.Valid {
		id := orderID.Int64
		item.OrderID = &id
	}
	return item, nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *MySQLAdapter) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT `+inventoryColumns+` FROM inventory_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0)
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) GetInventoryItem(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	item, err := scanInventoryItem(m.db.QueryRowContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory item: %w", err)
	}
	return &item, nil
}

func (m *MySQLAdapter) InventoryItemExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM inventory_items WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query inventory item: %w", err)
	}
	return exists, nil
}

func (m *MySQLAdapter) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	id, err := insertInventoryItem(ctx, m.db, item, nil)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	created, err := m.GetInventoryItem(ctx, id)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	if created == nil {
		return domain.InventoryItem{}, fmt.Errorf("inventory item %d vanished after insert", id)
	}
	return *created, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertInventoryItem(ctx context.Context, ex execer, item domain.InventoryItem, orderID *int64) (int64, error) {
	result, err := ex.ExecContext(ctx, `
		INSERT INTO inventory_items (name, quantity, location, order_id, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, NOW(6), NOW(6))`,
		item.Name, item.Quantity, item.Location, orderID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert inventory item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert inventory item: %w", err)
	}
	return id, nil
}

func (m *MySQLAdapter) UpdateInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET name = ?, quantity = ?, location = ?, version = version + 1, updated_at = NOW(6)
		WHERE id = ? AND version = ?`,
		item.Name, item.Quantity, item.Location, item.ID, item.Version,
	)
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("update inventory item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.InventoryItem{}, domain.ErrOptimisticLock
	}

	updated, err := m.GetInventoryItem(ctx, item.ID)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	if updated == nil {
		return domain.InventoryItem{}, domain.ErrOptimisticLock
	}
	return *updated, nil
}

func (m *MySQLAdapter) DeleteInventoryItem(ctx context.Context, id int64) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *MySQLAdapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT id, customer_name, date_placed FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.DatePlaced); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Items = make([]domain.InventoryItem, 0)
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := m.db.QueryContext(ctx, `
		SELECT `+inventoryColumns+` FROM inventory_items
		WHERE order_id IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		item, err := scanInventoryItem(itemRows)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[*item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return orders, itemRows.Err()
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx,
		`SELECT id, customer_name, date_placed FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.CustomerName, &o.DatePlaced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory_items WHERE order_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	o.Items = make([]domain.InventoryItem, 0)
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	return &o, nil
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (customer_name, date_placed) VALUES (?, ?)`,
		order.CustomerName, order.DatePlaced,
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	items := make([]domain.InventoryItem, 0, len(order.Items))
	for _, item := range order.Items {
		if item.IsNew() {
			id, err := insertInventoryItem(ctx, tx, item, &orderID)
			if err != nil {
				return domain.Order{}, err
			}
			item.ID = id
		} else {
			result, err := tx.ExecContext(ctx, `
				UPDATE inventory_items SET order_id = ?, version = version + 1, updated_at = NOW(6)
				WHERE id = ?`, orderID, item.ID)
			if err != nil {
				return domain.Order{}, fmt.Errorf("attach inventory item %d: %w", item.ID, err)
			}
			// A repeated id matches but changes nothing on the second pass.
			rows, _ := result.RowsAffected()
			if rows == 0 && !containsID(items, item.ID) {
				return domain.Order{}, fmt.Errorf("attach inventory item %d: item no longer exists", item.ID)
			}
		}
		item.OrderID = &orderID
		items = append(items, item)
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit order: %w", err)
	}

	order.ID = orderID
	order.Items = items
	return order, nil
}

func containsID(items []domain.InventoryItem, id int64) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func (m *MySQLAdapter) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE inventory_items SET order_id = NULL, version = version + 1, updated_at = NOW(6)
		WHERE order_id = ?`, id)
	if err != nil {
		return fmt.Errorf("detach order items: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}

	return tx.Commit()
}

func (m *MySQLAdapter) AttachItem(ctx context.Context, orderID, itemID int64) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory_items SET order_id = ?, version = version + 1, updated_at = NOW(6)
		WHERE id = ? AND EXISTS (SELECT 1 FROM orders WHERE id = ?)`,
		orderID, itemID, orderID,
	)
	if err != nil {
		return fmt.Errorf("attach inventory item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *MySQLAdapter) DetachItem(ctx context.Context, orderID, itemID int64) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory_items SET order_id = NULL, version = version + 1, updated_at = NOW(6)
		WHERE id = ? AND order_id = ?`,
		itemID, orderID,
	)
	if err != nil {
		return fmt.Errorf("detach inventory item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Migrate creates the schema when it does not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
