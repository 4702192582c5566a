package mirror

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/dairydesk/dairydesk-golang/internal/models"
)

// ErrNotFound is returned when a mutation targets a record that does not
// exist or belongs to a different owner. Callers cannot tell the two cases
// apart; both look like a missing record.
var ErrNotFound = errors.New("record not found")

// ErrNoFields is returned when a patch carries nothing to update.
var ErrNoFields = errors.New("no fields to update")

// Mutations write through to the database and then publish a change
// notification. They never touch the mirrors directly: the subscription
// reflects the write back, so every reader sees the same ordering of
// changes regardless of which process wrote them.

// publish fires the change notification for a committed write. A failed
// publish leaves the mirror stale until the next notification; we log it
// rather than failing a mutation that already committed.
func (s *Syncer) publish(ctx context.Context, ownerID int64, collection string) {
	if err := s.notifier.Publish(ctx, ownerID, collection); err != nil {
		log.Printf("ERROR: failed to publish %s change for owner %d: %v", collection, ownerID, err)
	}
}

//
// --- Products ---
//

// ProductPatch is a partial-field update; nil fields are left untouched.
type ProductPatch struct {
	Name      *string
	UnitPrice *float64
	Quantity  *float64
	Unit      *string
	PhotoURL  *string
}

// AddProduct inserts a product for the owner and returns its new ID.
func (s *Syncer) AddProduct(ctx context.Context, ownerID int64, p *models.Product) (int64, error) {
	query := `
		INSERT INTO products (owner_id, name, unit_price, quantity, unit, photo_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	var photo sql.NullString
	if p.PhotoURL != nil {
		photo = sql.NullString{String: *p.PhotoURL, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, query, ownerID, p.Name, p.UnitPrice, p.Quantity, p.Unit, photo, time.Now())
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	s.publish(ctx, ownerID, CollectionProducts)
	return id, nil
}

// UpdateProduct applies a partial patch to one of the owner's products.
func (s *Syncer) UpdateProduct(ctx context.Context, ownerID, productID int64, patch ProductPatch) error {
	var clauses []string
	var args []interface{}

	if patch.Name != nil {
		clauses = append(clauses, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.UnitPrice != nil {
		clauses = append(clauses, "unit_price = ?")
		args = append(args, *patch.UnitPrice)
	}
	if patch.Quantity != nil {
		clauses = append(clauses, "quantity = ?")
		args = append(args, *patch.Quantity)
	}
	if patch.Unit != nil {
		clauses = append(clauses, "unit = ?")
		args = append(args, *patch.Unit)
	}
	if patch.PhotoURL != nil {
		clauses = append(clauses, "photo_url = ?")
		args = append(args, *patch.PhotoURL)
	}
	if len(clauses) == 0 {
		return ErrNoFields
	}

	query := "UPDATE products SET " + strings.Join(clauses, ", ") + " WHERE id = ? AND owner_id = ?"
	args = append(args, productID, ownerID)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	s.publish(ctx, ownerID, CollectionProducts)
	return nil
}

// DeleteProduct removes one of the owner's products.
func (s *Syncer) DeleteProduct(ctx context.Context, ownerID, productID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ? AND owner_id = ?", productID, ownerID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	s.publish(ctx, ownerID, CollectionProducts)
	return nil
}

//
// --- Customers ---
//

// CustomerPatch is a partial-field update; nil fields are left untouched.
type CustomerPatch struct {
	Name          *string
	Address       *string
	ContactNumber *string
}

// AddCustomer inserts a customer for the owner and returns its new ID.
func (s *Syncer) AddCustomer(ctx context.Context, ownerID int64, c *models.Customer) (int64, error) {
	query := `
		INSERT INTO customers (owner_id, name, address, contact_number, created_at)
		VALUES (?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query, ownerID, c.Name, c.Address, c.ContactNumber, time.Now())
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	s.publish(ctx, ownerID, CollectionCustomers)
	return id, nil
}

// UpdateCustomer applies a partial patch to one of the owner's customers.
func (s *Syncer) UpdateCustomer(ctx context.Context, ownerID, customerID int64, patch CustomerPatch) error {
	var clauses []string
	var args []interface{}

	if patch.Name != nil {
		clauses = append(clauses, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Address != nil {
		clauses = append(clauses, "address = ?")
		args = append(args, *patch.Address)
	}
	if patch.ContactNumber != nil {
		clauses = append(clauses, "contact_number = ?")
		args = append(args, *patch.ContactNumber)
	}
	if len(clauses) == 0 {
		return ErrNoFields
	}

	query := "UPDATE customers SET " + strings.Join(clauses, ", ") + " WHERE id = ? AND owner_id = ?"
	args = append(args, customerID, ownerID)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	s.publish(ctx, ownerID, CollectionCustomers)
	return nil
}

// DeleteCustomer removes a customer AND every order referencing it, in one
// transaction. Either both deletes commit or neither does.
func (s *Syncer) DeleteCustomer(ctx context.Context, ownerID, customerID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Safety net

	// 1. Cascade: remove the customer's orders first.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM daily_orders WHERE customer_id = ? AND owner_id = ?",
		customerID, ownerID); err != nil {
		return err
	}

	// 2. Remove the customer itself.
	result, err := tx.ExecContext(ctx,
		"DELETE FROM customers WHERE id = ? AND owner_id = ?",
		customerID, ownerID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound // rolls back the cascade via the deferred Rollback
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	// Both collections changed.
	s.publish(ctx, ownerID, CollectionCustomers)
	s.publish(ctx, ownerID, CollectionOrders)
	return nil
}

//
// --- Orders ---
//

// OrderPatch is a partial-field update; nil fields are left untouched.
// Setting CustomerID refreshes the denormalized customer name; setting
// Items recomputes every line total and the order total.
type OrderPatch struct {
	CustomerID *int64
	Date       *string
	Items      []models.OrderItem
	AmountPaid *float64
	Status     *string
}

// computeTotals fills in each line total and returns the order total.
// Totals are always derived here, never accepted from the caller.
func computeTotals(items []models.OrderItem) float64 {
	var total float64
	for i := range items {
		items[i].Total = items[i].Quantity * items[i].UnitPrice
		total += items[i].Total
	}
	return total
}

// customerName resolves the owner's customer name for denormalization.
func (s *Syncer) customerName(ctx context.Context, ownerID, customerID int64) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM customers WHERE id = ? AND owner_id = ?",
		customerID, ownerID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// AddOrder inserts an order for the owner and returns its new ID. The
// order's CustomerName, line totals and TotalAmount are computed here.
func (s *Syncer) AddOrder(ctx context.Context, ownerID int64, o *models.Order) (int64, error) {
	name, err := s.customerName(ctx, ownerID, o.CustomerID)
	if err != nil {
		return 0, err
	}
	o.CustomerName = name
	o.TotalAmount = computeTotals(o.Items)

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO daily_orders
		(owner_id, customer_id, customer_name, order_date, items, total_amount, amount_paid, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		ownerID, o.CustomerID, o.CustomerName, o.Date, itemsJSON, o.TotalAmount, o.AmountPaid, o.Status, time.Now())
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	s.publish(ctx, ownerID, CollectionOrders)
	return id, nil
}

// UpdateOrder applies a partial patch to one of the owner's orders.
func (s *Syncer) UpdateOrder(ctx context.Context, ownerID, orderID int64, patch OrderPatch) error {
	var clauses []string
	var args []interface{}

	if patch.CustomerID != nil {
		name, err := s.customerName(ctx, ownerID, *patch.CustomerID)
		if err != nil {
			return err
		}
		clauses = append(clauses, "customer_id = ?", "customer_name = ?")
		args = append(args, *patch.CustomerID, name)
	}
	if patch.Date != nil {
		clauses = append(clauses, "order_date = ?")
		args = append(args, *patch.Date)
	}
	if patch.Items != nil {
		total := computeTotals(patch.Items)
		itemsJSON, err := json.Marshal(patch.Items)
		if err != nil {
			return err
		}
		clauses = append(clauses, "items = ?", "total_amount = ?")
		args = append(args, itemsJSON, total)
	}
	if patch.AmountPaid != nil {
		clauses = append(clauses, "amount_paid = ?")
		args = append(args, *patch.AmountPaid)
	}
	if patch.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, *patch.Status)
	}
	if len(clauses) == 0 {
		return ErrNoFields
	}

	query := "UPDATE daily_orders SET " + strings.Join(clauses, ", ") + " WHERE id = ? AND owner_id = ?"
	args = append(args, orderID, ownerID)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	s.publish(ctx, ownerID, CollectionOrders)
	return nil
}

// DeleteOrder removes one of the owner's orders.
func (s *Syncer) DeleteOrder(ctx context.Context, ownerID, orderID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM daily_orders WHERE id = ? AND owner_id = ?", orderID, ownerID)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	s.publish(ctx, ownerID, CollectionOrders)
	return nil
}
