package mirror

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"sync"

	"github.com/dairydesk/dairydesk-golang/internal/models"
)

// Syncer owns every open mirror Set and keeps each one in step with the
// database. A Set is opened lazily on first use and stays subscribed until
// the owning identity logs out (or the process shuts down).
type Syncer struct {
	db       *sql.DB
	notifier Notifier

	mu   sync.Mutex
	sets map[int64]*Set
}

// NewSyncer returns a Syncer reading from db and listening on notifier.
func NewSyncer(db *sql.DB, notifier Notifier) *Syncer {
	return &Syncer{
		db:       db,
		notifier: notifier,
		sets:     make(map[int64]*Set),
	}
}

// Open returns the owner's mirror set, creating it on first use.
// Creation loads all three collections and subscribes to the owner's
// change channel; the subscription outlives the calling request.
func (s *Syncer) Open(ctx context.Context, ownerID int64) (*Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.sets[ownerID]; ok {
		return set, nil
	}

	set := newSet(ownerID)

	// Initial full load of all three collections.
	products, err := s.loadProducts(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	customers, err := s.loadCustomers(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	orders, err := s.loadOrders(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	set.replaceProducts(products)
	set.replaceCustomers(customers)
	set.replaceOrders(orders)

	// Subscribe on a background context: the subscription must survive
	// the request that happened to open the set.
	subCtx, cancel := context.WithCancel(context.Background())
	events, stopSub, err := s.notifier.Subscribe(subCtx, ownerID)
	if err != nil {
		cancel()
		return nil, err
	}
	set.stop = func() {
		stopSub()
		cancel()
	}

	go s.run(set, events)

	s.sets[ownerID] = set
	return set, nil
}

// Close tears down the owner's mirror set and its subscription.
// Called when the identity logs out.
func (s *Syncer) Close(ownerID int64) {
	s.mu.Lock()
	set, ok := s.sets[ownerID]
	if ok {
		delete(s.sets, ownerID)
	}
	s.mu.Unlock()

	if ok && set.stop != nil {
		set.stop()
	}
}

// CloseAll tears down every open set. Called on shutdown.
func (s *Syncer) CloseAll() {
	s.mu.Lock()
	sets := s.sets
	s.sets = make(map[int64]*Set)
	s.mu.Unlock()

	for _, set := range sets {
		if set.stop != nil {
			set.stop()
		}
	}
}

// run consumes change notifications for one set until its subscription
// channel closes. Every notification replaces the named mirror in full;
// there is no incremental diffing.
func (s *Syncer) run(set *Set, events <-chan string) {
	for collection := range events {
		s.reload(set, collection)
	}
}

func (s *Syncer) reload(set *Set, collection string) {
	ctx := context.Background()

	switch collection {
	case CollectionProducts:
		products, err := s.loadProducts(ctx, set.ownerID)
		if err != nil {
			set.fail(err)
			return
		}
		set.replaceProducts(products)
	case CollectionCustomers:
		customers, err := s.loadCustomers(ctx, set.ownerID)
		if err != nil {
			set.fail(err)
			return
		}
		set.replaceCustomers(customers)
	case CollectionOrders:
		orders, err := s.loadOrders(ctx, set.ownerID)
		if err != nil {
			set.fail(err)
			return
		}
		set.replaceOrders(orders)
	default:
		log.Printf("WARNING: ignoring change notification for unknown collection %q", collection)
	}
}

//
// --- Collection loaders ---
//

func (s *Syncer) loadProducts(ctx context.Context, ownerID int64) ([]models.Product, error) {
	query := `
		SELECT id, owner_id, name, unit_price, quantity, unit, photo_url, created_at
		FROM products
		WHERE owner_id = ?`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		var photo sql.NullString
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.UnitPrice, &p.Quantity, &p.Unit, &photo, &p.CreatedAt); err != nil {
			return nil, err
		}
		if photo.Valid {
			p.PhotoURL = &photo.String
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Syncer) loadCustomers(ctx context.Context, ownerID int64) ([]models.Customer, error) {
	query := `
		SELECT id, owner_id, name, address, contact_number, created_at
		FROM customers
		WHERE owner_id = ?`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Address, &c.ContactNumber, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Syncer) loadOrders(ctx context.Context, ownerID int64) ([]models.Order, error) {
	query := `
		SELECT id, owner_id, customer_id, customer_name, order_date, items, total_amount, amount_paid, status, created_at
		FROM daily_orders
		WHERE owner_id = ?`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var itemsJSON []byte
		if err := rows.Scan(&o.ID, &o.OwnerID, &o.CustomerID, &o.CustomerName, &o.Date, &itemsJSON, &o.TotalAmount, &o.AmountPaid, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		if len(itemsJSON) > 0 {
			if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
				return nil, err
			}
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
