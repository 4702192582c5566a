package mirror

import (
	"errors"
	"sort"
	"sync"

	"github.com/dairydesk/dairydesk-golang/internal/models"
)

// Set holds one owner's in-memory mirrors of the three collections.
// Each mirror is replaced in full whenever its collection changes; readers
// always get a consistent snapshot copy.
type Set struct {
	ownerID int64

	mu        sync.RWMutex
	products  []models.Product
	customers []models.Customer
	orders    []models.Order
	errMsg    string

	subsMu  sync.Mutex
	subs    map[int]chan struct{}
	nextSub int

	stop func()
}

func newSet(ownerID int64) *Set {
	return &Set{
		ownerID: ownerID,
		subs:    make(map[int]chan struct{}),
	}
}

// OwnerID returns the identity this set is scoped to.
func (s *Set) OwnerID() int64 {
	return s.ownerID
}

// Err returns the stored subscription/reload error, if any. A non-nil
// error means the mirrors can no longer be trusted.
func (s *Set) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.errMsg != "" {
		return errors.New(s.errMsg)
	}
	return nil
}

// Products returns a snapshot of the product mirror,
// sorted by creation time ascending.
func (s *Set) Products() ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.errMsg != "" {
		return nil, errors.New(s.errMsg)
	}
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// Customers returns a snapshot of the customer mirror,
// sorted by creation time ascending.
func (s *Set) Customers() ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.errMsg != "" {
		return nil, errors.New(s.errMsg)
	}
	out := make([]models.Customer, len(s.customers))
	copy(out, s.customers)
	return out, nil
}

// Orders returns a snapshot of the order mirror, sorted by date descending
// with newest-created first within a date.
func (s *Set) Orders() ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.errMsg != "" {
		return nil, errors.New(s.errMsg)
	}
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out, nil
}

// Subscribe registers a change listener. The returned channel receives a
// signal after every mirror replacement; the cancel function removes the
// listener. The channel has a buffer of one, so a slow consumer coalesces
// bursts instead of blocking the sync loop.
func (s *Set) Subscribe() (<-chan struct{}, func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	cancel := func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
	return ch, cancel
}

// broadcast wakes every listener without blocking.
func (s *Set) broadcast() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Set) replaceProducts(products []models.Product) {
	sortProducts(products)
	s.mu.Lock()
	s.products = products
	s.errMsg = ""
	s.mu.Unlock()
	s.broadcast()
}

func (s *Set) replaceCustomers(customers []models.Customer) {
	sortCustomers(customers)
	s.mu.Lock()
	s.customers = customers
	s.errMsg = ""
	s.mu.Unlock()
	s.broadcast()
}

func (s *Set) replaceOrders(orders []models.Order) {
	sortOrders(orders)
	s.mu.Lock()
	s.orders = orders
	s.errMsg = ""
	s.mu.Unlock()
	s.broadcast()
}

// fail records a reload error. The whole set is considered broken until a
// later reload succeeds; there is no per-collection error state.
func (s *Set) fail(err error) {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
	s.broadcast()
}

// Mirrors are sorted in the application after every replacement.

func sortProducts(products []models.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
}

func sortCustomers(customers []models.Customer) {
	sort.SliceStable(customers, func(i, j int) bool {
		return customers[i].CreatedAt.Before(customers[j].CreatedAt)
	})
}

func sortOrders(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].Date != orders[j].Date {
			return orders[i].Date > orders[j].Date
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
