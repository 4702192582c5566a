package mirror

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dairydesk/dairydesk-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNotifier is an in-process Notifier. Published collection names are
// recorded and, when wired, forwarded to the subscription channel.
type fakeNotifier struct {
	mu        sync.Mutex
	published []string
	events    chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{events: make(chan string, 16)}
}

func (f *fakeNotifier) Publish(ctx context.Context, ownerID int64, collection string) error {
	f.mu.Lock()
	f.published = append(f.published, collection)
	f.mu.Unlock()
	return nil
}

func (f *fakeNotifier) Subscribe(ctx context.Context, ownerID int64) (<-chan string, func(), error) {
	return f.events, func() { close(f.events) }, nil
}

func (f *fakeNotifier) publishedCollections() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.published))
	copy(out, f.published)
	return out
}

func productColumns() []string {
	return []string{"id", "owner_id", "name", "unit_price", "quantity", "unit", "photo_url", "created_at"}
}

func customerColumns() []string {
	return []string{"id", "owner_id", "name", "address", "contact_number", "created_at"}
}

func orderColumns() []string {
	return []string{"id", "owner_id", "customer_id", "customer_name", "order_date", "items", "total_amount", "amount_paid", "status", "created_at"}
}

// expectInitialLoad queues the three collection loads Open performs.
func expectInitialLoad(mock sqlmock.Sqlmock, ownerID int64) {
	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows(productColumns()).
			AddRow(1, ownerID, "Milk", 50.0, 20.0, "l", nil, time.Now()))
	mock.ExpectQuery("SELECT (.+) FROM customers").
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows(customerColumns()).
			AddRow(1, ownerID, "Asha", "12 Dairy Lane", "555-0101", time.Now()))
	mock.ExpectQuery("SELECT (.+) FROM daily_orders").
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow(1, ownerID, 1, "Asha", "2024-01-01", []byte(`[{"productId":1,"productName":"Milk","quantity":2,"unit":"l","unitPrice":50,"total":100}]`), 100.0, 80.0, "pending", time.Now()))
}

func TestSyncerOpenLoadsAllCollections(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	notifier := newFakeNotifier()
	syncer := NewSyncer(db, notifier)
	defer syncer.CloseAll()

	expectInitialLoad(mock, 7)

	set, err := syncer.Open(context.Background(), 7)
	require.NoError(t, err)

	products, err := set.Products()
	assert.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, "Milk", products[0].Name)

	customers, err := set.Customers()
	assert.NoError(t, err)
	assert.Len(t, customers, 1)

	orders, err := set.Orders()
	assert.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Milk", orders[0].Items[0].ProductName)
	assert.Equal(t, 100.0, orders[0].TotalAmount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncerOpenIsIdempotentPerOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	syncer := NewSyncer(db, newFakeNotifier())
	defer syncer.CloseAll()

	expectInitialLoad(mock, 7)

	first, err := syncer.Open(context.Background(), 7)
	require.NoError(t, err)
	second, err := syncer.Open(context.Background(), 7)
	require.NoError(t, err)

	// Same set, no second round of loads.
	assert.Same(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncerNotificationReplacesMirrorInFull(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	notifier := newFakeNotifier()
	syncer := NewSyncer(db, notifier)
	defer syncer.CloseAll()

	expectInitialLoad(mock, 7)

	set, err := syncer.Open(context.Background(), 7)
	require.NoError(t, err)

	// The reload triggered by the notification returns two orders.
	mock.ExpectQuery("SELECT (.+) FROM daily_orders").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow(1, 7, 1, "Asha", "2024-01-01", []byte(`[]`), 100.0, 80.0, "pending", time.Now()).
			AddRow(2, 7, 1, "Asha", "2024-01-02", []byte(`[]`), 50.0, 50.0, "delivered", time.Now()))

	notifier.events <- CollectionOrders

	assert.Eventually(t, func() bool {
		orders, err := set.Orders()
		return err == nil && len(orders) == 2
	}, time.Second, 10*time.Millisecond)

	// Client-side sort: newest date first.
	orders, err := set.Orders()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", orders[0].Date)
}

func TestSyncerReloadFailureBlocksReads(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	notifier := newFakeNotifier()
	syncer := NewSyncer(db, notifier)
	defer syncer.CloseAll()

	expectInitialLoad(mock, 7)

	set, err := syncer.Open(context.Background(), 7)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(int64(7)).
		WillReturnError(assert.AnError)

	notifier.events <- CollectionProducts

	assert.Eventually(t, func() bool {
		return set.Err() != nil
	}, time.Second, 10*time.Millisecond)

	_, err = set.Orders()
	assert.Error(t, err)
}

func TestSyncerAddProductWritesThroughAndPublishes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	notifier := newFakeNotifier()
	syncer := NewSyncer(db, notifier)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs(int64(7), "Milk", 50.0, 20.0, "l", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := syncer.AddProduct(context.Background(), 7, &models.Product{
		Name: "Milk", UnitPrice: 50, Quantity: 20, Unit: "l",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, []string{CollectionProducts}, notifier.publishedCollections())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncerUpdateProductPatchesOnlyGivenFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	notifier := newFakeNotifier()
	syncer := NewSyncer(db, notifier)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET unit_price = ? WHERE id = ? AND owner_id = ?")).
		WithArgs(60.0, int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	price := 60.0
	err = syncer.UpdateProduct(context.Background(), 7, 5, ProductPatch{UnitPrice: &price})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncerUpdateProductEmptyPatch(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	syncer := NewSyncer(db, newFakeNotifier())
	err = syncer.UpdateProduct(context.Background(), 7, 5, ProductPatch{})
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestSyncerDeleteProductUnknownIDIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	notifier := newFakeNotifier()
	syncer := NewSyncer(db, notifier)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = ? AND owner_id = ?")).
		WithArgs(int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = syncer.DeleteProduct(context.Background(), 7, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, notifier.publishedCollections())
}

func TestSyncerDeleteCustomerCascadesInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	notifier := newFakeNotifier()
	syncer := NewSyncer(db, notifier)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM daily_orders WHERE customer_id = ? AND owner_id = ?")).
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE id = ? AND owner_id = ?")).
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = syncer.DeleteCustomer(context.Background(), 7, 3)
	assert.NoError(t, err)
	assert.Equal(t, []string{CollectionCustomers, CollectionOrders}, notifier.publishedCollections())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncerDeleteCustomerMissingRollsBackCascade(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	notifier := newFakeNotifier()
	syncer := NewSyncer(db, notifier)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM daily_orders WHERE customer_id = ? AND owner_id = ?")).
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE id = ? AND owner_id = ?")).
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = syncer.DeleteCustomer(context.Background(), 7, 3)
	assert.ErrorIs(t, err, ErrNotFound)
	// Nothing committed, so nothing may be announced.
	assert.Empty(t, notifier.publishedCollections())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncerAddOrderComputesTotalsAndDenormalizesName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	notifier := newFakeNotifier()
	syncer := NewSyncer(db, notifier)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM customers WHERE id = ? AND owner_id = ?")).
		WithArgs(int64(3), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Asha"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO daily_orders")).
		WithArgs(int64(7), int64(3), "Asha", "2024-01-01", sqlmock.AnyArg(), 130.0, 100.0, "pending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(9, 1))

	order := &models.Order{
		CustomerID: 3,
		Date:       "2024-01-01",
		AmountPaid: 100,
		Status:     models.OrderPending,
		Items: []models.OrderItem{
			{ProductID: 1, ProductName: "Milk", Quantity: 2, Unit: "l", UnitPrice: 50},
			{ProductID: 2, ProductName: "Curd", Quantity: 1, Unit: "kg", UnitPrice: 30},
		},
	}

	id, err := syncer.AddOrder(context.Background(), 7, order)
	assert.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.Equal(t, "Asha", order.CustomerName)
	assert.Equal(t, 130.0, order.TotalAmount)
	assert.Equal(t, 100.0, order.Items[0].Total)
	assert.Equal(t, []string{CollectionOrders}, notifier.publishedCollections())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncerAddOrderUnknownCustomer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	syncer := NewSyncer(db, newFakeNotifier())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM customers WHERE id = ? AND owner_id = ?")).
		WithArgs(int64(3), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	_, err = syncer.AddOrder(context.Background(), 7, &models.Order{CustomerID: 3, Date: "2024-01-01"})
	assert.ErrorIs(t, err, ErrNotFound)
}
