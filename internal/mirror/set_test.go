package mirror

import (
	"testing"
	"time"

	"github.com/dairydesk/dairydesk-golang/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSetSortsProductsByCreationAscending(t *testing.T) {
	set := newSet(1)
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	set.replaceProducts([]models.Product{
		{ID: 3, Name: "Ghee", CreatedAt: base.Add(2 * time.Hour)},
		{ID: 1, Name: "Milk", CreatedAt: base},
		{ID: 2, Name: "Curd", CreatedAt: base.Add(time.Hour)},
	})

	products, err := set.Products()
	assert.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, []int64{products[0].ID, products[1].ID, products[2].ID})
}

func TestSetSortsOrdersByDateDescThenCreatedDesc(t *testing.T) {
	set := newSet(1)
	base := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)

	set.replaceOrders([]models.Order{
		{ID: 1, Date: "2024-01-01", CreatedAt: base},
		{ID: 2, Date: "2024-01-02", CreatedAt: base},
		{ID: 3, Date: "2024-01-02", CreatedAt: base.Add(time.Hour)},
	})

	orders, err := set.Orders()
	assert.NoError(t, err)
	// Latest date first; within 2024-01-02, the later-created order first.
	assert.Equal(t, []int64{3, 2, 1}, []int64{orders[0].ID, orders[1].ID, orders[2].ID})
}

func TestSetSnapshotIsACopy(t *testing.T) {
	set := newSet(1)
	set.replaceCustomers([]models.Customer{{ID: 1, Name: "Asha"}})

	customers, err := set.Customers()
	assert.NoError(t, err)
	customers[0].Name = "changed"

	again, err := set.Customers()
	assert.NoError(t, err)
	assert.Equal(t, "Asha", again[0].Name)
}

func TestSetSubscribeReceivesBroadcast(t *testing.T) {
	set := newSet(1)
	events, cancel := set.Subscribe()
	defer cancel()

	set.replaceProducts(nil)

	select {
	case <-events:
	case <-time.After(time.Second):
		t.Fatal("expected a change event after mirror replacement")
	}
}

func TestSetFailBlocksReadsUntilNextSuccessfulReload(t *testing.T) {
	set := newSet(1)
	set.replaceOrders([]models.Order{{ID: 1, Date: "2024-01-01"}})

	set.fail(assert.AnError)
	_, err := set.Orders()
	assert.Error(t, err)
	_, err = set.Products()
	assert.Error(t, err)

	// A later successful reload clears the error state.
	set.replaceOrders([]models.Order{{ID: 1, Date: "2024-01-01"}})
	orders, err := set.Orders()
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
}
