package orders

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

type memoryRepo struct {
	orders      map[int64]Order
	items       map[int64]LineItem
	tables      map[int64]Table
	nextID      int64
	failTotals  bool
	recomputeNo int
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: map[int64]Order{}, items: map[int64]LineItem{}, tables: map[int64]Table{}}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	orders := make(map[int64]Order, len(r.orders))
	for k, v := range r.orders {
		orders[k] = v
	}
	items := make(map[int64]LineItem, len(r.items))
	for k, v := range r.items {
		items[k] = v
	}
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.orders, r.items = orders, items
		return err
	}
	return nil
}

func (r *memoryRepo) itemsOf(orderID int64) []LineItem {
	var out []LineItem
	for _, it := range r.items {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memoryRepo) GetOrder(_ context.Context, id int64) (Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return Order{}, shared.NewNotFoundError("order", id)
	}
	o.Items = r.itemsOf(id)
	return o, nil
}

func (r *memoryRepo) ListOrders(_ context.Context, filter ListFilter) ([]Order, int, error) {
	var out []Order
	for _, o := range r.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (r *memoryRepo) DeleteOrder(_ context.Context, id int64) error {
	if _, ok := r.orders[id]; !ok {
		return shared.NewNotFoundError("order", id)
	}
	delete(r.orders, id)
	for itemID, it := range r.items {
		if it.OrderID == id {
			delete(r.items, itemID)
		}
	}
	return nil
}

func (r *memoryRepo) CreateTable(_ context.Context, in TableInput) (Table, error) {
	for _, t := range r.tables {
		if t.Number == in.Number {
			return Table{}, shared.ErrConflict
		}
	}
	r.nextID++
	t := Table{ID: r.nextID, Number: in.Number, Capacity: in.Capacity}
	r.tables[t.ID] = t
	return t, nil
}

func (r *memoryRepo) ListTables(context.Context) ([]Table, error) {
	var out []Table
	for _, t := range r.tables {
		out = append(out, t)
	}
	return out, nil
}

func (r *memoryRepo) SetTableOccupied(_ context.Context, id int64, occupied bool) (Table, error) {
	t, ok := r.tables[id]
	if !ok {
		return Table{}, shared.NewNotFoundError("table", id)
	}
	t.IsOccupied = occupied
	r.tables[id] = t
	return t, nil
}

func (tx *memoryTx) InsertOrder(_ context.Context, o Order) (Order, error) {
	tx.repo.nextID++
	o.ID = tx.repo.nextID
	o.CreatedAt = time.Now()
	tx.repo.orders[o.ID] = o
	return o, nil
}

func (tx *memoryTx) LockOrder(_ context.Context, id int64) (Order, error) {
	o, ok := tx.repo.orders[id]
	if !ok {
		return Order{}, shared.NewNotFoundError("order", id)
	}
	return o, nil
}

func (tx *memoryTx) ListItems(_ context.Context, orderID int64) ([]LineItem, error) {
	return tx.repo.itemsOf(orderID), nil
}

func (tx *memoryTx) GetItem(_ context.Context, orderID, itemID int64) (LineItem, error) {
	it, ok := tx.repo.items[itemID]
	if !ok || it.OrderID != orderID {
		return LineItem{}, shared.NewNotFoundError("order item", itemID)
	}
	return it, nil
}

func (tx *memoryTx) InsertItem(_ context.Context, it LineItem) (LineItem, error) {
	tx.repo.nextID++
	it.ID = tx.repo.nextID
	tx.repo.items[it.ID] = it
	return it, nil
}

func (tx *memoryTx) UpdateItem(_ context.Context, it LineItem) (LineItem, error) {
	tx.repo.items[it.ID] = it
	return it, nil
}

func (tx *memoryTx) DeleteItem(_ context.Context, orderID, itemID int64) error {
	it, ok := tx.repo.items[itemID]
	if !ok || it.OrderID != orderID {
		return shared.NewNotFoundError("order item", itemID)
	}
	delete(tx.repo.items, itemID)
	return nil
}

func (tx *memoryTx) UpdateTotals(_ context.Context, orderID int64, totals Totals) error {
	if tx.repo.failTotals {
		return errors.New("disk full")
	}
	o := tx.repo.orders[orderID]
	o.Subtotal, o.Tax, o.Total = totals.Subtotal, totals.Tax, totals.Total
	tx.repo.orders[orderID] = o
	tx.repo.recomputeNo++
	return nil
}

func (tx *memoryTx) UpdateStatus(_ context.Context, orderID int64, status Status, completedAt *time.Time) error {
	o := tx.repo.orders[orderID]
	o.Status = status
	if completedAt != nil {
		o.CompletedAt = completedAt
	}
	tx.repo.orders[orderID] = o
	return nil
}

func (tx *memoryTx) UpdatePayment(_ context.Context, orderID int64, status PaymentStatus, method *PaymentMethod) error {
	o := tx.repo.orders[orderID]
	o.PaymentStatus = status
	if method != nil {
		o.PaymentMethod = method
	}
	tx.repo.orders[orderID] = o
	return nil
}

type stubMenu map[int64]struct {
	price     string
	available bool
}

func (m stubMenu) PriceOf(_ context.Context, id int64) (decimal.Decimal, bool, error) {
	it, ok := m[id]
	if !ok {
		return decimal.Zero, false, shared.NewNotFoundError("menu item", id)
	}
	return decimal.RequireFromString(it.price), it.available, nil
}

type countingMetrics struct{ n int }

func (c *countingMetrics) RecordOrderRecompute() { c.n++ }

type recordingAudit struct{ logs []shared.AuditLog }

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(repo *memoryRepo) (*Service, *countingMetrics) {
	menu := stubMenu{
		1: {price: "10.00", available: true},
		2: {price: "5.00", available: true},
		3: {price: "8.00", available: false},
	}
	metrics := &countingMetrics{}
	return NewService(repo, menu, nil, ServiceConfig{TaxRate: d("0.10"), Metrics: metrics}), metrics
}

func requireTotals(t *testing.T, o Order, subtotal, tax, total string) {
	t.Helper()
	require.Equal(t, subtotal, o.Subtotal.StringFixed(2), "subtotal")
	require.Equal(t, tax, o.Tax.StringFixed(2), "tax")
	require.Equal(t, total, o.Total.StringFixed(2), "total")
}

func TestCreateOrderWithItemsRecomputesTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc, metrics := newTestService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Rossi",
		Items:        []ItemInput{{MenuItemID: 1, Quantity: 2}, {MenuItemID: 2, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, PaymentUnpaid, order.PaymentStatus)
	require.Regexp(t, `^ORD-[0-9A-F]{6}$`, order.OrderNumber)
	require.Len(t, order.Items, 2)
	requireTotals(t, order, "25.00", "2.50", "27.50")
	require.Equal(t, 1, metrics.n)

	stored, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	requireTotals(t, stored, "25.00", "2.50", "27.50")
}

func TestCreateEmptyOrderHasZeroTotals(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{})
	require.NoError(t, err)
	requireTotals(t, order, "0.00", "0.00", "0.00")
	require.Empty(t, order.Items)
}

func TestItemMutationsKeepTotalsConsistent(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{})
	require.NoError(t, err)

	order, err = svc.AddItem(ctx, order.ID, ItemInput{MenuItemID: 1, Quantity: 2})
	require.NoError(t, err)
	requireTotals(t, order, "20.00", "2.00", "22.00")

	override := d("4.50")
	order, err = svc.AddItem(ctx, order.ID, ItemInput{MenuItemID: 2, Quantity: 2, UnitPrice: &override})
	require.NoError(t, err)
	requireTotals(t, order, "29.00", "2.90", "31.90")
	require.Equal(t, "4.50", order.Items[1].UnitPrice.StringFixed(2))

	first := order.Items[0]
	order, err = svc.UpdateItem(ctx, order.ID, first.ID, ItemInput{MenuItemID: 1, Quantity: 1})
	require.NoError(t, err)
	requireTotals(t, order, "19.00", "1.90", "20.90")

	order, err = svc.RemoveItem(ctx, order.ID, first.ID)
	require.NoError(t, err)
	requireTotals(t, order, "9.00", "0.90", "9.90")
	require.Len(t, order.Items, 1)

	sum := decimal.Zero
	for _, it := range order.Items {
		sum = sum.Add(it.Subtotal)
	}
	require.True(t, sum.Equal(order.Subtotal))
}

func TestItemValidation(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, CreateOrderInput{})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, order.ID, ItemInput{MenuItemID: 1, Quantity: 0})
	require.ErrorIs(t, err, shared.ErrValidation)

	negative := d("-1")
	_, err = svc.AddItem(ctx, order.ID, ItemInput{MenuItemID: 1, Quantity: 1, UnitPrice: &negative})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.AddItem(ctx, order.ID, ItemInput{MenuItemID: 3, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.AddItem(ctx, order.ID, ItemInput{MenuItemID: 99, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.AddItem(ctx, 404, ItemInput{MenuItemID: 1, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFailedRecomputeRollsBackItem(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, CreateOrderInput{Items: []ItemInput{{MenuItemID: 1, Quantity: 1}}})
	require.NoError(t, err)

	repo.failTotals = true
	_, err = svc.AddItem(ctx, order.ID, ItemInput{MenuItemID: 2, Quantity: 3})
	require.Error(t, err)

	stored, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	requireTotals(t, stored, "10.00", "1.00", "11.00")
}

func TestUpdateStatusStampsCompletion(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)
	fixed := time.Date(2024, 3, 9, 20, 15, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{Items: []ItemInput{{MenuItemID: 1, Quantity: 1}}})
	require.NoError(t, err)

	for _, st := range []Status{StatusPreparing, StatusReady, StatusServed} {
		order, err = svc.UpdateStatus(ctx, order.ID, st)
		require.NoError(t, err)
		require.Nil(t, order.CompletedAt)
	}
	order, err = svc.UpdateStatus(ctx, order.ID, StatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, order.CompletedAt)
	require.True(t, order.CompletedAt.Equal(fixed))

	_, err = svc.UpdateStatus(ctx, order.ID, StatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.AddItem(ctx, order.ID, ItemInput{MenuItemID: 1, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.UpdateStatus(ctx, order.ID, Status("EATEN"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCancelFromNonTerminal(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, CreateOrderInput{})
	require.NoError(t, err)

	order, err = svc.UpdateStatus(ctx, order.ID, StatusCancelled)
	require.NoError(t, err)
	require.Nil(t, order.CompletedAt)

	_, err = svc.UpdateStatus(ctx, order.ID, StatusPending)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdatePayment(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()
	order, err := svc.CreateOrder(ctx, CreateOrderInput{})
	require.NoError(t, err)

	_, err = svc.UpdatePayment(ctx, order.ID, PaymentInput{Status: PaymentPaid})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.UpdatePayment(ctx, order.ID, PaymentInput{Status: PaymentRefunded})
	require.ErrorIs(t, err, shared.ErrValidation)

	card := PaymentCard
	order, err = svc.UpdatePayment(ctx, order.ID, PaymentInput{Status: PaymentPaid, Method: &card})
	require.NoError(t, err)
	require.Equal(t, PaymentPaid, order.PaymentStatus)
	require.Equal(t, PaymentCard, *order.PaymentMethod)

	order, err = svc.UpdatePayment(ctx, order.ID, PaymentInput{Status: PaymentRefunded})
	require.NoError(t, err)
	require.Equal(t, PaymentRefunded, order.PaymentStatus)
}

func TestDeleteOrderCascadesItemsAndAudits(t *testing.T) {
	repo := newMemoryRepo()
	audit := &recordingAudit{}
	svc := NewService(repo, stubMenu{1: {price: "10.00", available: true}}, audit, ServiceConfig{TaxRate: d("0.10")})
	ctx := shared.ContextWithActor(context.Background(), 7)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{Items: []ItemInput{{MenuItemID: 1, Quantity: 1}}})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, order.ID))
	require.Empty(t, repo.items)

	_, err = svc.Get(ctx, order.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.Len(t, audit.logs, 2)
	require.Equal(t, shared.AuditCreate, audit.logs[0].Action)
	require.Equal(t, shared.AuditDelete, audit.logs[1].Action)
	require.Equal(t, int64(7), audit.logs[1].ActorID)
}

func TestListValidatesFilters(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()
	_, _, err := svc.List(ctx, ListInput{Date: "09/03/2024"})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, _, err = svc.List(ctx, ListInput{Status: "LOST"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateOrder(ctx, CreateOrderInput{})
	require.NoError(t, err)
	list, page, err := svc.List(ctx, ListInput{Status: StatusPending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 1, page.Total)
	require.Equal(t, 1, page.TotalPages)
}

func TestCreateTableValidation(t *testing.T) {
	svc, _ := newTestService(newMemoryRepo())
	ctx := context.Background()
	_, err := svc.CreateTable(ctx, TableInput{Number: 1, Capacity: 0})
	require.ErrorIs(t, err, shared.ErrValidation)

	table, err := svc.CreateTable(ctx, TableInput{Number: 1, Capacity: 4})
	require.NoError(t, err)
	table, err = svc.SetTableOccupied(ctx, table.ID, true)
	require.NoError(t, err)
	require.True(t, table.IsOccupied)

	_, err = svc.CreateTable(ctx, TableInput{Number: 1, Capacity: 2})
	require.ErrorIs(t, err, shared.ErrConflict)
}
