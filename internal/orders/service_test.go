package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesa-ops/mesa/internal/platform/httpx"
)

type mockRepository struct {
	orders map[uuid.UUID]Order

	createErr     error
	transitionErr error

	transitions []transitionCall
}

type transitionCall struct {
	id       uuid.UUID
	from, to Status
	by       uuid.UUID
	reason   *string
}

func newMockRepository() *mockRepository {
	return &mockRepository{orders: make(map[uuid.UUID]Order)}
}

func (m *mockRepository) List(ctx context.Context, filters ListFilters) ([]OrderWithClient, int, error) {
	var out []OrderWithClient
	for _, o := range m.orders {
		if filters.Status != "" && o.Status != filters.Status {
			continue
		}
		if filters.ClientID != nil && o.ClientID != *filters.ClientID {
			continue
		}
		out = append(out, OrderWithClient{Order: o, ClientName: "ACME"})
	}
	return out, len(out), nil
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return Order{}, httpx.ErrNotFound
	}
	return o, nil
}

func (m *mockRepository) Create(ctx context.Context, order Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockRepository) UpdatePending(ctx context.Context, order Order) error {
	current, ok := m.orders[order.ID]
	if !ok || current.Status != StatusPendiente {
		return httpx.ErrConflict
	}
	current.Notes = order.Notes
	if order.Items != nil {
		current.Items = order.Items
	}
	m.orders[order.ID] = current
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	o, ok := m.orders[id]
	if !ok || o.Status != StatusPendiente {
		return httpx.ErrConflict
	}
	delete(m.orders, id)
	return nil
}

func (m *mockRepository) Transition(ctx context.Context, id uuid.UUID, from, to Status, by uuid.UUID, reason *string) error {
	if m.transitionErr != nil {
		return m.transitionErr
	}
	o, ok := m.orders[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if o.Status != from {
		return httpx.ErrConflict
	}
	o.Status = to
	o.RejectReason = reason
	m.orders[id] = o
	m.transitions = append(m.transitions, transitionCall{id: id, from: from, to: to, by: by, reason: reason})
	return nil
}

func (m *mockRepository) FillItems(ctx context.Context, orderID uuid.UUID, prices map[uuid.UUID]float64) error {
	o, ok := m.orders[orderID]
	if !ok {
		return httpx.ErrNotFound
	}
	for i := range o.Items {
		if price, ok := prices[o.Items[i].ID]; ok {
			p := price
			o.Items[i].ExecutedPrice = &p
		}
	}
	m.orders[orderID] = o
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func validCreateRequest(clientID uuid.UUID) CreateOrderRequest {
	limit := 120.5
	return CreateOrderRequest{
		ClientID: clientID,
		Notes:    "por teléfono",
		Items: []CreateItemRequest{
			{AssetID: uuid.New(), Side: "compra", Quantity: 100, LimitPrice: &limit},
			{AssetID: uuid.New(), Side: "venta", Quantity: 50},
		},
	}
}

func TestCreateStartsPending(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	trader := uuid.New()

	order, err := svc.Create(context.Background(), validCreateRequest(uuid.New()), trader)
	require.NoError(t, err)

	assert.Equal(t, StatusPendiente, order.Status)
	assert.Equal(t, trader, order.CreatedBy)
	require.Len(t, order.Items, 2)
	for _, it := range order.Items {
		assert.Equal(t, order.ID, it.OrderID)
		assert.NotEqual(t, uuid.Nil, it.ID)
	}
}

func TestCreatePropagatesRepoError(t *testing.T) {
	repo := newMockRepository()
	repo.createErr = errors.New("connection refused")
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), validCreateRequest(uuid.New()), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.createErr)
}

func TestUpdateOnlyWhilePending(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), validCreateRequest(uuid.New()), uuid.New())
	require.NoError(t, err)

	notes := "cliente confirmó por mail"
	updated, err := svc.Update(context.Background(), order.ID, UpdateOrderRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.Len(t, updated.Items, 2, "items untouched when not sent")

	// Once taken by the desk the order is frozen.
	require.NoError(t, repo.Transition(context.Background(), order.ID, StatusPendiente, StatusEnProceso, uuid.New(), nil))
	_, err = svc.Update(context.Background(), order.ID, UpdateOrderRequest{Notes: &notes})
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestUpdateReplacesItems(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), validCreateRequest(uuid.New()), uuid.New())
	require.NoError(t, err)

	items := []CreateItemRequest{{AssetID: uuid.New(), Side: "venta", Quantity: 10}}
	updated, err := svc.Update(context.Background(), order.ID, UpdateOrderRequest{Items: &items})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, SideVenta, updated.Items[0].Side)
	assert.Equal(t, order.ID, updated.Items[0].OrderID)
}

func TestUpdateMissingOrder(t *testing.T) {
	svc := newTestService(newMockRepository())

	notes := "x"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateOrderRequest{Notes: &notes})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCancelPendingOrder(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)
	by := uuid.New()

	order, err := svc.Create(context.Background(), validCreateRequest(uuid.New()), uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), order.ID, by))
	got, err := repo.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelada, got.Status)
}

func TestCancelConflictsOnceInProcess(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), validCreateRequest(uuid.New()), uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Transition(context.Background(), order.ID, StatusPendiente, StatusEnProceso, uuid.New(), nil))

	err = svc.Cancel(context.Background(), order.ID, uuid.New())
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestDeletePendingOnly(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), validCreateRequest(uuid.New()), uuid.New())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), order.ID))
	_, err = repo.Get(context.Background(), order.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	other, err := svc.Create(context.Background(), validCreateRequest(uuid.New()), uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Transition(context.Background(), other.ID, StatusPendiente, StatusEnProceso, uuid.New(), nil))
	assert.ErrorIs(t, svc.Delete(context.Background(), other.ID), httpx.ErrConflict)
}

func TestWorkflowTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusPendiente, StatusEnProceso, true},
		{StatusPendiente, StatusCancelada, true},
		{StatusPendiente, StatusCompletada, false},
		{StatusEnProceso, StatusCompletada, true},
		{StatusEnProceso, StatusRechazada, true},
		{StatusEnProceso, StatusCancelada, false},
		{StatusCompletada, StatusPendiente, false},
		{StatusCancelada, StatusEnProceso, false},
		{StatusRechazada, StatusEnProceso, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}
