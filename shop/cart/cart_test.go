package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstonic/Fish-bot/shop/moltin"
)

type fakeBackend struct {
	mu      sync.Mutex
	carts   []moltin.CartRef
	items   map[string][]moltin.CartItem
	creates int
	listErr error
}

func (f *fakeBackend) CustomerToken(_ context.Context, email string) (string, error) {
	return "tok:" + email, nil
}

func (f *fakeBackend) ListCustomerCarts(_ context.Context, _ string) ([]moltin.CartRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]moltin.CartRef(nil), f.carts...), nil
}

func (f *fakeBackend) CreateCart(_ context.Context, _ string) (moltin.CartRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	ref := moltin.CartRef{ID: fmt.Sprintf("cart-%d", f.creates), Name: "Cart"}
	f.carts = append(f.carts, ref)
	return ref, nil
}

func (f *fakeBackend) GetCartItems(_ context.Context, cartID string) ([]moltin.CartItem, error) {
	return f.items[cartID], nil
}

func TestResolveCurrentCartCreatesOnce(t *testing.T) {
	backend := &fakeBackend{}
	r := NewResolver(backend)
	ctx := context.Background()

	first, err := r.ResolveCurrentCart(ctx, "a@b.c")
	require.NoError(t, err)
	second, err := r.ResolveCurrentCart(ctx, "a@b.c")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.creates)
}

func TestResolveCurrentCartUsesFirstExisting(t *testing.T) {
	backend := &fakeBackend{carts: []moltin.CartRef{{ID: "x"}, {ID: "y"}}}
	id, err := NewResolver(backend).ResolveCurrentCart(context.Background(), "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "x", id)
	assert.Zero(t, backend.creates)
}

func TestResolveCurrentCartPropagatesErrors(t *testing.T) {
	boom := &moltin.RemoteAPIError{Op: "list_carts", Status: 500, Message: "down"}
	backend := &fakeBackend{listErr: boom}
	_, err := NewResolver(backend).ResolveCurrentCart(context.Background(), "a@b.c")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Zero(t, backend.creates)
}

func TestLoadAndTotal(t *testing.T) {
	backend := &fakeBackend{items: map[string][]moltin.CartItem{
		"c1": {
			{ID: "i1", ProductID: "p1", Name: "Лосось", Quantity: 5, UnitPrice: 125000},
			{ID: "i2", ProductID: "p2", Name: "Форель", Quantity: 1, UnitPrice: 99950},
		},
	}}
	cart, err := NewResolver(backend).Load(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	var sum int64
	for _, it := range cart.Items {
		assert.Equal(t, it.UnitPrice*int64(it.Quantity), it.LineTotal)
		sum += it.LineTotal
	}
	assert.Equal(t, sum, cart.Total())
	assert.EqualValues(t, 724950, cart.Total())
}

func TestRenderEmpty(t *testing.T) {
	want := "Ваша корзина:\n\nВаша корзина пуста\n\nОбщая стоимость: 0₽"
	assert.Equal(t, want, Render(nil).Text)
	assert.Equal(t, want, Render(&Cart{ID: "c1"}).Text)
	assert.Zero(t, Render(nil).Total)
}

func TestRenderItems(t *testing.T) {
	c := &Cart{ID: "c1", Items: []LineItem{
		{Name: "Лосось", Quantity: 5, UnitPrice: 125000, LineTotal: 625000},
		{Name: "Форель", Quantity: 1, UnitPrice: 99950, LineTotal: 99950},
	}}
	want := "Ваша корзина:\n\n" +
		"Лосось - 5кг\nЦена: 1250₽\nСумма: 6250₽\n\n" +
		"Форель - 1кг\nЦена: 999.50₽\nСумма: 999.50₽\n\n" +
		"Общая стоимость: 7249.50₽"
	v := Render(c)
	assert.Equal(t, want, v.Text)
	assert.EqualValues(t, 724950, v.Total)
}

func TestFormatMoney(t *testing.T) {
	cases := map[int64]string{
		0:      "0",
		100:    "1",
		1250:   "12.50",
		125000: "1250",
		5:      "0.05",
		-150:   "-1.50",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(in), "minor=%d", in)
	}
}
