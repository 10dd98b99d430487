package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/nstonic/Fish-bot/shop/cart"
	"github.com/nstonic/Fish-bot/shop/moltin"
)

type sent struct {
	ChatID  int64
	Text    string
	Photo   bool
	KB      Keyboard
	EditOf  int
	Deleted int
}

type fakeMessenger struct {
	mu        sync.Mutex
	nextID    int
	sent      []sent
	deleted   []int
	answers   []string
	sendErr   error
	deleteErr error
}

func (f *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string, kb Keyboard) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, &RemoteAPIError{Op: "send_message", Err: f.sendErr}
	}
	f.nextID++
	f.sent = append(f.sent, sent{ChatID: chatID, Text: text, KB: kb})
	return 100 + f.nextID, nil
}

func (f *fakeMessenger) SendPhoto(_ context.Context, chatID int64, _ []byte, caption string, kb Keyboard) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, sent{ChatID: chatID, Text: caption, Photo: true, KB: kb})
	return 100 + f.nextID, nil
}

func (f *fakeMessenger) EditMessage(_ context.Context, chatID int64, messageID int, text string, kb Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{ChatID: chatID, Text: text, KB: kb, EditOf: messageID})
	return nil
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeMessenger) last() sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeMessenger) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.Text)
	}
	return out
}

type fakeCommerce struct {
	mu          sync.Mutex
	products    []moltin.Product
	images      map[string][]byte
	customers   map[string]moltin.Customer
	added       []string
	removed     []string
	failList    error
	failProduct error
	// gate, when set, blocks GetProductWithPrice until closed.
	gate chan struct{}
}

func newFakeCommerce() *fakeCommerce {
	return &fakeCommerce{
		products: []moltin.Product{
			{ID: "p1", Name: "Лосось", Description: "Охлаждённый", SKU: "S1", UnitPrice: 125000},
			{ID: "p2", Name: "Форель", Description: "Речная", SKU: "T1", UnitPrice: 99950},
		},
		images:    map[string][]byte{"p1": []byte("JPEG")},
		customers: map[string]moltin.Customer{},
	}
}

func (f *fakeCommerce) ListProducts(context.Context) ([]moltin.Product, error) {
	if f.failList != nil {
		return nil, f.failList
	}
	return f.products, nil
}

func (f *fakeCommerce) GetProductWithPrice(_ context.Context, id string) (moltin.Product, error) {
	if f.gate != nil {
		<-f.gate
	}
	if f.failProduct != nil {
		return moltin.Product{}, f.failProduct
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return moltin.Product{}, &moltin.RemoteAPIError{Op: "get_product", Status: 404, Message: "Not Found"}
}

func (f *fakeCommerce) FetchImage(_ context.Context, id string) ([]byte, error) {
	return f.images[id], nil
}

func (f *fakeCommerce) CreateCustomer(_ context.Context, email string) (moltin.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := moltin.Customer{ID: fmt.Sprintf("cust-%d", len(f.customers)+1), Email: email}
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeCommerce) FindCustomerByEmail(_ context.Context, email string) (moltin.Customer, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.customers {
		if c.Email == email {
			return c, true, nil
		}
	}
	return moltin.Customer{}, false, nil
}

func (f *fakeCommerce) GetCustomer(_ context.Context, id string) (moltin.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return moltin.Customer{}, &moltin.RemoteAPIError{Op: "get_customer", Status: 404, Message: "Not Found"}
	}
	return c, nil
}

func (f *fakeCommerce) AddToCart(_ context.Context, cartID, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, fmt.Sprintf("%s:%s:%d", cartID, productID, qty))
	return nil
}

func (f *fakeCommerce) RemoveFromCart(_ context.Context, cartID, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, cartID+":"+itemID)
	return nil
}

type fakeCarts struct {
	mu      sync.Mutex
	byEmail map[string]string
	items   map[string][]cart.LineItem
}

func newFakeCarts() *fakeCarts {
	return &fakeCarts{byEmail: map[string]string{}, items: map[string][]cart.LineItem{}}
}

func (f *fakeCarts) ResolveCurrentCart(_ context.Context, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[email]
	if !ok {
		id = "cart-" + email
		f.byEmail[email] = id
	}
	return id, nil
}

func (f *fakeCarts) Load(_ context.Context, cartID string) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &cart.Cart{ID: cartID, Items: f.items[cartID]}, nil
}

type fakeAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (f *fakeAlerter) Alert(_ context.Context, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, text)
}

func (f *fakeAlerter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}
