package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstonic/Fish-bot/shop/cart"
	"github.com/nstonic/Fish-bot/shop/storage"
)

type harness struct {
	msg     *fakeMessenger
	com     *fakeCommerce
	carts   *fakeCarts
	store   storage.Store
	machine *Machine
}

func newHarness() *harness {
	h := &harness{
		msg:   &fakeMessenger{},
		com:   newFakeCommerce(),
		carts: newFakeCarts(),
		store: storage.NewMemory(),
	}
	h.machine = NewMachine(h.msg, h.com, h.carts, h.store)
	return h
}

func (h *harness) link(t *testing.T, userID int64, email string) {
	t.Helper()
	c, err := h.com.CreateCustomer(context.Background(), email)
	require.NoError(t, err)
	require.NoError(t, h.store.SetCustomerID(context.Background(), userID, c.ID))
}

func TestStepStartSendsMenu(t *testing.T) {
	h := newHarness()
	next, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateStart}, command("start"))
	require.NoError(t, err)

	assert.Equal(t, storage.StateBrowsingMenu, next.State)
	menu := h.msg.last()
	assert.Equal(t, textWelcome, menu.Text)
	require.Len(t, menu.KB, 3)
	assert.Equal(t, Button{Text: "Лосось", Data: "product|p1"}, menu.KB[0][0])
	assert.Equal(t, Button{Text: "Форель", Data: "product|p2"}, menu.KB[1][0])
	assert.Equal(t, Button{Text: btnCart, Data: "cart"}, menu.KB[2][0])
	assert.Equal(t, 101, next.ViewMessageID)
	assert.Empty(t, h.msg.deleted)
}

func TestStepShowProduct(t *testing.T) {
	h := newHarness()
	ev := cb("product|p1")
	ev.MessageID = 50
	ev.CallbackID = "cb1"

	next, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateBrowsingMenu, ViewMessageID: 50}, ev)
	require.NoError(t, err)
	assert.Equal(t, storage.StateViewingProduct, next.State)

	view := h.msg.last()
	assert.True(t, view.Photo)
	assert.Equal(t, "Лосось\n\nОхлаждённый\n\nЦена: 1250₽ за кг", view.Text)
	require.Len(t, view.KB, 2)
	assert.Equal(t, []Button{
		{Text: "1 кг", Data: "buy|p1|1"},
		{Text: "5 кг", Data: "buy|p1|5"},
		{Text: "10 кг", Data: "buy|p1|10"},
	}, view.KB[0])
	assert.Equal(t, Button{Text: btnBack, Data: "menu"}, view.KB[1][0])
	assert.Equal(t, []int{50}, h.msg.deleted)
	assert.Equal(t, []string{""}, h.msg.answers)
}

func TestStepProductWithoutImageSendsText(t *testing.T) {
	h := newHarness()
	_, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateBrowsingMenu}, cb("product|p2"))
	require.NoError(t, err)
	view := h.msg.last()
	assert.False(t, view.Photo)
	assert.Equal(t, "Форель\n\nРечная\n\nЦена: 999.50₽ за кг", view.Text)
}

func TestStepBuyWithoutIdentityAsksEmail(t *testing.T) {
	h := newHarness()
	next, err := h.machine.Step(context.Background(),
		storage.Session{State: storage.StateViewingProduct, ViewMessageID: 7}, cb("buy|p1|5"))
	require.NoError(t, err)

	assert.Equal(t, storage.StateAwaitingEmail, next.State)
	assert.Equal(t, "p1", next.ResumeProductID)
	assert.Equal(t, textAskEmail, h.msg.last().Text)
	assert.Empty(t, h.com.added)
}

func TestStepBuyWithIdentityAddsToCart(t *testing.T) {
	h := newHarness()
	h.link(t, 1, "ivan@example.com")
	ev := cb("buy|p1|5")
	ev.CallbackID = "cb"

	next, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateViewingProduct}, ev)
	require.NoError(t, err)

	assert.Equal(t, storage.StateBrowsingMenu, next.State)
	assert.Equal(t, []string{"cart-ivan@example.com:p1:5"}, h.com.added)
	assert.Equal(t, textWelcome, h.msg.last().Text)
	assert.Equal(t, []string{"Добавлено в корзину: 5 кг"}, h.msg.answers)
}

func TestStepEmptyCartText(t *testing.T) {
	h := newHarness()
	h.link(t, 1, "ivan@example.com")

	next, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateBrowsingMenu}, cb("cart"))
	require.NoError(t, err)

	assert.Equal(t, storage.StateViewingCart, next.State)
	view := h.msg.last()
	assert.Equal(t, "Ваша корзина:\n\nВаша корзина пуста\n\nОбщая стоимость: 0₽", view.Text)
	assert.Equal(t, Keyboard{{{Text: btnToMenu, Data: "menu"}}}, view.KB)
}

func TestStepCartWithoutIdentityIsEmpty(t *testing.T) {
	h := newHarness()
	_, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateBrowsingMenu}, cb("cart"))
	require.NoError(t, err)
	assert.Equal(t, "Ваша корзина:\n\nВаша корзина пуста\n\nОбщая стоимость: 0₽", h.msg.last().Text)
	assert.Empty(t, h.carts.byEmail)
}

func TestStepCartWithItems(t *testing.T) {
	h := newHarness()
	h.link(t, 1, "ivan@example.com")
	h.carts.items["cart-ivan@example.com"] = []cart.LineItem{
		{ID: "i1", Name: "Лосось", Quantity: 2, UnitPrice: 125000, LineTotal: 250000},
	}

	_, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateBrowsingMenu}, cb("cart"))
	require.NoError(t, err)
	view := h.msg.last()
	assert.Contains(t, view.Text, "Лосось - 2кг\nЦена: 1250₽\nСумма: 2500₽")
	assert.Equal(t, Keyboard{
		{{Text: "Убрать Лосось", Data: "remove|i1"}},
		{{Text: btnCheckout, Data: "checkout"}},
		{{Text: btnToMenu, Data: "menu"}},
	}, view.KB)
}

func TestStepRemoveEditsInPlace(t *testing.T) {
	h := newHarness()
	h.link(t, 1, "ivan@example.com")
	ev := cb("remove|i1")
	ev.MessageID = 33

	next, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateViewingCart, ViewMessageID: 33}, ev)
	require.NoError(t, err)

	assert.Equal(t, storage.Session{State: storage.StateViewingCart, ViewMessageID: 33}, next)
	assert.Equal(t, []string{"cart-ivan@example.com:i1"}, h.com.removed)
	assert.Equal(t, 33, h.msg.last().EditOf)
	assert.Empty(t, h.msg.deleted)
}

func TestStepCheckout(t *testing.T) {
	h := newHarness()
	next, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateViewingCart}, cb("checkout"))
	require.NoError(t, err)
	assert.Equal(t, storage.StateBrowsingMenu, next.State)
	assert.Equal(t, []string{textCheckout, textWelcome}, h.msg.texts())
}

func TestStepSubmitEmailResumesProduct(t *testing.T) {
	h := newHarness()
	sess := storage.Session{State: storage.StateAwaitingEmail, ResumeProductID: "p1", ViewMessageID: 9}

	next, err := h.machine.Step(context.Background(), sess, text("  ivan@example.com "))
	require.NoError(t, err)

	assert.Equal(t, storage.StateViewingProduct, next.State)
	assert.Empty(t, next.ResumeProductID)
	id, found, err := h.store.GetCustomerID(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "cust-1", id)

	texts := h.msg.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "Спасибо! Мы сохранили ваш e-mail: ivan@example.com", texts[0])
	assert.True(t, h.msg.last().Photo)
	assert.Equal(t, []int{9}, h.msg.deleted)
}

func TestStepSubmitEmailReusesExistingCustomer(t *testing.T) {
	h := newHarness()
	h.link(t, 2, "ivan@example.com")

	_, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateAwaitingEmail}, text("ivan@example.com"))
	require.NoError(t, err)
	id, _, err := h.store.GetCustomerID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", id)
	assert.Len(t, h.com.customers, 1)
}

func TestStepSubmitEmailConfirmsAlreadyLinkedCustomer(t *testing.T) {
	h := newHarness()
	h.link(t, 1, "old@example.com")

	_, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateAwaitingEmail}, text("new@example.com"))
	require.NoError(t, err)

	id, _, err := h.store.GetCustomerID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", id)
	assert.Equal(t, "Спасибо! Мы сохранили ваш e-mail: old@example.com", h.msg.texts()[0])
}

func TestStepSubmitEmailWithoutResumeShowsMenu(t *testing.T) {
	h := newHarness()
	next, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateAwaitingEmail}, text("ivan@example.com"))
	require.NoError(t, err)
	assert.Equal(t, storage.StateBrowsingMenu, next.State)
}

func TestStepInvalidEmailReprompts(t *testing.T) {
	h := newHarness()
	sess := storage.Session{State: storage.StateAwaitingEmail, ResumeProductID: "p1"}
	next, err := h.machine.Step(context.Background(), sess, text("not an email"))
	require.NoError(t, err)

	assert.Equal(t, storage.StateAwaitingEmail, next.State)
	assert.Equal(t, "p1", next.ResumeProductID)
	assert.Equal(t, textBadEmail, h.msg.last().Text)
	_, found, _ := h.store.GetCustomerID(context.Background(), 1)
	assert.False(t, found)
}

func TestStepUnknownFallsBackToMenu(t *testing.T) {
	h := newHarness()
	next, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateViewingCart, ViewMessageID: 4}, text("hi"))
	require.NoError(t, err)
	assert.Equal(t, storage.StateBrowsingMenu, next.State)
	assert.Equal(t, textWelcome, h.msg.last().Text)
	assert.Equal(t, []int{4}, h.msg.deleted)
}

func TestStepDeleteFailureIsCosmetic(t *testing.T) {
	h := newHarness()
	h.msg.deleteErr = errors.New("message to delete not found")
	ev := cb("cart")
	ev.MessageID = 12
	next, err := h.machine.Step(context.Background(), storage.Session{State: storage.StateBrowsingMenu}, ev)
	require.NoError(t, err)
	assert.Equal(t, storage.StateViewingCart, next.State)
}

func TestStepInvalidStateTreatedAsStart(t *testing.T) {
	h := newHarness()
	next, err := h.machine.Step(context.Background(), storage.Session{State: "HANDLE_MENU"}, cb("product|p1"))
	require.NoError(t, err)
	assert.Equal(t, storage.StateBrowsingMenu, next.State)
}

func TestParseEmail(t *testing.T) {
	valid := []string{"a@b.ru", " ivan.petrov@mail.example.com\n", "x+tag@d.io"}
	for _, in := range valid {
		_, ok := parseEmail(in)
		assert.True(t, ok, in)
	}
	invalid := []string{"", "plain", "a@b", "Ivan <a@b.ru>", "a b@c.ru", "@b.ru", "a@.ru", "a@b.ru."}
	for _, in := range invalid {
		_, ok := parseEmail(in)
		assert.False(t, ok, in)
	}
}
