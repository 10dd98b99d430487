package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"

	"github.com/nstonic/Fish-bot/core/logger"
	"github.com/nstonic/Fish-bot/shop/cart"
	"github.com/nstonic/Fish-bot/shop/moltin"
	"github.com/nstonic/Fish-bot/shop/storage"
)

// Machine executes transitions. It holds no per-chat state; the session is
// passed in and the next one returned.
type Machine struct {
	msg        Messenger
	commerce   Commerce
	carts      Carts
	identities Identities
}

// NewMachine wires a Machine.
func NewMachine(msg Messenger, commerce Commerce, carts Carts, identities Identities) *Machine {
	return &Machine{msg: msg, commerce: commerce, carts: carts, identities: identities}
}

// outcome is the result of a transition before the callback is answered.
type outcome struct {
	session storage.Session
	notice  string
}

// Step routes ev against sess and runs the chosen action. On error nothing
// of the returned session may be persisted.
func (m *Machine) Step(ctx context.Context, sess storage.Session, ev Event) (storage.Session, error) {
	if !sess.State.Valid() {
		sess.State = storage.StateStart
	}
	act := Route(sess.State, ev)

	var (
		out outcome
		err error
	)
	switch act.Kind {
	case ActionShowMenu:
		out, err = m.showMenu(ctx, sess, ev)
	case ActionShowProduct:
		out, err = m.showProduct(ctx, sess, ev, act.ProductID)
	case ActionShowCart:
		out, err = m.showCart(ctx, sess, ev)
	case ActionBuy:
		out, err = m.buy(ctx, sess, ev, act)
	case ActionRemoveItem:
		out, err = m.removeItem(ctx, sess, ev, act.ItemID)
	case ActionCheckout:
		out, err = m.checkout(ctx, sess, ev)
	case ActionSubmitEmail:
		out, err = m.submitEmail(ctx, sess, ev, act.Text)
	default:
		unknown := &UnknownSessionEvent{State: sess.State.String(), Kind: ev.Kind, Payload: ev.Payload}
		logger.Warn(ctx, logger.CompShop, "transition.unknown",
			slog.String("state", sess.State.String()),
			slog.String("kind", ev.Kind.String()),
			slog.String("payload", logger.SanitizeLimit(ev.Payload, 64)),
			slog.String("err_code", unknown.Code()),
		)
		out, err = m.showMenu(ctx, sess, ev)
	}
	if err != nil {
		return sess, fmt.Errorf("%s: %w", act.Kind, err)
	}

	if ev.Kind == EventCallback && ev.CallbackID != "" {
		if err := m.msg.AnswerCallback(ctx, ev.CallbackID, out.notice); err != nil {
			m.cosmetic(ctx, "answer_callback", err)
		}
	}
	return out.session, nil
}

func (m *Machine) showMenu(ctx context.Context, sess storage.Session, ev Event) (outcome, error) {
	products, err := m.commerce.ListProducts(ctx)
	if err != nil {
		return outcome{}, err
	}
	kb := make(Keyboard, 0, len(products)+1)
	for _, p := range products {
		kb = append(kb, []Button{{Text: p.Name, Data: callbackData(CallbackProduct, p.ID)}})
	}
	kb = append(kb, []Button{{Text: btnCart, Data: callbackData(CallbackCart)}})

	id, err := m.msg.SendMessage(ctx, ev.ChatID, textWelcome, kb)
	if err != nil {
		return outcome{}, err
	}
	m.retract(ctx, sess, ev)
	return outcome{session: storage.Session{State: storage.StateBrowsingMenu, ViewMessageID: id}}, nil
}

func (m *Machine) showProduct(ctx context.Context, sess storage.Session, ev Event, productID string) (outcome, error) {
	id, err := m.sendProduct(ctx, ev.ChatID, productID)
	if err != nil {
		return outcome{}, err
	}
	m.retract(ctx, sess, ev)
	return outcome{session: storage.Session{State: storage.StateViewingProduct, ViewMessageID: id}}, nil
}

func (m *Machine) sendProduct(ctx context.Context, chatID int64, productID string) (int, error) {
	product, err := m.commerce.GetProductWithPrice(ctx, productID)
	if err != nil {
		return 0, err
	}
	image, err := m.commerce.FetchImage(ctx, productID)
	if err != nil {
		return 0, err
	}

	qty := make([]Button, 0, len(Quantities))
	for _, kg := range Quantities {
		qty = append(qty, Button{
			Text: fmt.Sprintf(btnQuantity, kg),
			Data: callbackData(CallbackBuy, product.ID, strconv.Itoa(kg)),
		})
	}
	kb := Keyboard{qty, {{Text: btnBack, Data: callbackData(CallbackMenu)}}}
	caption := fmt.Sprintf(textProductCaption, product.Name, product.Description, cart.FormatMoney(product.UnitPrice))

	if len(image) == 0 {
		return m.msg.SendMessage(ctx, chatID, caption, kb)
	}
	return m.msg.SendPhoto(ctx, chatID, image, caption, kb)
}

// currentCart returns the loaded cart of the user, or nil when the user has
// no identity yet.
func (m *Machine) currentCart(ctx context.Context, userID int64) (*cart.Cart, error) {
	email, ok, err := m.customerEmail(ctx, userID)
	if err != nil || !ok {
		return nil, err
	}
	cartID, err := m.carts.ResolveCurrentCart(ctx, email)
	if err != nil {
		return nil, err
	}
	return m.carts.Load(ctx, cartID)
}

func (m *Machine) customerEmail(ctx context.Context, userID int64) (string, bool, error) {
	customerID, ok, err := m.identities.GetCustomerID(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("load identity: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	customer, err := m.commerce.GetCustomer(ctx, customerID)
	if err != nil {
		return "", false, err
	}
	return customer.Email, true, nil
}

func cartKeyboard(c *cart.Cart) Keyboard {
	kb := Keyboard{}
	if !c.Empty() {
		for _, it := range c.Items {
			kb = append(kb, []Button{{Text: fmt.Sprintf(btnRemove, it.Name), Data: callbackData(CallbackRemove, it.ID)}})
		}
		kb = append(kb, []Button{{Text: btnCheckout, Data: callbackData(CallbackCheckout)}})
	}
	return append(kb, []Button{{Text: btnToMenu, Data: callbackData(CallbackMenu)}})
}

func (m *Machine) showCart(ctx context.Context, sess storage.Session, ev Event) (outcome, error) {
	c, err := m.currentCart(ctx, ev.UserID)
	if err != nil {
		return outcome{}, err
	}
	view := cart.Render(c)
	id, err := m.msg.SendMessage(ctx, ev.ChatID, view.Text, cartKeyboard(c))
	if err != nil {
		return outcome{}, err
	}
	m.retract(ctx, sess, ev)
	return outcome{session: storage.Session{State: storage.StateViewingCart, ViewMessageID: id}}, nil
}

func (m *Machine) buy(ctx context.Context, sess storage.Session, ev Event, act Action) (outcome, error) {
	email, ok, err := m.customerEmail(ctx, ev.UserID)
	if err != nil {
		return outcome{}, err
	}
	if !ok {
		kb := Keyboard{{{Text: btnBack, Data: callbackData(CallbackMenu)}}}
		id, err := m.msg.SendMessage(ctx, ev.ChatID, textAskEmail, kb)
		if err != nil {
			return outcome{}, err
		}
		m.retract(ctx, sess, ev)
		return outcome{session: storage.Session{
			State:           storage.StateAwaitingEmail,
			ResumeProductID: act.ProductID,
			ViewMessageID:   id,
		}}, nil
	}

	cartID, err := m.carts.ResolveCurrentCart(ctx, email)
	if err != nil {
		return outcome{}, err
	}
	if err := m.commerce.AddToCart(ctx, cartID, act.ProductID, act.Quantity); err != nil {
		return outcome{}, err
	}
	logger.Info(ctx, logger.CompShop, "cart.item.added",
		slog.String("cart_id", cartID),
		slog.String("product_id", act.ProductID),
		slog.Int("quantity", act.Quantity),
	)
	out, err := m.showMenu(ctx, sess, ev)
	out.notice = fmt.Sprintf(textAdded, act.Quantity)
	return out, err
}

func (m *Machine) removeItem(ctx context.Context, sess storage.Session, ev Event, itemID string) (outcome, error) {
	email, ok, err := m.customerEmail(ctx, ev.UserID)
	if err != nil {
		return outcome{}, err
	}
	var c *cart.Cart
	if ok {
		cartID, err := m.carts.ResolveCurrentCart(ctx, email)
		if err != nil {
			return outcome{}, err
		}
		if err := m.commerce.RemoveFromCart(ctx, cartID, itemID); err != nil {
			return outcome{}, err
		}
		if c, err = m.carts.Load(ctx, cartID); err != nil {
			return outcome{}, err
		}
	}

	view := cart.Render(c)
	msgID := ev.MessageID
	if msgID == 0 {
		msgID = sess.ViewMessageID
	}
	if err := m.msg.EditMessage(ctx, ev.ChatID, msgID, view.Text, cartKeyboard(c)); err != nil {
		return outcome{}, err
	}
	return outcome{
		session: storage.Session{State: storage.StateViewingCart, ViewMessageID: msgID},
		notice:  textRemoved,
	}, nil
}

func (m *Machine) checkout(ctx context.Context, sess storage.Session, ev Event) (outcome, error) {
	if _, err := m.msg.SendMessage(ctx, ev.ChatID, textCheckout, nil); err != nil {
		return outcome{}, err
	}
	return m.showMenu(ctx, sess, ev)
}

func (m *Machine) submitEmail(ctx context.Context, sess storage.Session, ev Event, text string) (outcome, error) {
	email, ok := parseEmail(text)
	if !ok {
		kb := Keyboard{{{Text: btnBack, Data: callbackData(CallbackMenu)}}}
		id, err := m.msg.SendMessage(ctx, ev.ChatID, textBadEmail, kb)
		if err != nil {
			return outcome{}, err
		}
		m.retract(ctx, sess, ev)
		return outcome{session: storage.Session{
			State:           storage.StateAwaitingEmail,
			ResumeProductID: sess.ResumeProductID,
			ViewMessageID:   id,
		}}, nil
	}

	customer, found, err := m.commerce.FindCustomerByEmail(ctx, email)
	if err != nil {
		return outcome{}, err
	}
	if !found {
		if customer, err = m.commerce.CreateCustomer(ctx, email); err != nil {
			return outcome{}, err
		}
	}
	if customer, err = m.link(ctx, ev.UserID, customer, !found); err != nil {
		return outcome{}, err
	}
	if customer.Email != "" {
		email = customer.Email
	}

	if _, err := m.msg.SendMessage(ctx, ev.ChatID, fmt.Sprintf(textEmailSaved, email), nil); err != nil {
		return outcome{}, err
	}
	if sess.ResumeProductID == "" {
		return m.showMenu(ctx, sess, ev)
	}
	id, err := m.sendProduct(ctx, ev.ChatID, sess.ResumeProductID)
	if err != nil {
		return outcome{}, err
	}
	m.retract(ctx, sess, ev)
	return outcome{session: storage.Session{State: storage.StateViewingProduct, ViewMessageID: id}}, nil
}

// link stores the identity mapping and returns the customer the user is
// actually linked to, which differs from customer when a mapping already exists.
func (m *Machine) link(ctx context.Context, userID int64, customer moltin.Customer, created bool) (moltin.Customer, error) {
	if err := m.identities.SetCustomerID(ctx, userID, customer.ID); err != nil {
		return moltin.Customer{}, fmt.Errorf("save identity: %w", err)
	}
	stored, ok, err := m.identities.GetCustomerID(ctx, userID)
	if err != nil {
		return moltin.Customer{}, fmt.Errorf("load identity: %w", err)
	}
	if !ok || stored == customer.ID {
		logger.Info(ctx, logger.CompShop, "customer.linked",
			slog.String("customer_id", customer.ID),
			slog.Bool("created", created),
		)
		return customer, nil
	}

	logger.Info(ctx, logger.CompShop, "customer.kept",
		slog.String("customer_id", stored),
		slog.String("ignored_id", customer.ID),
	)
	return m.commerce.GetCustomer(ctx, stored)
}

// retract deletes the view superseded by a new one: the message with the
// pressed button for callbacks, otherwise the last recorded view.
func (m *Machine) retract(ctx context.Context, sess storage.Session, ev Event) {
	id := sess.ViewMessageID
	if ev.Kind == EventCallback && ev.MessageID != 0 {
		id = ev.MessageID
	}
	if id == 0 {
		return
	}
	if err := m.msg.DeleteMessage(ctx, ev.ChatID, id); err != nil {
		m.cosmetic(ctx, "delete_message", err)
	}
}

func (m *Machine) cosmetic(ctx context.Context, op string, err error) {
	logger.Warn(ctx, logger.CompShop, "view.cosmetic_failure",
		slog.String("op", op),
		slog.String("err_code", ErrorCode(err)),
		slog.Any("err", err),
	)
}

// parseEmail accepts a bare address, trimmed, with a dot in the domain.
func parseEmail(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, " <>") {
		return "", false
	}
	addr, err := mail.ParseAddress(text)
	if err != nil || addr.Address != text {
		return "", false
	}
	_, domain, _ := strings.Cut(addr.Address, "@")
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", false
	}
	return addr.Address, true
}

var _ Commerce = (*moltin.Client)(nil)
