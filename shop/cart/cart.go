// Package cart resolves the single active cart of a customer and renders
// cart contents for the chat.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nstonic/Fish-bot/core/logger"
	"github.com/nstonic/Fish-bot/shop/moltin"
)

const (
	header    = "Ваша корзина:"
	emptyText = "Ваша корзина пуста"
)

// Backend is the part of the commerce API the resolver needs.
type Backend interface {
	CustomerToken(ctx context.Context, email string) (string, error)
	ListCustomerCarts(ctx context.Context, customerToken string) ([]moltin.CartRef, error)
	CreateCart(ctx context.Context, customerToken string) (moltin.CartRef, error)
	GetCartItems(ctx context.Context, cartID string) ([]moltin.CartItem, error)
}

// LineItem is one rendered cart line. Prices are in minor units.
type LineItem struct {
	ID        string
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int
	LineTotal int64
}

// Cart is a loaded cart.
type Cart struct {
	ID    string
	Items []LineItem
}

// Total sums the line totals.
func (c *Cart) Total() int64 {
	if c == nil {
		return 0
	}
	var total int64
	for _, it := range c.Items {
		total += it.LineTotal
	}
	return total
}

// Empty reports whether the cart has no items.
func (c *Cart) Empty() bool { return c == nil || len(c.Items) == 0 }

// View is the text shown for a cart.
type View struct {
	Text  string
	Total int64
}

// Resolver finds or creates carts.
type Resolver struct {
	backend Backend
}

// NewResolver returns a Resolver over backend.
func NewResolver(backend Backend) *Resolver {
	return &Resolver{backend: backend}
}

// ResolveCurrentCart returns the customer's first cart, creating one only
// when the customer has none.
func (r *Resolver) ResolveCurrentCart(ctx context.Context, email string) (string, error) {
	token, err := r.backend.CustomerToken(ctx, email)
	if err != nil {
		return "", fmt.Errorf("customer token: %w", err)
	}
	carts, err := r.backend.ListCustomerCarts(ctx, token)
	if err != nil {
		return "", fmt.Errorf("list carts: %w", err)
	}
	if len(carts) > 0 {
		return carts[0].ID, nil
	}
	created, err := r.backend.CreateCart(ctx, token)
	if err != nil {
		return "", fmt.Errorf("create cart: %w", err)
	}
	logger.Info(ctx, logger.CompCart, "cart.created", slog.String("cart_id", created.ID))
	return created.ID, nil
}

// Load fetches the cart items and computes line totals.
func (r *Resolver) Load(ctx context.Context, cartID string) (*Cart, error) {
	items, err := r.backend.GetCartItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	cart := &Cart{ID: cartID, Items: make([]LineItem, 0, len(items))}
	for _, it := range items {
		cart.Items = append(cart.Items, LineItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.UnitPrice * int64(it.Quantity),
		})
	}
	return cart, nil
}

// Render builds the cart text. A nil cart renders as empty.
func Render(c *Cart) View {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	if c.Empty() {
		b.WriteString(emptyText)
	} else {
		for i, it := range c.Items {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "%s - %dкг\nЦена: %s₽\nСумма: %s₽",
				it.Name, it.Quantity, FormatMoney(it.UnitPrice), FormatMoney(it.LineTotal))
		}
	}
	total := c.Total()
	b.WriteString("\n\nОбщая стоимость: ")
	b.WriteString(FormatMoney(total))
	b.WriteString("₽")
	return View{Text: b.String(), Total: total}
}

// FormatMoney renders minor units: whole amounts without decimals, the rest
// with two.
func FormatMoney(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	whole, frac := minor/100, minor%100
	if frac == 0 {
		return sign + strconv.FormatInt(whole, 10)
	}
	return fmt.Sprintf("%s%d.%02d", sign, whole, frac)
}
