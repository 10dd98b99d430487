package bot

import (
	"context"

	"github.com/nstonic/Fish-bot/shop/cart"
	"github.com/nstonic/Fish-bot/shop/moltin"
)

// Messenger sends views to the chat. Failures are returned as
// *RemoteAPIError.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, kb Keyboard) (int, error)
	SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string, kb Keyboard) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, kb Keyboard) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Commerce is the catalog and customer part of the commerce API.
type Commerce interface {
	ListProducts(ctx context.Context) ([]moltin.Product, error)
	GetProductWithPrice(ctx context.Context, id string) (moltin.Product, error)
	FetchImage(ctx context.Context, productID string) ([]byte, error)
	CreateCustomer(ctx context.Context, email string) (moltin.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (moltin.Customer, bool, error)
	GetCustomer(ctx context.Context, id string) (moltin.Customer, error)
	AddToCart(ctx context.Context, cartID, productID string, quantity int) error
	RemoveFromCart(ctx context.Context, cartID, itemID string) error
}

// Carts resolves and loads the customer's cart.
type Carts interface {
	ResolveCurrentCart(ctx context.Context, email string) (string, error)
	Load(ctx context.Context, cartID string) (*cart.Cart, error)
}

// Identities maps chat users to commerce customers.
type Identities interface {
	GetCustomerID(ctx context.Context, userID int64) (string, bool, error)
	SetCustomerID(ctx context.Context, userID int64, customerID string) error
}

// Alerter notifies the operator about failed transitions.
type Alerter interface {
	Alert(ctx context.Context, text string)
}
