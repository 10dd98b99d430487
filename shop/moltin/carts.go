package moltin

import (
	"context"
	"net/http"
	"net/url"
)

// ListCustomerCarts returns the carts associated with the customer token.
func (c *Client) ListCustomerCarts(ctx context.Context, customerToken string) ([]CartRef, error) {
	var out struct {
		Data []cartData `json:"data"`
	}
	err := c.do(ctx, call{op: "list_carts", method: http.MethodGet, path: "/v2/carts", customerToken: customerToken}, &out)
	if err != nil {
		return nil, err
	}
	carts := make([]CartRef, 0, len(out.Data))
	for _, cd := range out.Data {
		carts = append(carts, CartRef{ID: cd.ID, Name: cd.Name})
	}
	return carts, nil
}

// CreateCart creates a cart associated with the customer token.
func (c *Client) CreateCart(ctx context.Context, customerToken string) (CartRef, error) {
	payload := map[string]any{"data": map[string]any{"name": "Cart"}}
	var out struct {
		Data cartData `json:"data"`
	}
	err := c.do(ctx, call{op: "create_cart", method: http.MethodPost, path: "/v2/carts", json: payload, customerToken: customerToken}, &out)
	if err != nil {
		return CartRef{}, err
	}
	return CartRef{ID: out.Data.ID, Name: out.Data.Name}, nil
}

// GetCartItems returns the line items of a cart.
func (c *Client) GetCartItems(ctx context.Context, cartID string) ([]CartItem, error) {
	var out struct {
		Data []cartItemData `json:"data"`
	}
	if err := c.do(ctx, call{op: "cart_items", method: http.MethodGet, path: cartItemsPath(cartID)}, &out); err != nil {
		return nil, err
	}
	items := make([]CartItem, 0, len(out.Data))
	for _, it := range out.Data {
		items = append(items, CartItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.Amount,
		})
	}
	return items, nil
}

// AddToCart adds quantity units of productID to the cart.
func (c *Client) AddToCart(ctx context.Context, cartID, productID string, quantity int) error {
	payload := map[string]any{
		"data": map[string]any{
			"id":       productID,
			"type":     "cart_item",
			"quantity": quantity,
		},
	}
	return c.do(ctx, call{op: "add_to_cart", method: http.MethodPost, path: cartItemsPath(cartID), json: payload}, nil)
}

// RemoveFromCart deletes one cart item.
func (c *Client) RemoveFromCart(ctx context.Context, cartID, itemID string) error {
	path := cartItemsPath(cartID) + "/" + url.PathEscape(itemID)
	return c.do(ctx, call{op: "remove_from_cart", method: http.MethodDelete, path: path}, nil)
}

func cartItemsPath(cartID string) string {
	return "/v2/carts/" + url.PathEscape(cartID) + "/items"
}
