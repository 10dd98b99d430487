package moltin

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// CreateCustomer registers a customer for email and returns it.
func (c *Client) CreateCustomer(ctx context.Context, email string) (Customer, error) {
	payload := map[string]any{
		"data": map[string]any{
			"type":     "customer",
			"name":     "telegram customer",
			"email":    email,
			"password": derivePassword(email),
		},
	}
	var out struct {
		Data customerData `json:"data"`
	}
	if err := c.do(ctx, call{op: "create_customer", method: http.MethodPost, path: "/v2/customers", json: payload}, &out); err != nil {
		return Customer{}, err
	}
	return out.Data.customer(), nil
}

// GetCustomer returns a customer by id.
func (c *Client) GetCustomer(ctx context.Context, id string) (Customer, error) {
	var out struct {
		Data customerData `json:"data"`
	}
	path := "/v2/customers/" + url.PathEscape(id)
	if err := c.do(ctx, call{op: "get_customer", method: http.MethodGet, path: path}, &out); err != nil {
		return Customer{}, err
	}
	return out.Data.customer(), nil
}

// CustomerToken mints a customer token for email. Tokens are not cached.
func (c *Client) CustomerToken(ctx context.Context, email string) (string, error) {
	payload := map[string]any{
		"data": map[string]any{
			"type":                     "token",
			"email":                    email,
			"password":                 derivePassword(email),
			"authentication_mechanism": "password",
		},
	}
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := c.do(ctx, call{op: "customer_token", method: http.MethodPost, path: "/v2/customers/tokens", json: payload}, &out); err != nil {
		return "", err
	}
	if out.Data.Token == "" {
		return "", &RemoteAPIError{Op: "customer_token", Status: http.StatusOK, Message: "empty customer token"}
	}
	return out.Data.Token, nil
}

// FindCustomerByEmail looks a customer up by exact e-mail.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (Customer, bool, error) {
	var out struct {
		Data []customerData `json:"data"`
	}
	path := "/v2/customers?filter=" + url.QueryEscape("eq(email,"+email+")")
	if err := c.do(ctx, call{op: "find_customer", method: http.MethodGet, path: path}, &out); err != nil {
		return Customer{}, false, err
	}
	for _, cd := range out.Data {
		if strings.EqualFold(cd.Email, email) {
			return cd.customer(), true, nil
		}
	}
	return Customer{}, false, nil
}
