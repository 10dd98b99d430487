package moltin

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// ListProducts returns the whole catalog in API order.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out struct {
		Data []productData `json:"data"`
	}
	if err := c.do(ctx, call{op: "list_products", method: http.MethodGet, path: "/pcm/products"}, &out); err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(out.Data))
	for _, p := range out.Data {
		products = append(products, p.product())
	}
	return products, nil
}

// GetProduct returns one product without price.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	var out struct {
		Data productData `json:"data"`
	}
	path := "/pcm/products/" + url.PathEscape(id)
	if err := c.do(ctx, call{op: "get_product", method: http.MethodGet, path: path}, &out); err != nil {
		return Product{}, err
	}
	return out.Data.product(), nil
}

// GetProductWithPrice returns the product with its unit price taken from the
// configured price book. The price is matched by SKU.
func (c *Client) GetProductWithPrice(ctx context.Context, id string) (Product, error) {
	product, err := c.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if product.SKU == "" {
		return Product{}, &DataIntegrityError{ProductID: id, Reason: "product has no sku"}
	}

	var out struct {
		Data []priceData `json:"data"`
	}
	path := "/pcm/pricebooks/" + url.PathEscape(c.cfg.PriceBookID) + "/prices"
	if err := c.do(ctx, call{op: "list_prices", method: http.MethodGet, path: path}, &out); err != nil {
		return Product{}, err
	}
	for _, price := range out.Data {
		if price.Attributes.SKU != product.SKU {
			continue
		}
		amount, ok := price.Attributes.Currencies[c.cfg.Currency]
		if !ok {
			return Product{}, &DataIntegrityError{ProductID: id, SKU: product.SKU, Reason: "no " + c.cfg.Currency + " price"}
		}
		product.UnitPrice = amount.Amount
		product.Currency = c.cfg.Currency
		return product, nil
	}
	return Product{}, &DataIntegrityError{ProductID: id, SKU: product.SKU, Reason: "sku not in price book"}
}

// FetchImage downloads the main image of a product. It returns nil bytes and
// no error when the product has no main image.
func (c *Client) FetchImage(ctx context.Context, productID string) ([]byte, error) {
	var rel struct {
		Data *struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	path := "/pcm/products/" + url.PathEscape(productID) + "/relationships/main_image"
	if err := c.do(ctx, call{op: "main_image", method: http.MethodGet, path: path}, &rel); err != nil {
		var apiErr *RemoteAPIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return nil, nil
		}
		return nil, err
	}
	if rel.Data == nil || rel.Data.ID == "" {
		return nil, nil
	}

	var file struct {
		Data struct {
			Link struct {
				Href string `json:"href"`
			} `json:"link"`
		} `json:"data"`
	}
	if err := c.do(ctx, call{op: "get_file", method: http.MethodGet, path: "/v2/files/" + url.PathEscape(rel.Data.ID)}, &file); err != nil {
		return nil, err
	}
	href := file.Data.Link.Href
	if href == "" {
		return nil, nil
	}

	body, status, err := c.send(ctx, call{op: "download_image", method: http.MethodGet, path: href, anonymous: true})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &RemoteAPIError{Op: "download_image", Status: status, Message: http.StatusText(status)}
	}
	return body, nil
}
