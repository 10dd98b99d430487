package moltin

// Product is a catalog entry. UnitPrice is in minor units and is set only by
// GetProductWithPrice.
type Product struct {
	ID          string
	Name        string
	Description string
	SKU         string
	UnitPrice   int64
	Currency    string
}

// Customer is a commerce customer record.
type Customer struct {
	ID    string
	Name  string
	Email string
}

// CartRef identifies a cart.
type CartRef struct {
	ID   string
	Name string
}

// CartItem is one line of a cart. ID is the cart-item id used for removal.
type CartItem struct {
	ID        string
	ProductID string
	Name      string
	Quantity  int
	UnitPrice int64
}

// Wire shapes.

type productData struct {
	ID         string `json:"id"`
	Attributes struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		SKU         string `json:"sku"`
	} `json:"attributes"`
}

func (p productData) product() Product {
	return Product{
		ID:          p.ID,
		Name:        p.Attributes.Name,
		Description: p.Attributes.Description,
		SKU:         p.Attributes.SKU,
	}
}

type priceData struct {
	Attributes struct {
		SKU        string `json:"sku"`
		Currencies map[string]struct {
			Amount int64 `json:"amount"`
		} `json:"currencies"`
	} `json:"attributes"`
}

type customerData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (c customerData) customer() Customer {
	return Customer{ID: c.ID, Name: c.Name, Email: c.Email}
}

type cartData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type cartItemData struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice struct {
		Amount int64 `json:"amount"`
	} `json:"unit_price"`
}

type tokenData struct {
	AccessToken string `json:"access_token"`
	Expires     int64  `json:"expires"`
	ExpiresIn   int64  `json:"expires_in"`
}

type apiError struct {
	Status any    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}
