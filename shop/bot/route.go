package bot

import (
	"strconv"
	"strings"

	"github.com/nstonic/Fish-bot/shop/storage"
)

// ActionKind is the handler behaviour chosen for an event.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionShowMenu
	ActionShowProduct
	ActionShowCart
	ActionBuy
	ActionRemoveItem
	ActionCheckout
	ActionSubmitEmail
)

var actionNames = map[ActionKind]string{
	ActionUnknown:     "unknown",
	ActionShowMenu:    "show_menu",
	ActionShowProduct: "show_product",
	ActionShowCart:    "show_cart",
	ActionBuy:         "buy",
	ActionRemoveItem:  "remove_item",
	ActionCheckout:    "checkout",
	ActionSubmitEmail: "submit_email",
}

func (k ActionKind) String() string {
	if n, ok := actionNames[k]; ok {
		return n
	}
	return "unknown"
}

// Action is a routed event with its parsed arguments.
type Action struct {
	Kind      ActionKind
	ProductID string
	ItemID    string
	Quantity  int
	Text      string
}

// Quantities offered on the product view, in kilograms.
var Quantities = []int{1, 5, 10}

// Route maps the current state and an event to an action. It has no side
// effects; events that match no row yield ActionUnknown.
func Route(state storage.State, ev Event) Action {
	switch ev.Kind {
	case EventCommand:
		if strings.TrimPrefix(ev.Payload, "/") == CommandStart {
			return Action{Kind: ActionShowMenu}
		}
		return Action{Kind: ActionUnknown}
	case EventText:
		if state == storage.StateAwaitingEmail {
			return Action{Kind: ActionSubmitEmail, Text: ev.Payload}
		}
		return Action{Kind: ActionUnknown}
	case EventCallback:
		return routeCallback(state, ev.Payload)
	}
	return Action{Kind: ActionUnknown}
}

func routeCallback(state storage.State, data string) Action {
	parts := strings.Split(data, "|")
	name, args := parts[0], parts[1:]

	if name == CallbackMenu && len(args) == 0 {
		return Action{Kind: ActionShowMenu}
	}

	switch state {
	case storage.StateBrowsingMenu:
		switch {
		case name == CallbackProduct && len(args) == 1 && args[0] != "":
			return Action{Kind: ActionShowProduct, ProductID: args[0]}
		case name == CallbackCart && len(args) == 0:
			return Action{Kind: ActionShowCart}
		}
	case storage.StateViewingProduct:
		if name == CallbackBuy && len(args) == 2 && args[0] != "" {
			if qty, err := strconv.Atoi(args[1]); err == nil && qty > 0 {
				return Action{Kind: ActionBuy, ProductID: args[0], Quantity: qty}
			}
		}
	case storage.StateViewingCart:
		switch {
		case name == CallbackRemove && len(args) == 1 && args[0] != "":
			return Action{Kind: ActionRemoveItem, ItemID: args[0]}
		case name == CallbackCheckout && len(args) == 0:
			return Action{Kind: ActionCheckout}
		}
	}
	return Action{Kind: ActionUnknown}
}
