package cart

// User-facing messages.
const (
	MsgLoginToAdd     = "Please login to add items to cart"
	MsgLoginToModify  = "Please login to modify cart"
	MsgSessionExpired = "Your session has expired. Please login again."
	MsgInvalidProduct = "Invalid product"
	MsgBusy           = "This item is already being updated"

	MsgAdded   = "Product added to cart successfully!"
	MsgRemoved = "Item removed from cart"
	MsgUpdated = "Cart updated successfully"

	MsgAddFailed    = "Failed to add to cart"
	MsgRemoveFailed = "Failed to remove item"
	MsgUpdateFailed = "Failed to update cart"
)

// Result is the outcome of a cart mutation as surfaced to pages.
//
// RequiresLogin asks the page to send the shopper to the login screen.
// Busy means another update of the same product is still in flight.
type Result struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	RequiresLogin bool   `json:"requiresLogin,omitempty"`
	Busy          bool   `json:"busy,omitempty"`
}

func ok(message string) Result {
	return Result{Success: true, Message: message}
}

func failed(message string) Result {
	return Result{Success: false, Message: message}
}

func loginRequired(message string) Result {
	return Result{Success: false, Message: message, RequiresLogin: true}
}

func busy() Result {
	return Result{Success: false, Message: MsgBusy, Busy: true}
}
