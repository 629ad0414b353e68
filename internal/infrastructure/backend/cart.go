package backend

import (
	"context"
	"errors"
	"net/http"

	cartapp "github.com/minimart/storefront/internal/application/cart"
	"github.com/minimart/storefront/internal/domain/cart"
)

var _ cartapp.Backend = (*CartAPI)(nil)

// CartAPI implements the cart port.
type CartAPI struct {
	client *Client
}

// NewCartAPI creates a CartAPI
func NewCartAPI(client *Client) *CartAPI {
	return &CartAPI{client: client}
}

// GetCart returns the lines of the token owner's cart. Lines whose product
// has been deleted are skipped.
func (a *CartAPI) GetCart(ctx context.Context, token string) ([]cart.Line, error) {
	var out cartDTO
	if err := a.client.Do(ctx, Request{Method: http.MethodGet, Path: "/api/cart", Token: token}, &out); err != nil {
		return nil, err
	}
	return out.toLines(), nil
}

// AddItem adds quantity units of productID.
func (a *CartAPI) AddItem(ctx context.Context, token, productID string, quantity int) (cartapp.MutationReply, error) {
	return a.mutate(ctx, "/api/cart/add", token, cartItemRequest{ProductID: productID, Quantity: quantity})
}

// RemoveItem removes the line for productID.
func (a *CartAPI) RemoveItem(ctx context.Context, token, productID string) (cartapp.MutationReply, error) {
	return a.mutate(ctx, "/api/cart/remove", token, cartItemRequest{ProductID: productID})
}

// UpdateItem sets the quantity of productID.
func (a *CartAPI) UpdateItem(ctx context.Context, token, productID string, quantity int) (cartapp.MutationReply, error) {
	return a.mutate(ctx, "/api/cart/update", token, cartItemRequest{ProductID: productID, Quantity: quantity})
}

func (a *CartAPI) mutate(ctx context.Context, path, token string, body cartItemRequest) (cartapp.MutationReply, error) {
	var out mutationDTO
	err := a.client.Do(ctx, Request{Method: http.MethodPost, Path: path, Token: token, Body: body}, &out)
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		// The backend accepted the mutation; only its reply is unreadable.
		return cartapp.MutationReply{}, nil
	}
	if err != nil {
		return cartapp.MutationReply{}, err
	}
	return cartapp.MutationReply{ItemCount: out.ItemCount.n, Message: out.Message}, nil
}
