package service

import (
	"context"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/auth"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
)

// CartService manages the actor's cart
type CartService struct {
	db store.DB
}

func NewCartService(db store.DB) *CartService {
	return &CartService{db: db}
}

type AddCartItemRequest struct {
	GoodID  int64  `json:"good_id" binding:"required"`
	StyleID *int64 `json:"style_id,omitempty"`
	Count   int    `json:"count"`
}

// Add puts a good into the actor's cart. A missing count means one.
func (cs *CartService) Add(ctx context.Context, actor *models.User, req *AddCartItemRequest) (*models.CartItem, error) {
	count := req.Count
	if count == 0 {
		count = 1
	}
	if err := validateCount(count); err != nil {
		return nil, err
	}

	good, err := cs.db.GetGood(ctx, req.GoodID)
	if err != nil {
		return nil, translate(err, "Good")
	}
	if req.StyleID != nil {
		if _, ok := good.Style(*req.StyleID); !ok {
			return nil, apperror.InvalidReference("Style %d does not belong to good %d.", *req.StyleID, good.ID)
		}
	}

	item := &models.CartItem{
		UserID:  actor.ID,
		GoodID:  good.ID,
		StyleID: req.StyleID,
		Count:   count,
	}
	if err := cs.db.AddCartItem(ctx, item); err != nil {
		return nil, apperror.Internal("failed to add cart item", err)
	}
	return item, nil
}

// List returns the actor's own cart
func (cs *CartService) List(ctx context.Context, actor *models.User, page store.Page) ([]models.CartItem, error) {
	items, err := cs.db.ListCartItems(ctx, actor.ID, NormalizePage(page))
	if err != nil {
		return nil, apperror.Internal("failed to list cart", err)
	}
	return items, nil
}

// Remove deletes a cart item. Foreign items are reported as missing.
func (cs *CartService) Remove(ctx context.Context, actor *models.User, id int64) error {
	item, err := cs.db.GetCartItem(ctx, id)
	if err != nil {
		return translate(err, "Cart item")
	}
	if !auth.CanAccess(actor, item.UserID) {
		return apperror.NotFound("Cart item not found.")
	}
	if err := cs.db.DeleteCartItems(ctx, []int64{id}); err != nil {
		return apperror.Internal("failed to delete cart item", err)
	}
	return nil
}
