package memstore

import (
	"context"
	"sort"

	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
)

func (r *Repo) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.run("CreateOrder", func(st *state) error {
		o.ID = st.id()
		o.CreatedAt = now()
		o.UpdatedAt = o.CreatedAt
		st.orders[o.ID] = *o
		return nil
	})
}

func (r *Repo) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var out models.Order
	err := r.run("GetOrder", func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return store.ErrNotFound
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LockOrder is a plain read: InTx already serializes transactions
func (r *Repo) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	if err := r.db.fault("LockOrder"); err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, id)
}

func (r *Repo) ListOrders(ctx context.Context, userID *int64, page store.Page) ([]models.Order, error) {
	out := []models.Order{}
	err := r.run("ListOrders", func(st *state) error {
		for _, o := range st.orders {
			if userID == nil || o.UserID == *userID {
				out = append(out, o)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID > out[j].ID
		})
		return nil
	})
	return paginate(out, page), err
}

func (r *Repo) CountOrdersByStatus(ctx context.Context, userID int64) (map[models.OrderStatus]int, error) {
	counts := map[models.OrderStatus]int{}
	err := r.run("CountOrdersByStatus", func(st *state) error {
		for _, o := range st.orders {
			if o.UserID == userID {
				counts[o.Status]++
			}
		}
		return nil
	})
	return counts, err
}

func (r *Repo) UpdateOrder(ctx context.Context, o *models.Order) error {
	return r.run("UpdateOrder", func(st *state) error {
		cur, ok := st.orders[o.ID]
		if !ok {
			return store.ErrNotFound
		}
		cur.AddressID, cur.TotalPrice = o.AddressID, o.TotalPrice
		cur.UpdatedAt = now()
		st.orders[o.ID] = cur
		o.UpdatedAt = cur.UpdatedAt
		return nil
	})
}

func (r *Repo) SetOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) (bool, error) {
	var changed bool
	err := r.run("SetOrderStatus", func(st *state) error {
		o, ok := st.orders[id]
		if !ok || o.Status != from {
			return nil
		}
		o.Status = to
		o.UpdatedAt = now()
		st.orders[id] = o
		changed = true
		return nil
	})
	return changed, err
}

func (r *Repo) DeleteOrder(ctx context.Context, id int64) error {
	return r.run("DeleteOrder", func(st *state) error {
		if _, ok := st.orders[id]; !ok {
			return store.ErrNotFound
		}
		delete(st.orders, id)
		return nil
	})
}

func (r *Repo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	return r.run("CreateOrderItems", func(st *state) error {
		for i := range items {
			item := &items[i]
			item.ID = st.id()
			item.CreatedAt = now()
			item.UpdatedAt = item.CreatedAt
			st.items[item.ID] = *item
		}
		return nil
	})
}

func (r *Repo) GetOrderItem(ctx context.Context, id int64) (*models.OrderItem, error) {
	var out models.OrderItem
	err := r.run("GetOrderItem", func(st *state) error {
		item, ok := st.items[id]
		if !ok {
			return store.ErrNotFound
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	out := []models.OrderItem{}
	err := r.run("ListOrderItems", func(st *state) error {
		for _, id := range sortedIDs(st.items) {
			if item := st.items[id]; item.OrderID == orderID {
				out = append(out, item)
			}
		}
		return nil
	})
	return out, err
}

func (r *Repo) ListStoreOrderItems(ctx context.Context, storeID int64, page store.Page) ([]models.OrderItem, error) {
	out := []models.OrderItem{}
	err := r.run("ListStoreOrderItems", func(st *state) error {
		ids := sortedIDs(st.items)
		for i := len(ids) - 1; i >= 0; i-- {
			if item := st.items[ids[i]]; item.StoreID == storeID {
				out = append(out, item)
			}
		}
		return nil
	})
	return paginate(out, page), err
}

func (r *Repo) DeleteOrderItems(ctx context.Context, orderID int64) error {
	return r.run("DeleteOrderItems", func(st *state) error {
		for id, item := range st.items {
			if item.OrderID == orderID {
				delete(st.items, id)
			}
		}
		return nil
	})
}

func (r *Repo) AddCartItem(ctx context.Context, c *models.CartItem) error {
	return r.run("AddCartItem", func(st *state) error {
		c.ID = st.id()
		c.CreatedAt = now()
		c.UpdatedAt = c.CreatedAt
		st.cart[c.ID] = *c
		return nil
	})
}

func (r *Repo) GetCartItem(ctx context.Context, id int64) (*models.CartItem, error) {
	var out models.CartItem
	err := r.run("GetCartItem", func(st *state) error {
		c, ok := st.cart[id]
		if !ok {
			return store.ErrNotFound
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) ListCartItems(ctx context.Context, userID int64, page store.Page) ([]models.CartItem, error) {
	out := []models.CartItem{}
	err := r.run("ListCartItems", func(st *state) error {
		for _, id := range sortedIDs(st.cart) {
			if c := st.cart[id]; c.UserID == userID {
				out = append(out, c)
			}
		}
		return nil
	})
	return paginate(out, page), err
}

func (r *Repo) GetCartItemsForUpdate(ctx context.Context, userID int64, ids []int64) ([]models.CartItem, error) {
	out := []models.CartItem{}
	err := r.run("GetCartItemsForUpdate", func(st *state) error {
		want := make(map[int64]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		for _, id := range sortedIDs(st.cart) {
			if c := st.cart[id]; want[id] && c.UserID == userID {
				out = append(out, c)
			}
		}
		return nil
	})
	return out, err
}

func (r *Repo) DeleteCartItems(ctx context.Context, ids []int64) error {
	return r.run("DeleteCartItems", func(st *state) error {
		for _, id := range ids {
			delete(st.cart, id)
		}
		return nil
	})
}

func (r *Repo) CreatePayment(ctx context.Context, p *models.Payment) error {
	return r.run("CreatePayment", func(st *state) error {
		for _, existing := range st.payments {
			if existing.OrderID == p.OrderID || existing.Seq == p.Seq {
				return store.ErrDuplicate
			}
		}
		p.ID = st.id()
		p.CreatedAt = now()
		p.UpdatedAt = p.CreatedAt
		st.payments[p.ID] = *p
		return nil
	})
}

func (r *Repo) GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	var out models.Payment
	err := r.run("GetPaymentByOrderID", func(st *state) error {
		for _, p := range st.payments {
			if p.OrderID == orderID {
				out = p
				return nil
			}
		}
		return store.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
