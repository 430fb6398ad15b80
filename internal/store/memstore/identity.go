package memstore

import (
	"context"
	"sort"

	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
)

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	return r.run("CreateUser", func(st *state) error {
		for _, existing := range st.users {
			if existing.Username == u.Username {
				return store.ErrDuplicate
			}
		}
		u.ID = st.id()
		u.CreatedAt = now()
		u.UpdatedAt = u.CreatedAt
		st.users[u.ID] = *u
		return nil
	})
}

func (r *Repo) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var out models.User
	err := r.run("GetUser", func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return store.ErrNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) UpdateUser(ctx context.Context, u *models.User) error {
	return r.run("UpdateUser", func(st *state) error {
		cur, ok := st.users[u.ID]
		if !ok {
			return store.ErrNotFound
		}
		cur.PhoneNumber, cur.Email, cur.Gender, cur.Bio, cur.AvatarID = u.PhoneNumber, u.Email, u.Gender, u.Bio, u.AvatarID
		cur.UpdatedAt = now()
		st.users[u.ID] = cur
		u.UpdatedAt = cur.UpdatedAt
		return nil
	})
}

func (r *Repo) CreateAddress(ctx context.Context, a *models.Address) error {
	return r.run("CreateAddress", func(st *state) error {
		a.ID = st.id()
		a.CreatedAt = now()
		a.UpdatedAt = a.CreatedAt
		st.addresses[a.ID] = *a
		return nil
	})
}

func (r *Repo) GetAddress(ctx context.Context, id int64) (*models.Address, error) {
	var out models.Address
	err := r.run("GetAddress", func(st *state) error {
		a, ok := st.addresses[id]
		if !ok {
			return store.ErrNotFound
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) ListAddresses(ctx context.Context, userID *int64, page store.Page) ([]models.Address, error) {
	out := []models.Address{}
	err := r.run("ListAddresses", func(st *state) error {
		for _, id := range sortedIDs(st.addresses) {
			a := st.addresses[id]
			if userID == nil || a.UserID == *userID {
				out = append(out, a)
			}
		}
		return nil
	})
	return paginate(out, page), err
}

func (r *Repo) UpdateAddress(ctx context.Context, a *models.Address) error {
	return r.run("UpdateAddress", func(st *state) error {
		cur, ok := st.addresses[a.ID]
		if !ok {
			return store.ErrNotFound
		}
		cur.Postcode, cur.Detail, cur.Name, cur.PhoneNumber, cur.Comment = a.Postcode, a.Detail, a.Name, a.PhoneNumber, a.Comment
		cur.UpdatedAt = now()
		st.addresses[a.ID] = cur
		a.UpdatedAt = cur.UpdatedAt
		return nil
	})
}

func (r *Repo) DeleteAddress(ctx context.Context, id int64) error {
	return r.run("DeleteAddress", func(st *state) error {
		if _, ok := st.addresses[id]; !ok {
			return store.ErrNotFound
		}
		delete(st.addresses, id)
		return nil
	})
}

func (r *Repo) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.run("CreateNotification", func(st *state) error {
		n.ID = st.id()
		n.CreatedAt = now()
		n.UpdatedAt = n.CreatedAt
		st.notifications[n.ID] = *n
		return nil
	})
}

func (r *Repo) ListNotifications(ctx context.Context, userID int64, page store.Page) ([]models.Notification, error) {
	out := []models.Notification{}
	err := r.run("ListNotifications", func(st *state) error {
		for _, n := range st.notifications {
			if n.UserID == userID {
				out = append(out, n)
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

func (r *Repo) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var found bool
	err := r.run("IsEventProcessed", func(st *state) error {
		_, found = st.processed[eventID]
		return nil
	})
	return found, err
}

func (r *Repo) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	return r.run("MarkEventProcessed", func(st *state) error {
		if _, ok := st.processed[eventID]; !ok {
			st.processed[eventID] = eventType
		}
		return nil
	})
}
