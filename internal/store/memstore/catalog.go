package memstore

import (
	"context"

	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
)

func (r *Repo) CreateStore(ctx context.Context, s *models.Store) error {
	return r.run("CreateStore", func(st *state) error {
		s.ID = st.id()
		s.CreatedAt = now()
		s.UpdatedAt = s.CreatedAt
		st.stores[s.ID] = *s
		return nil
	})
}

func (r *Repo) GetStore(ctx context.Context, id int64) (*models.Store, error) {
	var out models.Store
	err := r.run("GetStore", func(st *state) error {
		s, ok := st.stores[id]
		if !ok {
			return store.ErrNotFound
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) ListStores(ctx context.Context, ownerID *int64, page store.Page) ([]models.Store, error) {
	out := []models.Store{}
	err := r.run("ListStores", func(st *state) error {
		for _, id := range sortedIDs(st.stores) {
			s := st.stores[id]
			if ownerID == nil || s.OwnerID == *ownerID {
				out = append(out, s)
			}
		}
		return nil
	})
	return paginate(out, page), err
}

func (r *Repo) UpdateStore(ctx context.Context, s *models.Store) error {
	return r.run("UpdateStore", func(st *state) error {
		cur, ok := st.stores[s.ID]
		if !ok {
			return store.ErrNotFound
		}
		cur.Name, cur.Description, cur.ImageID = s.Name, s.Description, s.ImageID
		cur.UpdatedAt = now()
		st.stores[s.ID] = cur
		s.UpdatedAt = cur.UpdatedAt
		return nil
	})
}

func (r *Repo) DeleteStore(ctx context.Context, id int64) error {
	return r.run("DeleteStore", func(st *state) error {
		if _, ok := st.stores[id]; !ok {
			return store.ErrNotFound
		}
		delete(st.stores, id)
		return nil
	})
}

func (r *Repo) CreateGood(ctx context.Context, g *models.Good) error {
	return r.run("CreateGood", func(st *state) error {
		g.ID = st.id()
		g.CreatedAt = now()
		g.UpdatedAt = g.CreatedAt
		row := *g
		row.Styles, row.Details = nil, nil
		st.goods[g.ID] = row
		insertStyles(st, g.ID, g.Styles)
		insertDetails(st, g.ID, g.Details)
		return nil
	})
}

func insertStyles(st *state, goodID int64, styles []models.GoodStyle) {
	for i := range styles {
		style := &styles[i]
		style.ID = st.id()
		style.GoodID = goodID
		style.CreatedAt = now()
		style.UpdatedAt = style.CreatedAt
		st.styles[style.ID] = *style
	}
}

func insertDetails(st *state, goodID int64, details []models.GoodDetail) {
	for i := range details {
		detail := &details[i]
		detail.ID = st.id()
		detail.GoodID = goodID
		detail.CreatedAt = now()
		detail.UpdatedAt = detail.CreatedAt
		st.details[detail.ID] = *detail
	}
}

func stylesOf(st *state, goodID int64) []models.GoodStyle {
	styles := []models.GoodStyle{}
	for _, id := range sortedIDs(st.styles) {
		if s := st.styles[id]; s.GoodID == goodID {
			styles = append(styles, s)
		}
	}
	return styles
}

func (r *Repo) GetGood(ctx context.Context, id int64) (*models.Good, error) {
	var out models.Good
	err := r.run("GetGood", func(st *state) error {
		g, ok := st.goods[id]
		if !ok {
			return store.ErrNotFound
		}
		g.Styles = stylesOf(st, id)
		g.Details = []models.GoodDetail{}
		for _, did := range sortedIDs(st.details) {
			if d := st.details[did]; d.GoodID == id {
				g.Details = append(g.Details, d)
			}
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) GetGoodsWithStyles(ctx context.Context, ids []int64) ([]models.Good, error) {
	out := []models.Good{}
	err := r.run("GetGoodsWithStyles", func(st *state) error {
		seen := map[int64]bool{}
		for _, id := range ids {
			g, ok := st.goods[id]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			g.Styles = stylesOf(st, id)
			out = append(out, g)
		}
		return nil
	})
	return out, err
}

func (r *Repo) ListGoodsByStore(ctx context.Context, storeID int64, page store.Page) ([]models.Good, error) {
	out := []models.Good{}
	err := r.run("ListGoodsByStore", func(st *state) error {
		for _, id := range sortedIDs(st.goods) {
			if g := st.goods[id]; g.StoreID == storeID {
				out = append(out, g)
			}
		}
		return nil
	})
	return paginate(out, page), err
}

func (r *Repo) UpdateGood(ctx context.Context, g *models.Good) error {
	return r.run("UpdateGood", func(st *state) error {
		cur, ok := st.goods[g.ID]
		if !ok {
			return store.ErrNotFound
		}
		cur.Name, cur.Description, cur.Price, cur.ImageID = g.Name, g.Description, g.Price, g.ImageID
		cur.UpdatedAt = now()
		st.goods[g.ID] = cur
		g.UpdatedAt = cur.UpdatedAt
		return nil
	})
}

func (r *Repo) ReplaceGoodStyles(ctx context.Context, goodID int64, styles []models.GoodStyle) error {
	return r.run("ReplaceGoodStyles", func(st *state) error {
		for id, s := range st.styles {
			if s.GoodID == goodID {
				delete(st.styles, id)
			}
		}
		insertStyles(st, goodID, styles)
		return nil
	})
}

func (r *Repo) ReplaceGoodDetails(ctx context.Context, goodID int64, details []models.GoodDetail) error {
	return r.run("ReplaceGoodDetails", func(st *state) error {
		for id, d := range st.details {
			if d.GoodID == goodID {
				delete(st.details, id)
			}
		}
		insertDetails(st, goodID, details)
		return nil
	})
}

func (r *Repo) DeleteGood(ctx context.Context, id int64) error {
	return r.run("DeleteGood", func(st *state) error {
		if _, ok := st.goods[id]; !ok {
			return store.ErrNotFound
		}
		for sid, s := range st.styles {
			if s.GoodID == id {
				delete(st.styles, sid)
			}
		}
		for did, d := range st.details {
			if d.GoodID == id {
				delete(st.details, did)
			}
		}
		for link := range st.tagGoods {
			if link.goodID == id {
				delete(st.tagGoods, link)
			}
		}
		for cid, c := range st.cart {
			if c.GoodID == id {
				delete(st.cart, cid)
			}
		}
		delete(st.goods, id)
		return nil
	})
}

func (r *Repo) CreateTag(ctx context.Context, t *models.Tag) error {
	return r.run("CreateTag", func(st *state) error {
		t.ID = st.id()
		t.CreatedAt = now()
		t.UpdatedAt = t.CreatedAt
		st.tags[t.ID] = *t
		return nil
	})
}

func (r *Repo) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	var out models.Tag
	err := r.run("GetTag", func(st *state) error {
		t, ok := st.tags[id]
		if !ok {
			return store.ErrNotFound
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) ListTags(ctx context.Context, page store.Page) ([]models.Tag, error) {
	out := []models.Tag{}
	err := r.run("ListTags", func(st *state) error {
		for _, id := range sortedIDs(st.tags) {
			out = append(out, st.tags[id])
		}
		return nil
	})
	return paginate(out, page), err
}

func (r *Repo) LinkTag(ctx context.Context, tagID, goodID int64) error {
	return r.run("LinkTag", func(st *state) error {
		st.tagGoods[tagLink{tagID: tagID, goodID: goodID}] = struct{}{}
		return nil
	})
}

func (r *Repo) CreateBanner(ctx context.Context, b *models.Banner) error {
	return r.run("CreateBanner", func(st *state) error {
		b.ID = st.id()
		b.Deleted = false
		b.CreatedAt = now()
		b.UpdatedAt = b.CreatedAt
		st.banners[b.ID] = *b
		return nil
	})
}

func (r *Repo) ListActiveBanners(ctx context.Context, page store.Page) ([]models.Banner, error) {
	out := []models.Banner{}
	err := r.run("ListActiveBanners", func(st *state) error {
		for _, id := range sortedIDs(st.banners) {
			if b := st.banners[id]; !b.Deleted {
				out = append(out, b)
			}
		}
		return nil
	})
	return paginate(out, page), err
}

func (r *Repo) DeleteBanner(ctx context.Context, id int64) error {
	return r.run("DeleteBanner", func(st *state) error {
		b, ok := st.banners[id]
		if !ok || b.Deleted {
			return store.ErrNotFound
		}
		b.Deleted = true
		b.UpdatedAt = now()
		st.banners[id] = b
		return nil
	})
}
