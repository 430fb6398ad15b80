package service

import (
	"context"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/auth"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// CatalogService manages stores, goods and tags
type CatalogService struct {
	db     store.DB
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db store.DB) *CatalogService {
	return &CatalogService{db: db, logger: util.Named("catalog")}
}

type StoreRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	ImageID     *string `json:"image_id,omitempty"`
}

type StyleInput struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
	ImageID     *string `json:"image_id,omitempty"`
	Price       int64   `json:"price"`
}

type DetailInput struct {
	Text    *string `json:"text,omitempty"`
	ImageID *string `json:"image_id,omitempty"`
}

type CreateGoodRequest struct {
	StoreID     int64         `json:"store_id" binding:"required"`
	Name        string        `json:"name" binding:"required"`
	Description string        `json:"description"`
	Price       int64         `json:"price"`
	ImageID     *string       `json:"image_id,omitempty"`
	Styles      []StyleInput  `json:"styles"`
	Details     []DetailInput `json:"details"`
}

// UpdateGoodRequest updates a good. Nil fields keep their value; a non-nil
// Styles or Details list replaces the whole list.
type UpdateGoodRequest struct {
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
	Price       *int64        `json:"price,omitempty"`
	ImageID     *string       `json:"image_id,omitempty"`
	Styles      []StyleInput  `json:"styles,omitempty"`
	Details     []DetailInput `json:"details,omitempty"`
}

type TagRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

type BannerRequest struct {
	ImageID string `json:"image_id" binding:"required,max=256"`
}

// CreateStore opens a store owned by the actor
func (cs *CatalogService) CreateStore(ctx context.Context, actor *models.User, req *StoreRequest) (*models.Store, error) {
	s := &models.Store{
		OwnerID:     actor.ID,
		Name:        req.Name,
		Description: req.Description,
		ImageID:     req.ImageID,
	}
	if err := cs.db.CreateStore(ctx, s); err != nil {
		return nil, apperror.Internal("failed to create store", err)
	}

	cs.logger.Info("Store created", zap.Int64("store_id", s.ID), zap.Int64("owner_id", s.OwnerID))
	return s, nil
}

// ListStores lists the actor's stores, or every store for administrators
func (cs *CatalogService) ListStores(ctx context.Context, actor *models.User, page store.Page) ([]models.Store, error) {
	stores, err := cs.db.ListStores(ctx, ownerFilter(actor), NormalizePage(page))
	if err != nil {
		return nil, apperror.Internal("failed to list stores", err)
	}
	return stores, nil
}

func (cs *CatalogService) ownedStore(ctx context.Context, repo store.Repository, actor *models.User, id int64) (*models.Store, error) {
	s, err := repo.GetStore(ctx, id)
	if err != nil {
		return nil, translate(err, "Store")
	}
	if !auth.CanAccess(actor, s.OwnerID) {
		return nil, apperror.Forbidden("Store %d is not yours.", id)
	}
	return s, nil
}

func (cs *CatalogService) UpdateStore(ctx context.Context, actor *models.User, id int64, req *StoreRequest) (*models.Store, error) {
	s, err := cs.ownedStore(ctx, cs.db, actor, id)
	if err != nil {
		return nil, err
	}

	s.Name, s.Description, s.ImageID = req.Name, req.Description, req.ImageID
	if err := cs.db.UpdateStore(ctx, s); err != nil {
		return nil, translate(err, "Store")
	}
	return s, nil
}

// DeleteStore deletes a store that no longer lists any goods
func (cs *CatalogService) DeleteStore(ctx context.Context, actor *models.User, id int64) error {
	return cs.db.InTx(ctx, func(tx store.Repository) error {
		if _, err := cs.ownedStore(ctx, tx, actor, id); err != nil {
			return err
		}

		goods, err := tx.ListGoodsByStore(ctx, id, store.Page{Limit: 1})
		if err != nil {
			return apperror.Internal("failed to list goods", err)
		}
		if len(goods) > 0 {
			return apperror.Conflict("Store %d still has goods.", id)
		}
		return translate(tx.DeleteStore(ctx, id), "Store")
	})
}

func validatePrices(price *int64, styles []StyleInput) error {
	if price != nil && *price < 0 {
		return apperror.InvalidInput("Price must not be negative.")
	}
	for _, s := range styles {
		if s.Price < 0 {
			return apperror.InvalidInput("Style price must not be negative.")
		}
	}
	return nil
}

func toStyles(in []StyleInput) []models.GoodStyle {
	styles := make([]models.GoodStyle, 0, len(in))
	for _, s := range in {
		styles = append(styles, models.GoodStyle{
			Name:        s.Name,
			Description: s.Description,
			ImageID:     s.ImageID,
			Price:       s.Price,
		})
	}
	return styles
}

func toDetails(in []DetailInput) []models.GoodDetail {
	details := make([]models.GoodDetail, 0, len(in))
	for _, d := range in {
		details = append(details, models.GoodDetail{Text: d.Text, ImageID: d.ImageID})
	}
	return details
}

// CreateGood lists a good with its styles and details in a store the actor
// owns
func (cs *CatalogService) CreateGood(ctx context.Context, actor *models.User, req *CreateGoodRequest) (*models.Good, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateGood")
	defer span.End()

	if err := validatePrices(&req.Price, req.Styles); err != nil {
		return nil, err
	}

	good := &models.Good{
		StoreID:     req.StoreID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageID:     req.ImageID,
		Styles:      toStyles(req.Styles),
		Details:     toDetails(req.Details),
	}

	err := cs.db.InTx(ctx, func(tx store.Repository) error {
		if _, err := cs.ownedStore(ctx, tx, actor, req.StoreID); err != nil {
			return err
		}
		if err := tx.CreateGood(ctx, good); err != nil {
			return apperror.Internal("failed to create good", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cs.logger.Info("Good created", zap.Int64("good_id", good.ID), zap.Int64("store_id", good.StoreID))
	return good, nil
}

// GetGood returns a good with styles and details
func (cs *CatalogService) GetGood(ctx context.Context, id int64) (*models.Good, error) {
	good, err := cs.db.GetGood(ctx, id)
	if err != nil {
		return nil, translate(err, "Good")
	}
	return good, nil
}

// ListGoods lists the goods of a store
func (cs *CatalogService) ListGoods(ctx context.Context, storeID int64, page store.Page) ([]models.Good, error) {
	if _, err := cs.db.GetStore(ctx, storeID); err != nil {
		return nil, translate(err, "Store")
	}

	goods, err := cs.db.ListGoodsByStore(ctx, storeID, NormalizePage(page))
	if err != nil {
		return nil, apperror.Internal("failed to list goods", err)
	}
	return goods, nil
}

func (cs *CatalogService) ownedGood(ctx context.Context, tx store.Repository, actor *models.User, id int64) (*models.Good, error) {
	good, err := tx.GetGood(ctx, id)
	if err != nil {
		return nil, translate(err, "Good")
	}
	if _, err := cs.ownedStore(ctx, tx, actor, good.StoreID); err != nil {
		return nil, err
	}
	return good, nil
}

// UpdateGood changes a good. Existing order items keep the price they were
// created with.
func (cs *CatalogService) UpdateGood(ctx context.Context, actor *models.User, id int64, req *UpdateGoodRequest) (*models.Good, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateGood")
	defer span.End()

	if err := validatePrices(req.Price, req.Styles); err != nil {
		return nil, err
	}

	var good *models.Good
	err := cs.db.InTx(ctx, func(tx store.Repository) error {
		current, err := cs.ownedGood(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			current.Name = *req.Name
		}
		if req.Description != nil {
			current.Description = *req.Description
		}
		if req.Price != nil {
			current.Price = *req.Price
		}
		if req.ImageID != nil {
			current.ImageID = req.ImageID
		}
		if err := tx.UpdateGood(ctx, current); err != nil {
			return translate(err, "Good")
		}

		if req.Styles != nil {
			if err := tx.ReplaceGoodStyles(ctx, id, toStyles(req.Styles)); err != nil {
				return apperror.Internal("failed to replace styles", err)
			}
		}
		if req.Details != nil {
			if err := tx.ReplaceGoodDetails(ctx, id, toDetails(req.Details)); err != nil {
				return apperror.Internal("failed to replace details", err)
			}
		}

		good, err = tx.GetGood(ctx, id)
		return translate(err, "Good")
	})
	if err != nil {
		return nil, err
	}
	return good, nil
}

// DeleteGood removes a good with its styles, details, tag links and cart
// entries. Historical order items are kept.
func (cs *CatalogService) DeleteGood(ctx context.Context, actor *models.User, id int64) error {
	err := cs.db.InTx(ctx, func(tx store.Repository) error {
		if _, err := cs.ownedGood(ctx, tx, actor, id); err != nil {
			return err
		}
		return translate(tx.DeleteGood(ctx, id), "Good")
	})
	if err != nil {
		return err
	}

	cs.logger.Info("Good deleted", zap.Int64("good_id", id))
	return nil
}

// CreateTag creates a tag. Tags are shared across stores, so only
// administrators create them.
func (cs *CatalogService) CreateTag(ctx context.Context, actor *models.User, req *TagRequest) (*models.Tag, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("Only administrators can create tags.")
	}

	tag := &models.Tag{Name: req.Name, Description: req.Description}
	if err := cs.db.CreateTag(ctx, tag); err != nil {
		return nil, apperror.Internal("failed to create tag", err)
	}
	return tag, nil
}

func (cs *CatalogService) ListTags(ctx context.Context, page store.Page) ([]models.Tag, error) {
	tags, err := cs.db.ListTags(ctx, NormalizePage(page))
	if err != nil {
		return nil, apperror.Internal("failed to list tags", err)
	}
	return tags, nil
}

// TagGood attaches a tag to a good of a store the actor owns
func (cs *CatalogService) TagGood(ctx context.Context, actor *models.User, tagID, goodID int64) error {
	return cs.db.InTx(ctx, func(tx store.Repository) error {
		if _, err := tx.GetTag(ctx, tagID); err != nil {
			return translate(err, "Tag")
		}
		if _, err := cs.ownedGood(ctx, tx, actor, goodID); err != nil {
			return err
		}
		if err := tx.LinkTag(ctx, tagID, goodID); err != nil {
			return apperror.Internal("failed to link tag", err)
		}
		return nil
	})
}

// CreateBanner adds a storefront banner. Only administrators manage banners.
func (cs *CatalogService) CreateBanner(ctx context.Context, actor *models.User, req *BannerRequest) (*models.Banner, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("Only administrators can manage banners.")
	}
	if req.ImageID == "" {
		return nil, apperror.InvalidInput("Image is required.")
	}

	banner := &models.Banner{ImageID: req.ImageID}
	if err := cs.db.CreateBanner(ctx, banner); err != nil {
		return nil, apperror.Internal("failed to create banner", err)
	}
	return banner, nil
}

func (cs *CatalogService) ListActiveBanners(ctx context.Context, page store.Page) ([]models.Banner, error) {
	banners, err := cs.db.ListActiveBanners(ctx, NormalizePage(page))
	if err != nil {
		return nil, apperror.Internal("failed to list banners", err)
	}
	return banners, nil
}

// DeleteBanner hides a banner from the active list
func (cs *CatalogService) DeleteBanner(ctx context.Context, actor *models.User, id int64) error {
	if !actor.IsAdmin() {
		return apperror.Forbidden("Only administrators can manage banners.")
	}
	if err := cs.db.DeleteBanner(ctx, id); err != nil {
		return translate(err, "Banner")
	}
	return nil
}
