package service

import (
	"context"
	"errors"
	"time"

	"marketplace-service/internal/apperror"
	"marketplace-service/internal/models"
	"marketplace-service/internal/store"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// IdentityService manages accounts, profiles and shipping addresses
type IdentityService struct {
	db     store.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewIdentityService creates a new identity service
func NewIdentityService(db store.DB) *IdentityService {
	return &IdentityService{db: db, logger: util.Named("identity"), now: time.Now}
}

type RegisterRequest struct {
	Username    string  `json:"username" binding:"required"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Email       *string `json:"email,omitempty"`
	Gender      int     `json:"gender"`
	Bio         *string `json:"bio,omitempty"`
}

type UpdateUserRequest struct {
	PhoneNumber *string `json:"phone_number,omitempty"`
	Email       *string `json:"email,omitempty"`
	Gender      *int    `json:"gender,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	AvatarID    *string `json:"avatar_id,omitempty"`
}

type AddressRequest struct {
	Postcode    *string `json:"postcode,omitempty"`
	Detail      string  `json:"detail" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	PhoneNumber string  `json:"phone_number" binding:"required"`
	Comment     *string `json:"comment,omitempty"`
}

// Profile summarizes the actor's account
type Profile struct {
	RegistrationDays int                        `json:"reg_days"`
	OrderCount       int                        `json:"order_count"`
	OrdersByStatus   map[models.OrderStatus]int `json:"orders_by_status"`
}

// Register creates a regular user account
func (is *IdentityService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	return is.register(ctx, req, models.RoleUser)
}

// RegisterAdmin creates an administrator account. Only administrators may
// call it.
func (is *IdentityService) RegisterAdmin(ctx context.Context, actor *models.User, req *RegisterRequest) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("Only administrators can create administrators.")
	}
	return is.register(ctx, req, models.RoleAdmin)
}

func (is *IdentityService) register(ctx context.Context, req *RegisterRequest, role models.Role) (*models.User, error) {
	user := &models.User{
		Username:    req.Username,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Gender:      req.Gender,
		Bio:         req.Bio,
		Role:        role,
	}
	if err := is.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Conflict("Duplicate username.")
		}
		return nil, apperror.Internal("failed to create user", err)
	}

	is.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.Int("role", int(user.Role)))
	return user, nil
}

// UpdateMe updates the actor's own profile fields
func (is *IdentityService) UpdateMe(ctx context.Context, actor *models.User, req *UpdateUserRequest) (*models.User, error) {
	user, err := is.db.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, translate(err, "User")
	}

	if req.PhoneNumber != nil {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.AvatarID != nil {
		user.AvatarID = req.AvatarID
	}

	if err := is.db.UpdateUser(ctx, user); err != nil {
		return nil, translate(err, "User")
	}
	return user, nil
}

// Profile returns registration age and order counts of the actor
func (is *IdentityService) Profile(ctx context.Context, actor *models.User) (*Profile, error) {
	counts, err := is.db.CountOrdersByStatus(ctx, actor.ID)
	if err != nil {
		return nil, apperror.Internal("failed to count orders", err)
	}

	profile := &Profile{
		RegistrationDays: int(is.now().Sub(actor.CreatedAt).Hours() / 24),
		OrdersByStatus:   make(map[models.OrderStatus]int, 4),
	}
	for _, status := range []models.OrderStatus{
		models.OrderStatusCreated,
		models.OrderStatusPaid,
		models.OrderStatusShipped,
		models.OrderStatusReceived,
	} {
		profile.OrdersByStatus[status] = counts[status]
	}
	for _, n := range counts {
		profile.OrderCount += n
	}
	return profile, nil
}

// CreateAddress adds a shipping address for the actor
func (is *IdentityService) CreateAddress(ctx context.Context, actor *models.User, req *AddressRequest) (*models.Address, error) {
	address := &models.Address{
		UserID:      actor.ID,
		Postcode:    req.Postcode,
		Detail:      req.Detail,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Comment:     req.Comment,
	}
	if err := is.db.CreateAddress(ctx, address); err != nil {
		return nil, apperror.Internal("failed to create address", err)
	}
	return address, nil
}

// ListAddresses lists the actor's addresses, or all for administrators
func (is *IdentityService) ListAddresses(ctx context.Context, actor *models.User, page store.Page) ([]models.Address, error) {
	addresses, err := is.db.ListAddresses(ctx, ownerFilter(actor), NormalizePage(page))
	if err != nil {
		return nil, apperror.Internal("failed to list addresses", err)
	}
	return addresses, nil
}

func (is *IdentityService) UpdateAddress(ctx context.Context, actor *models.User, id int64, req *AddressRequest) (*models.Address, error) {
	address, err := accessibleAddress(ctx, is.db, actor, id)
	if err != nil {
		return nil, err
	}

	address.Postcode = req.Postcode
	address.Detail = req.Detail
	address.Name = req.Name
	address.PhoneNumber = req.PhoneNumber
	address.Comment = req.Comment
	if err := is.db.UpdateAddress(ctx, address); err != nil {
		return nil, translate(err, "Address")
	}
	return address, nil
}

func (is *IdentityService) DeleteAddress(ctx context.Context, actor *models.User, id int64) error {
	if _, err := accessibleAddress(ctx, is.db, actor, id); err != nil {
		return err
	}
	return translate(is.db.DeleteAddress(ctx, id), "Address")
}
