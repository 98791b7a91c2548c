package repository

import (
	"errors"

	"gorm.io/gorm"

	"storefront-backend/internal/models"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// CheckoutSessionRepository persists checkout sessions across the external
// payment redirect boundary.
type CheckoutSessionRepository interface {
	Create(session *models.CheckoutSession) error
	Update(session *models.CheckoutSession) error
	GetByID(id string) (*models.CheckoutSession, error)
	GetByExternalRef(ref string) (*models.CheckoutSession, error)
	GetLatestPendingByUser(userID uint) (*models.CheckoutSession, error)
}

type checkoutSessionRepository struct {
	db *gorm.DB
}

func NewCheckoutSessionRepository(db *gorm.DB) CheckoutSessionRepository {
	return &checkoutSessionRepository{db: db}
}

func (r *checkoutSessionRepository) Create(session *models.CheckoutSession) error {
	if session == nil {
		return gorm.ErrInvalidData
	}
	return r.db.Create(session).Error
}

func (r *checkoutSessionRepository) Update(session *models.CheckoutSession) error {
	if session == nil {
		return gorm.ErrInvalidData
	}
	return r.db.Save(session).Error
}

func (r *checkoutSessionRepository) GetByID(id string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *checkoutSessionRepository) GetByExternalRef(ref string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.First(&session, "external_session_ref = ?", ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *checkoutSessionRepository) GetLatestPendingByUser(userID uint) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.
		Where("user_id = ? AND state = ?", userID, models.CheckoutStateAwaitingPayment).
		Order("created_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
