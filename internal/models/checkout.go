package models

import (
	"time"
)

// CheckoutState is the closed set of checkout session states. Completed,
// failed and cancelled are terminal; a new attempt always starts a fresh
// session.
type CheckoutState string

const (
	CheckoutStateValidating      CheckoutState = "validating"
	CheckoutStateAwaitingPayment CheckoutState = "awaiting_payment"
	CheckoutStateVerifying       CheckoutState = "verifying"
	CheckoutStateCompleted       CheckoutState = "completed"
	CheckoutStateFailed          CheckoutState = "failed"
	CheckoutStateCancelled       CheckoutState = "cancelled"
)

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateCompleted || s == CheckoutStateFailed || s == CheckoutStateCancelled
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

// ShippingDetails is the customer-entered shipping form. It is kept on the
// checkout session between the redirect to the payment processor and the
// verification of the returned session reference.
type ShippingDetails struct {
	FirstName  string `json:"firstName" gorm:"not null" binding:"required" validate:"required,no_html"`
	LastName   string `json:"lastName" gorm:"not null" binding:"required" validate:"required,no_html"`
	Email      string `json:"email" gorm:"not null" binding:"required" validate:"required,email"`
	Address    string `json:"address" gorm:"not null" binding:"required" validate:"required,no_html"`
	City       string `json:"city" gorm:"not null" binding:"required" validate:"required,no_html"`
	PostalCode string `json:"postalCode" gorm:"not null" binding:"required" validate:"required,postal_code"`
}

// CheckoutSession is one checkout attempt. It survives the external
// redirect boundary as a database row keyed by a locally generated uuid.
type CheckoutSession struct {
	ID        string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint   `gorm:"not null;index" json:"user_id"`
	CartID string `gorm:"not null" json:"cart_id"`

	State CheckoutState `gorm:"type:varchar(32);not null" json:"state"`

	// Opaque token issued by the external payment processor; required to
	// leave the awaiting_payment state.
	ExternalSessionRef string `gorm:"index" json:"external_session_ref,omitempty"`

	Shipping ShippingDetails `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`

	FailureReason string `json:"failure_reason,omitempty"`
	OrderID       int64  `json:"order_id,omitempty"`
}

type CheckoutRequest struct {
	Shipping ShippingDetails `json:"shipping" binding:"required"`
}
