package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	playgroundvalidator "github.com/go-playground/validator/v10"

	"storefront-backend/internal/gateway"
	"storefront-backend/internal/models"
	"storefront-backend/internal/repository"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/validator"
)

const (
	msgShippingIncomplete  = "Please fill in all required shipping information"
	msgInvalidEmail        = "Please enter a valid email address"
	msgSessionCreateFailed = "Failed to create checkout session. Please try again."
	msgVerifyFailed        = "Failed to verify payment. Please contact support."
	msgVerifyMismatch      = "Payment verification failed. Please contact support with your order ID."
)

// CheckoutService sequences the one-shot pipeline from checkout intent to
// order confirmation, across the redirect to the external payment
// processor. Card data never crosses this system.
type CheckoutService struct {
	payments PaymentGateway
	cart     CartUseCase
	store    *CartStore
	sessions repository.CheckoutSessionRepository
}

func NewCheckoutService(payments PaymentGateway, cart CartUseCase, store *CartStore, sessions repository.CheckoutSessionRepository) *CheckoutService {
	return &CheckoutService{
		payments: payments,
		cart:     cart,
		store:    store,
		sessions: sessions,
	}
}

// Begin validates the cart and shipping form, opens a payment session
// keyed by the cart identity and persists the attempt so it survives the
// redirect. Validation failure makes no backend call and persists nothing.
func (s *CheckoutService) Begin(ctx context.Context, identity models.Identity, req models.CheckoutRequest) (*models.CheckoutSession, string, error) {
	if !identity.Authenticated {
		return nil, "", gateway.NewError(gateway.KindAuthRequired, msgLoginFirst)
	}

	shipping := sanitizeShipping(req.Shipping)
	if err := validateShipping(shipping); err != nil {
		return nil, "", err
	}

	snapshot := s.store.Snapshot(identity.UserID)
	if len(snapshot.Items) == 0 || snapshot.CartID == "" {
		return nil, "", gateway.NewError(gateway.KindValidation, msgEmptyCart)
	}

	paymentSession, err := s.payments.CreatePaymentSession(ctx, identity.Token, snapshot.CartID)
	if err != nil {
		return nil, "", err
	}

	session := &models.CheckoutSession{
		ID:                 uuid.NewString(),
		UserID:             identity.UserID,
		CartID:             snapshot.CartID,
		State:              models.CheckoutStateAwaitingPayment,
		ExternalSessionRef: paymentSession.SessionID,
		Shipping:           shipping,
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, "", &gateway.Error{Kind: gateway.KindBackend, Message: msgSessionCreateFailed, Err: err}
	}

	logger.Info("Checkout session opened", map[string]interface{}{
		"session_id": session.ID,
		"cart_id":    session.CartID,
		"user_id":    identity.UserID,
	})
	return session, paymentSession.SessionURL, nil
}

// Complete handles the return leg of the redirect. An empty session
// reference means the customer abandoned the external payment page: the
// session is cancelled and the cart explicitly preserved. A present
// reference is verified upstream; only a verified success completes the
// session and refreshes the cart mirror.
func (s *CheckoutService) Complete(ctx context.Context, identity models.Identity, sessionRef string) (*models.CheckoutSession, error) {
	if !identity.Authenticated {
		return nil, gateway.NewError(gateway.KindAuthRequired, msgLoginFirst)
	}

	if sessionRef == "" {
		return s.cancelPending(identity)
	}

	session, err := s.sessions.GetByExternalRef(sessionRef)
	if errors.Is(err, repository.ErrSessionNotFound) {
		// Verification is backend-driven; a return leg may arrive without
		// a locally persisted attempt.
		session = &models.CheckoutSession{
			ID:                 uuid.NewString(),
			UserID:             identity.UserID,
			State:              models.CheckoutStateVerifying,
			ExternalSessionRef: sessionRef,
		}
		if createErr := s.sessions.Create(session); createErr != nil {
			return nil, &gateway.Error{Kind: gateway.KindBackend, Message: msgVerifyFailed, Err: createErr}
		}
	} else if err != nil {
		return nil, &gateway.Error{Kind: gateway.KindBackend, Message: msgVerifyFailed, Err: err}
	} else if session.UserID != identity.UserID {
		// A session reference belonging to someone else is indistinguishable
		// from an unknown one.
		return nil, gateway.NewError(gateway.KindNotFound, "Checkout session not found")
	}

	// Terminal states are final; re-verifying a finished session returns
	// it untouched.
	if session.State.IsTerminal() {
		return session, nil
	}

	session.State = models.CheckoutStateVerifying
	if err := s.sessions.Update(session); err != nil {
		return nil, &gateway.Error{Kind: gateway.KindBackend, Message: msgVerifyFailed, Err: err}
	}

	verification, err := s.payments.VerifyPaymentSession(ctx, identity.Token, sessionRef)
	if err != nil {
		// Transport failures say nothing about the payment outcome. The
		// session stays in verifying so a later visit of the return URL
		// can still confirm it.
		return session, err
	}

	if verification.Status != models.PaymentStatusSuccess {
		s.finalize(session, models.CheckoutStateFailed, msgVerifyMismatch)
		return session, gateway.NewError(gateway.KindVerificationMismatch, msgVerifyMismatch)
	}

	session.OrderID = verification.OrderID
	// The backend deleted the paid-for cart as a payment side effect; the
	// shipping data has served its purpose.
	session.Shipping = models.ShippingDetails{}
	s.finalize(session, models.CheckoutStateCompleted, "")

	if _, refreshErr := s.cart.Refresh(ctx, identity); refreshErr != nil {
		logger.Warn("Cart refresh after checkout failed", map[string]interface{}{
			"session_id": session.ID,
			"error":      refreshErr.Error(),
		})
	}

	logger.Info("Checkout completed", map[string]interface{}{
		"session_id": session.ID,
		"order_id":   session.OrderID,
	})
	return session, nil
}

// Get returns one of the caller's checkout sessions.
func (s *CheckoutService) Get(ctx context.Context, identity models.Identity, sessionID string) (*models.CheckoutSession, error) {
	if !identity.Authenticated {
		return nil, gateway.NewError(gateway.KindAuthRequired, msgLoginFirst)
	}

	session, err := s.sessions.GetByID(sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, gateway.NewError(gateway.KindNotFound, "Checkout session not found")
	}
	if err != nil {
		return nil, &gateway.Error{Kind: gateway.KindBackend, Message: "An error occurred", Err: err}
	}
	if session.UserID != identity.UserID {
		return nil, gateway.NewError(gateway.KindNotFound, "Checkout session not found")
	}
	return session, nil
}

func (s *CheckoutService) cancelPending(identity models.Identity) (*models.CheckoutSession, error) {
	session, err := s.sessions.GetLatestPendingByUser(identity.UserID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, gateway.NewError(gateway.KindAbandonedSession, "No payment session in progress")
	}
	if err != nil {
		return nil, &gateway.Error{Kind: gateway.KindBackend, Message: "An error occurred", Err: err}
	}

	// Cart intentionally preserved: cancellation is a neutral outcome.
	s.finalize(session, models.CheckoutStateCancelled, "")
	logger.Info("Checkout cancelled", map[string]interface{}{"session_id": session.ID})
	return session, nil
}

func (s *CheckoutService) finalize(session *models.CheckoutSession, state models.CheckoutState, reason string) {
	session.State = state
	session.FailureReason = reason
	if err := s.sessions.Update(session); err != nil {
		logger.Error(err, "Failed to persist checkout session state", map[string]interface{}{
			"session_id": session.ID,
			"state":      state.String(),
		})
	}
	checkoutOutcomes.WithLabelValues(state.String()).Inc()
}

func sanitizeShipping(shipping models.ShippingDetails) models.ShippingDetails {
	shipping.FirstName = validator.SanitizeString(validator.TrimSpaces(shipping.FirstName))
	shipping.LastName = validator.SanitizeString(validator.TrimSpaces(shipping.LastName))
	shipping.Email = validator.TrimSpaces(shipping.Email)
	shipping.Address = validator.SanitizeString(validator.NormalizeSpaces(validator.TrimSpaces(shipping.Address)))
	shipping.City = validator.SanitizeString(validator.TrimSpaces(shipping.City))
	shipping.PostalCode = validator.TrimSpaces(shipping.PostalCode)
	return shipping
}

func validateShipping(shipping models.ShippingDetails) error {
	err := validator.Validate(shipping)
	if err == nil {
		return nil
	}

	var fieldErrors playgroundvalidator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fieldErr := range fieldErrors {
			if fieldErr.Tag() == "email" {
				return gateway.NewError(gateway.KindValidation, msgInvalidEmail)
			}
		}
	}
	return gateway.NewError(gateway.KindValidation, msgShippingIncomplete)
}
