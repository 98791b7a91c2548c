package service

import (
	"context"
	"testing"

	"storefront-backend/internal/gateway"
	"storefront-backend/internal/models"
)

func validShipping() models.ShippingDetails {
	return models.ShippingDetails{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Address:    "12 Analytical Row",
		City:       "London",
		PostalCode: "EC1A 1BB",
	}
}

func buildCheckoutService(gw *fakeGateway) (*CheckoutService, *CartService, *CartStore, *memorySessionRepository) {
	cartSvc, store, _ := buildCartService(gw)
	repo := newMemorySessionRepository()
	return NewCheckoutService(gw, cartSvc, store, repo), cartSvc, store, repo
}

func beginCheckout(t *testing.T, svc *CheckoutService, cart *CartService, identity models.Identity) (*models.CheckoutSession, string) {
	t.Helper()
	if _, err := cart.Add(context.Background(), identity, 42, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	session, redirectURL, err := svc.Begin(context.Background(), identity, models.CheckoutRequest{Shipping: validShipping()})
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	return session, redirectURL
}

func TestBeginRequiresCredential(t *testing.T) {
	gw := newFakeGateway()
	svc, _, _, repo := buildCheckoutService(gw)

	_, _, err := svc.Begin(context.Background(), models.Identity{}, models.CheckoutRequest{Shipping: validShipping()})
	if !gateway.IsKind(err, gateway.KindAuthRequired) {
		t.Fatalf("expected auth_required, got %v", err)
	}
	if gw.callCount() != 0 || len(repo.sessions) != 0 {
		t.Fatalf("auth failure must not reach the network or persist anything")
	}
}

func TestBeginRejectsIncompleteShipping(t *testing.T) {
	gw := newFakeGateway()
	svc, cart, _, repo := buildCheckoutService(gw)
	identity := authedIdentity(1)

	if _, err := cart.Add(context.Background(), identity, 42, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	before := gw.callCount()

	shipping := validShipping()
	shipping.Address = ""
	_, _, err := svc.Begin(context.Background(), identity, models.CheckoutRequest{Shipping: shipping})
	if !gateway.IsKind(err, gateway.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gateway.MessageOf(err) != msgShippingIncomplete {
		t.Fatalf("unexpected message: %q", gateway.MessageOf(err))
	}
	if gw.callCount() != before || len(repo.sessions) != 0 {
		t.Fatalf("validation failure must not reach the network or persist anything")
	}
}

func TestBeginRejectsMalformedEmail(t *testing.T) {
	gw := newFakeGateway()
	svc, cart, _, _ := buildCheckoutService(gw)
	identity := authedIdentity(1)

	if _, err := cart.Add(context.Background(), identity, 42, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	shipping := validShipping()
	shipping.Email = "not-an-email"
	_, _, err := svc.Begin(context.Background(), identity, models.CheckoutRequest{Shipping: shipping})
	if !gateway.IsKind(err, gateway.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gateway.MessageOf(err) != msgInvalidEmail {
		t.Fatalf("expected email-specific message, got %q", gateway.MessageOf(err))
	}
}

func TestBeginRejectsEmptyCart(t *testing.T) {
	gw := newFakeGateway()
	svc, _, _, repo := buildCheckoutService(gw)
	identity := authedIdentity(1)

	_, _, err := svc.Begin(context.Background(), identity, models.CheckoutRequest{Shipping: validShipping()})
	if !gateway.IsKind(err, gateway.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gateway.MessageOf(err) != msgEmptyCart {
		t.Fatalf("unexpected message: %q", gateway.MessageOf(err))
	}
	if len(repo.sessions) != 0 {
		t.Fatalf("empty-cart failure must persist nothing")
	}
}

func TestBeginOpensPaymentSessionAndPersists(t *testing.T) {
	gw := newFakeGateway()
	svc, cart, _, repo := buildCheckoutService(gw)
	identity := authedIdentity(1)

	session, redirectURL := beginCheckout(t, svc, cart, identity)

	if redirectURL != "https://pay.example.com/sess_abc" {
		t.Fatalf("unexpected redirect url %q", redirectURL)
	}
	if session.State != models.CheckoutStateAwaitingPayment {
		t.Fatalf("expected awaiting_payment, got %s", session.State)
	}
	if session.ExternalSessionRef != "sess_abc" {
		t.Fatalf("expected external ref recorded, got %q", session.ExternalSessionRef)
	}
	if session.CartID != "cart-1" {
		t.Fatalf("expected session bound to cart identity, got %q", session.CartID)
	}

	stored, err := repo.GetByID(session.ID)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if stored.Shipping != validShipping() {
		t.Fatalf("shipping not persisted: %+v", stored.Shipping)
	}
}

func TestBeginPropagatesPaymentFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.paymentErr = gateway.NewError(gateway.KindBackend, msgSessionCreateFailed)
	svc, cart, _, repo := buildCheckoutService(gw)
	identity := authedIdentity(1)

	if _, err := cart.Add(context.Background(), identity, 42, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	_, _, err := svc.Begin(context.Background(), identity, models.CheckoutRequest{Shipping: validShipping()})
	if !gateway.IsKind(err, gateway.KindBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(repo.sessions) != 0 {
		t.Fatalf("failed session opening must persist nothing")
	}
}

func TestCompleteSuccessFinishesSession(t *testing.T) {
	gw := newFakeGateway()
	svc, cart, store, repo := buildCheckoutService(gw)
	identity := authedIdentity(1)

	session, _ := beginCheckout(t, svc, cart, identity)
	// The backend consumes the cart as a payment side effect.
	gw.cart = nil

	completed, err := svc.Complete(context.Background(), identity, session.ExternalSessionRef)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed.State != models.CheckoutStateCompleted {
		t.Fatalf("expected completed, got %s", completed.State)
	}
	if completed.OrderID != 101 {
		t.Fatalf("expected order id from verification, got %d", completed.OrderID)
	}
	if completed.Shipping != (models.ShippingDetails{}) {
		t.Fatalf("expected shipping cleared after completion")
	}

	stored, _ := repo.GetByID(session.ID)
	if stored.State != models.CheckoutStateCompleted {
		t.Fatalf("completion not persisted, state %s", stored.State)
	}
	if !store.Snapshot(1).Empty() {
		t.Fatalf("expected cart mirror refreshed to empty after payment")
	}
}

func TestCompleteNonSuccessVerdictFails(t *testing.T) {
	gw := newFakeGateway()
	gw.verification = &models.SessionVerification{SessionID: "sess_abc", Status: models.PaymentStatusFailure}
	svc, cart, _, repo := buildCheckoutService(gw)
	identity := authedIdentity(1)

	session, _ := beginCheckout(t, svc, cart, identity)

	_, err := svc.Complete(context.Background(), identity, session.ExternalSessionRef)
	if !gateway.IsKind(err, gateway.KindVerificationMismatch) {
		t.Fatalf("expected verification_mismatch, got %v", err)
	}

	stored, _ := repo.GetByID(session.ID)
	if stored.State != models.CheckoutStateFailed {
		t.Fatalf("expected failed state persisted, got %s", stored.State)
	}
	if stored.FailureReason == "" {
		t.Fatalf("expected failure reason recorded")
	}
}

func TestCompleteTransientVerifyErrorIsRetryable(t *testing.T) {
	gw := newFakeGateway()
	gw.verifyErr = gateway.NewError(gateway.KindNetwork, "boom")
	svc, cart, _, repo := buildCheckoutService(gw)
	identity := authedIdentity(1)

	session, _ := beginCheckout(t, svc, cart, identity)

	_, err := svc.Complete(context.Background(), identity, session.ExternalSessionRef)
	if !gateway.IsKind(err, gateway.KindNetwork) {
		t.Fatalf("expected the transport error surfaced, got %v", err)
	}

	// A transport failure says nothing about the payment; the session must
	// not be finalized.
	stored, _ := repo.GetByID(session.ID)
	if stored.State.IsTerminal() {
		t.Fatalf("transient error must not finalize the session, got %s", stored.State)
	}

	// Once the backend is reachable again the same return leg confirms the
	// payment.
	gw.verifyErr = nil
	completed, err := svc.Complete(context.Background(), identity, session.ExternalSessionRef)
	if err != nil {
		t.Fatalf("retry after transient error failed: %v", err)
	}
	if completed.State != models.CheckoutStateCompleted {
		t.Fatalf("expected completed after retry, got %s", completed.State)
	}
	if completed.OrderID != 101 {
		t.Fatalf("expected order id from verification, got %d", completed.OrderID)
	}
}

func TestCompleteRejectsForeignSessionRef(t *testing.T) {
	gw := newFakeGateway()
	svc, cart, _, repo := buildCheckoutService(gw)
	owner := authedIdentity(1)

	session, _ := beginCheckout(t, svc, cart, owner)

	_, err := svc.Complete(context.Background(), authedIdentity(2), session.ExternalSessionRef)
	if !gateway.IsKind(err, gateway.KindNotFound) {
		t.Fatalf("expected not_found for foreign session ref, got %v", err)
	}

	// The owner's session is untouched and still completable.
	stored, _ := repo.GetByID(session.ID)
	if stored.State != models.CheckoutStateAwaitingPayment {
		t.Fatalf("foreign return leg mutated the session: %s", stored.State)
	}
	completed, err := svc.Complete(context.Background(), owner, session.ExternalSessionRef)
	if err != nil {
		t.Fatalf("owner completion failed: %v", err)
	}
	if completed.State != models.CheckoutStateCompleted {
		t.Fatalf("expected completed, got %s", completed.State)
	}
}

func TestCompleteWithoutRefCancelsPendingAndKeepsCart(t *testing.T) {
	gw := newFakeGateway()
	svc, cart, store, repo := buildCheckoutService(gw)
	identity := authedIdentity(1)

	session, _ := beginCheckout(t, svc, cart, identity)

	cancelled, err := svc.Complete(context.Background(), identity, "")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.ID != session.ID {
		t.Fatalf("expected the pending session cancelled, got %s", cancelled.ID)
	}
	if cancelled.State != models.CheckoutStateCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.State)
	}
	if cancelled.FailureReason != "" {
		t.Fatalf("cancellation is not a failure, got reason %q", cancelled.FailureReason)
	}

	stored, _ := repo.GetByID(session.ID)
	if stored.State != models.CheckoutStateCancelled {
		t.Fatalf("cancellation not persisted, state %s", stored.State)
	}
	// Abandoning payment keeps the cart intact.
	if store.QuantityOf(1, 42) != 1 {
		t.Fatalf("expected cart preserved after cancellation")
	}
	if gw.cart == nil || len(gw.cart.Items) != 1 {
		t.Fatalf("expected remote cart preserved after cancellation")
	}
}

func TestCompleteWithoutRefAndNoPendingSession(t *testing.T) {
	gw := newFakeGateway()
	svc, _, _, _ := buildCheckoutService(gw)

	_, err := svc.Complete(context.Background(), authedIdentity(1), "")
	if !gateway.IsKind(err, gateway.KindAbandonedSession) {
		t.Fatalf("expected abandoned_session, got %v", err)
	}
}

func TestCompleteCancelsLatestPendingSession(t *testing.T) {
	gw := newFakeGateway()
	svc, cart, _, _ := buildCheckoutService(gw)
	identity := authedIdentity(1)

	first, _ := beginCheckout(t, svc, cart, identity)
	second, _, err := svc.Begin(context.Background(), identity, models.CheckoutRequest{Shipping: validShipping()})
	if err != nil {
		t.Fatalf("second Begin failed: %v", err)
	}

	cancelled, err := svc.Complete(context.Background(), identity, "")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.ID != second.ID {
		t.Fatalf("expected latest pending session %s cancelled, got %s (first was %s)", second.ID, cancelled.ID, first.ID)
	}
}

func TestTerminalSessionsAreImmutable(t *testing.T) {
	gw := newFakeGateway()
	svc, cart, _, repo := buildCheckoutService(gw)
	identity := authedIdentity(1)

	session, _ := beginCheckout(t, svc, cart, identity)
	if _, err := svc.Complete(context.Background(), identity, session.ExternalSessionRef); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// A repeat of the return leg does not re-verify or change state.
	before := gw.callCount()
	again, err := svc.Complete(context.Background(), identity, session.ExternalSessionRef)
	if err != nil {
		t.Fatalf("repeat Complete returned error: %v", err)
	}
	if again.State != models.CheckoutStateCompleted {
		t.Fatalf("terminal state changed to %s", again.State)
	}
	if gw.callCount() != before {
		t.Fatalf("terminal session triggered another verification")
	}

	stored, _ := repo.GetByID(session.ID)
	if stored.State != models.CheckoutStateCompleted {
		t.Fatalf("terminal state mutated in storage: %s", stored.State)
	}
}

func TestCompleteUnknownRefStillVerifies(t *testing.T) {
	gw := newFakeGateway()
	svc, _, _, repo := buildCheckoutService(gw)
	identity := authedIdentity(1)

	completed, err := svc.Complete(context.Background(), identity, "sess_abc")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed.State != models.CheckoutStateCompleted {
		t.Fatalf("expected completed, got %s", completed.State)
	}
	if _, err := repo.GetByExternalRef("sess_abc"); err != nil {
		t.Fatalf("expected detached verification persisted: %v", err)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	gw := newFakeGateway()
	svc, cart, _, _ := buildCheckoutService(gw)
	owner := authedIdentity(1)

	session, _ := beginCheckout(t, svc, cart, owner)

	got, err := svc.Get(context.Background(), owner, session.ID)
	if err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if got.ID != session.ID {
		t.Fatalf("unexpected session %s", got.ID)
	}

	_, err = svc.Get(context.Background(), authedIdentity(2), session.ID)
	if !gateway.IsKind(err, gateway.KindNotFound) {
		t.Fatalf("expected not_found for foreign session, got %v", err)
	}

	_, err = svc.Get(context.Background(), owner, "missing")
	if !gateway.IsKind(err, gateway.KindNotFound) {
		t.Fatalf("expected not_found for unknown id, got %v", err)
	}
}
