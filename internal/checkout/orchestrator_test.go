package checkout

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"artisan_storefront/internal/api"
	"artisan_storefront/internal/cart"
	"artisan_storefront/internal/models"
	"artisan_storefront/internal/payment"
	"artisan_storefront/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu          sync.Mutex
	createErr   error
	verifyErr   error
	createCalls []api.CreateOrderRequest
	verifyCalls []api.VerifyPaymentRequest
	nextOrder   int
}

func (f *fakeBackend) CreateOrder(_ context.Context, token string, req api.CreateOrderRequest) (models.PaymentSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, req)
	if f.createErr != nil {
		return models.PaymentSession{}, f.createErr
	}
	f.nextOrder++
	id := strconv.Itoa(f.nextOrder)
	return models.PaymentSession{
		OrderID:         "o" + id,
		RazorpayOrderID: "order_rzp_" + id,
		Amount:          541000,
		Currency:        "INR",
		KeyID:           "rzp_test",
	}, nil
}

func (f *fakeBackend) VerifyPayment(_ context.Context, token string, req api.VerifyPaymentRequest) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls = append(f.verifyCalls, req)
	if f.verifyErr != nil {
		return models.Order{}, f.verifyErr
	}
	return models.Order{ID: req.OrderID, Status: models.OrderStatusPaid, Amount: 541000, Currency: "INR"}, nil
}

func validAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:     "Asha Verma",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road, Civil Lines",
		City:         "Jaipur",
		State:        "Rajasthan",
		Pincode:      "302001",
		Country:      "India",
	}
}

func filledCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New(storage.NewMemoryBackend().ForSession("s1"))
	c.Add(context.Background(), models.CartLineItem{ProductID: "p1", Title: "Jhumka", Quantity: 3, UnitPriceCents: 150000})
	return c
}

func setup() (*Orchestrator, *fakeBackend, *payment.CallbackWidget) {
	backend := &fakeBackend{}
	widget := payment.NewCallbackWidget(nil)
	return NewOrchestrator(backend, widget, nil), backend, widget
}

func authFor(attempt Attempt) models.PaymentAuthorization {
	return models.PaymentAuthorization{
		RazorpayOrderID:   attempt.Payment.RazorpayOrderID,
		RazorpayPaymentID: "pay_1",
		RazorpaySignature: "sig",
	}
}

func TestStart_InvalidAddressStaysIdle(t *testing.T) {
	o, backend, _ := setup()
	addr := validAddress()
	addr.Pincode = "1234"

	attempt, err := o.Start(context.Background(), StartRequest{SessionID: "s1", Token: "tok", Cart: filledCart(t), Address: addr})
	require.ErrorIs(t, err, ErrInvalidAddress)
	assert.Equal(t, StateIdle, attempt.State)
	assert.Contains(t, attempt.FieldErrors, "pincode")
	assert.Len(t, attempt.FieldErrors, 1)
	assert.Empty(t, backend.createCalls)
}

func TestStart_EmptyCartRejected(t *testing.T) {
	o, backend, _ := setup()
	empty := cart.New(storage.NewMemoryBackend().ForSession("s1"))

	_, err := o.Start(context.Background(), StartRequest{SessionID: "s1", Token: "tok", Cart: empty, Address: validAddress()})
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, backend.createCalls)
}

func TestStart_RequiresToken(t *testing.T) {
	o, backend, _ := setup()
	_, err := o.Start(context.Background(), StartRequest{SessionID: "s1", Cart: filledCart(t), Address: validAddress()})
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.Empty(t, backend.createCalls)
}

func TestCheckout_HappyPath(t *testing.T) {
	o, backend, widget := setup()
	ctx := context.Background()
	c := filledCart(t)

	attempt, err := o.Start(ctx, StartRequest{SessionID: "s1", Token: "tok", Cart: c, Address: validAddress()})
	require.NoError(t, err)
	assert.Equal(t, StateOrderCreated, attempt.State)
	require.NotNil(t, attempt.Payment)
	assert.Equal(t, "o1", attempt.Payment.OrderID)

	require.Len(t, backend.createCalls, 1)
	assert.Len(t, backend.createCalls[0].Items, 1)
	assert.Equal(t, "302001", backend.createCalls[0].ShippingAddress.Pincode)

	require.NoError(t, widget.Succeed(ctx, attempt.ID, authFor(attempt)))

	final, err := o.Get("s1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCartCleared, final.State)
	assert.Equal(t, []State{
		StateIdle, StateAddressValidated, StateOrderCreated,
		StatePaymentAuthorized, StatePaymentVerified, StateCartCleared,
	}, final.History)
	require.NotNil(t, final.Order)
	assert.Equal(t, models.OrderStatusPaid, final.Order.Status)
	assert.False(t, final.ContactSupport)

	require.Len(t, backend.verifyCalls, 1)
	assert.Equal(t, "o1", backend.verifyCalls[0].OrderID)
	assert.Equal(t, "pay_1", backend.verifyCalls[0].RazorpayPaymentID)

	assert.Empty(t, c.Items())
	assert.Equal(t, int64(0), c.Total())
}

func TestCheckout_OrderCreationFailure(t *testing.T) {
	o, backend, _ := setup()
	backend.createErr = &api.Error{Status: 422, Message: "Stock insuffisant"}
	c := filledCart(t)

	attempt, err := o.Start(context.Background(), StartRequest{SessionID: "s1", Token: "tok", Cart: c, Address: validAddress()})
	require.Error(t, err)
	assert.Equal(t, StateAborted, attempt.State)
	assert.Equal(t, ReasonOrderCreationFailed, attempt.Reason)
	assert.Equal(t, "Stock insuffisant", attempt.Message)
	assert.Len(t, c.Items(), 1)
}

func TestCheckout_PaymentFailureKeepsCart(t *testing.T) {
	o, backend, widget := setup()
	ctx := context.Background()
	c := filledCart(t)

	attempt, err := o.Start(ctx, StartRequest{SessionID: "s1", Token: "tok", Cart: c, Address: validAddress()})
	require.NoError(t, err)

	require.NoError(t, widget.Fail(ctx, attempt.ID, payment.Failure{Dismissed: true}))

	final, err := o.Get("s1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, final.State)
	assert.Equal(t, ReasonPaymentFailed, final.Reason)
	assert.False(t, final.ContactSupport)
	assert.Empty(t, backend.verifyCalls)
	assert.Len(t, c.Items(), 1)

	assert.ErrorIs(t, widget.Succeed(ctx, attempt.ID, authFor(attempt)), payment.ErrUnknownAttempt)
}

func TestCheckout_VerificationFailureNeedsSupport(t *testing.T) {
	o, backend, widget := setup()
	backend.verifyErr = errors.New("signature mismatch")
	ctx := context.Background()
	c := filledCart(t)

	attempt, err := o.Start(ctx, StartRequest{SessionID: "s1", Token: "tok", Cart: c, Address: validAddress()})
	require.NoError(t, err)
	require.NoError(t, widget.Succeed(ctx, attempt.ID, authFor(attempt)))

	final, err := o.Get("s1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, final.State)
	assert.Equal(t, ReasonVerificationFailed, final.Reason)
	assert.True(t, final.ContactSupport)
	assert.Equal(t, contactSupportMessage, final.Message)
	assert.Contains(t, final.History, StatePaymentAuthorized)

	assert.Len(t, backend.verifyCalls, 1)
	assert.Len(t, c.Items(), 1)
}

func TestCheckout_NewStartSupersedesPending(t *testing.T) {
	o, backend, widget := setup()
	ctx := context.Background()
	c := filledCart(t)
	req := StartRequest{SessionID: "s1", Token: "tok", Cart: c, Address: validAddress()}

	first, err := o.Start(ctx, req)
	require.NoError(t, err)
	second, err := o.Start(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, backend.createCalls, 2)

	old, err := o.Get("s1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, old.State)
	assert.Equal(t, ReasonPaymentFailed, old.Reason)
	assert.False(t, old.ContactSupport)

	require.NoError(t, widget.Succeed(ctx, second.ID, authFor(second)))

	final, err := o.Get("s1", second.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCartCleared, final.State)
}

func TestCheckout_LatePaymentOnSupersededAttemptAsksForSupport(t *testing.T) {
	o, backend, widget := setup()
	ctx := context.Background()
	c := filledCart(t)
	req := StartRequest{SessionID: "s1", Token: "tok", Cart: c, Address: validAddress()}

	first, err := o.Start(ctx, req)
	require.NoError(t, err)
	_, err = o.Start(ctx, req)
	require.NoError(t, err)

	// l'ancien widget (autre onglet) aboutit quand même
	require.NoError(t, widget.Succeed(ctx, first.ID, authFor(first)))

	old, err := o.Get("s1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, old.State)
	assert.True(t, old.ContactSupport)
	assert.Equal(t, contactSupportMessage, old.Message)
	assert.Empty(t, backend.verifyCalls)
	assert.Len(t, c.Items(), 1)

	// une seule résolution par tentative
	assert.ErrorIs(t, widget.Succeed(ctx, first.ID, authFor(first)), payment.ErrUnknownAttempt)
}

func TestPrune_AbandonedAttemptsAreReleased(t *testing.T) {
	o, _, widget := setup()
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return now }

	var abandoned []Attempt
	for i := 0; i < 20; i++ {
		sid := "s" + strconv.Itoa(i)
		a, err := o.Start(ctx, StartRequest{SessionID: sid, Token: "tok", Cart: filledCart(t), Address: validAddress()})
		require.NoError(t, err)
		abandoned = append(abandoned, a)
	}

	now = now.Add(30 * time.Minute)
	assert.Equal(t, 0, o.Prune())

	now = now.Add(72 * time.Hour)
	fresh, err := o.Start(ctx, StartRequest{SessionID: "late", Token: "tok", Cart: filledCart(t), Address: validAddress()})
	require.NoError(t, err)

	o.mu.Lock()
	assert.Len(t, o.attempts, 1)
	assert.Empty(t, o.active["s0"])
	o.mu.Unlock()

	for i, a := range abandoned {
		_, ok := widget.Pending(a.ID)
		assert.False(t, ok)
		_, err := o.Get("s"+strconv.Itoa(i), a.ID)
		assert.ErrorIs(t, err, ErrUnknownAttempt)
	}
	_, ok := widget.Pending(fresh.ID)
	assert.True(t, ok)
}

func TestPrune_KeepsAttemptsBeingVerified(t *testing.T) {
	o, _, _ := setup()
	now := time.Now()
	o.now = func() time.Time { return now }

	o.mu.Lock()
	o.attempts["verifying"] = &Attempt{ID: "verifying", State: StatePaymentAuthorized, UpdatedAt: now.Add(-2 * time.Hour)}
	o.attempts["done"] = &Attempt{ID: "done", State: StateCartCleared, UpdatedAt: now.Add(-2 * time.Hour), sessionID: "s9"}
	o.active["s9"] = "done"
	o.mu.Unlock()

	assert.Equal(t, 1, o.Prune())
	o.mu.Lock()
	defer o.mu.Unlock()
	assert.Contains(t, o.attempts, "verifying")
	assert.NotContains(t, o.attempts, "done")
	assert.NotContains(t, o.active, "s9")
}

func TestCheckout_ClearsLiveCartOfSession(t *testing.T) {
	backend := &fakeBackend{}
	widget := payment.NewCallbackWidget(nil)
	live := filledCart(t)
	o := NewOrchestrator(backend, widget, nil, WithCartSource(func(_ context.Context, sessionID string) Cart {
		if sessionID == "s1" {
			return live
		}
		return nil
	}))
	ctx := context.Background()

	// panier du Start, remplacé ensuite par une réhydratation
	stale := filledCart(t)
	attempt, err := o.Start(ctx, StartRequest{SessionID: "s1", Token: "tok", Cart: stale, Address: validAddress()})
	require.NoError(t, err)
	require.NoError(t, widget.Succeed(ctx, attempt.ID, authFor(attempt)))

	final, err := o.Get("s1", attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCartCleared, final.State)
	assert.Empty(t, live.Items())
}

func TestGet_OtherSessionIsUnknown(t *testing.T) {
	o, _, _ := setup()
	attempt, err := o.Start(context.Background(), StartRequest{SessionID: "s1", Token: "tok", Cart: filledCart(t), Address: validAddress()})
	require.NoError(t, err)

	_, err = o.Get("s2", attempt.ID)
	assert.ErrorIs(t, err, ErrUnknownAttempt)
	_, err = o.Get("s1", "missing")
	assert.ErrorIs(t, err, ErrUnknownAttempt)
}

func TestState_IsTerminal(t *testing.T) {
	assert.True(t, StateCartCleared.IsTerminal())
	assert.True(t, StateAborted.IsTerminal())
	for _, s := range []State{StateIdle, StateAddressValidated, StateOrderCreated, StatePaymentAuthorized, StatePaymentVerified} {
		assert.False(t, s.IsTerminal(), s)
	}
}
