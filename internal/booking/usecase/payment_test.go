package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carenest-app/bookingservice/internal/billing"
	"github.com/carenest-app/bookingservice/internal/booking/domain"
	"github.com/carenest-app/bookingservice/internal/booking/repo"
	"github.com/carenest-app/bookingservice/internal/pricing"
)

type paymentFixture struct {
	requests *repo.MemoryRequestStore
	provider *billing.MockProvider
	payments *PaymentUseCase
	bookings *BookingUseCase
}

func newPaymentFixture() *paymentFixture {
	requests := repo.NewMemoryRequestStore()
	provider := billing.NewMockProvider()
	pricingUC := newPricingUC(pricing.NewMemoryConfigStore())
	return &paymentFixture{
		requests: requests,
		provider: provider,
		payments: NewPaymentUseCase(requests, pricingUC, provider, nil),
		bookings: NewBookingUseCase(requests, pricingUC, nil),
	}
}

func (f *paymentFixture) acceptedRequest(t *testing.T, withMethod bool) *domain.Request {
	t.Helper()
	ctx := context.Background()
	req, err := f.bookings.CreateRequest(ctx, &domain.Request{
		ParentID: "parent-1",
		CareType: "basic",
		Province: "ON",
		ChildAge: intPtr(6),
	})
	require.NoError(t, err)
	require.NoError(t, f.requests.UpdateStatus(ctx, req.ID, domain.StatusAccepted))
	if withMethod {
		require.NoError(t, f.requests.SetPaymentMethod(ctx, req.ID, "pm_test_visa"))
	}
	stored, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	return stored
}

func TestPrepareIntent_CreatesIntentForBookingTotal(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	req := f.acceptedRequest(t, true)

	res, err := f.payments.PrepareIntent(ctx, req.ID, "parent-1")
	require.NoError(t, err)

	assert.False(t, res.Paid)
	assert.NotEmpty(t, res.ClientSecret)
	// ON/basic, age 6 -> 2200 x1.0, platform 550, tax 13% of 550 = 72,
	// one hour default.
	assert.Equal(t, int64(2272), res.AmountCents)
	assert.Equal(t, "cad", res.Currency)

	stored, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, res.AmountCents, stored.PaymentAmountCents)
	assert.NotEmpty(t, stored.PaymentIntentID)
	require.NotNil(t, stored.PricingSnapshot)
	assert.Equal(t, res.AmountCents, stored.PricingSnapshot.TotalBookingCents)
}

func TestPrepareIntent_SecondCallReconciles(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	req := f.acceptedRequest(t, true)

	first, err := f.payments.PrepareIntent(ctx, req.ID, "parent-1")
	require.NoError(t, err)

	second, err := f.payments.PrepareIntent(ctx, req.ID, "parent-1")
	require.NoError(t, err)
	assert.Equal(t, first.AmountCents, second.AmountCents)

	stored, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "requires_payment_method", stored.PaymentStatus)
}

func TestPrepareIntent_Guards(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	// Pending request is not payable.
	pending, err := f.bookings.CreateRequest(ctx, &domain.Request{ParentID: "parent-1", CareType: "basic"})
	require.NoError(t, err)
	_, err = f.payments.PrepareIntent(ctx, pending.ID, "parent-1")
	assert.ErrorIs(t, err, domain.ErrNotPayable)

	// Wrong caller.
	accepted := f.acceptedRequest(t, true)
	_, err = f.payments.PrepareIntent(ctx, accepted.ID, "somebody-else")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	// No payment method on file.
	noMethod := f.acceptedRequest(t, false)
	_, err = f.payments.PrepareIntent(ctx, noMethod.ID, "parent-1")
	assert.ErrorIs(t, err, domain.ErrNoPaymentMethod)
}

func TestCharge_SucceedsAndConfirmsBooking(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	req := f.acceptedRequest(t, true)

	res, err := f.payments.Charge(ctx, req.ID, "parent-1", "")
	require.NoError(t, err)
	assert.True(t, res.Paid)
	assert.Equal(t, domain.PaymentStatusPaid, res.Status)

	stored, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
	assert.Equal(t, domain.PaymentStatusPaid, stored.PaymentStatus)
	assert.Equal(t, res.AmountCents, stored.PaymentAmountCents)
}

func TestCharge_AlreadyPaidShortCircuits(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	req := f.acceptedRequest(t, true)

	_, err := f.payments.Charge(ctx, req.ID, "parent-1", "")
	require.NoError(t, err)

	res, err := f.payments.Charge(ctx, req.ID, "parent-1", "")
	require.NoError(t, err)
	assert.True(t, res.Paid)
}

func TestCharge_RequiresActionPersisted(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	req := f.acceptedRequest(t, true)
	f.provider.FailNext = billing.IntentStatusRequiresAction

	res, err := f.payments.Charge(ctx, req.ID, "parent-1", "")
	require.NoError(t, err)
	assert.False(t, res.Paid)
	assert.Equal(t, domain.PaymentStatusRequiresAction, res.Status)

	stored, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRequiresAction, stored.PaymentStatus)
	assert.Equal(t, domain.StatusAccepted, stored.Status, "booking must not confirm on a pending charge")
}

func TestCharge_ExplicitMethodOverridesStored(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	req := f.acceptedRequest(t, true)

	_, err := f.payments.Charge(ctx, req.ID, "parent-1", "pm_other_card")
	require.NoError(t, err)

	stored, err := f.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "pm_other_card", stored.PaymentMethodID)
}

func TestCharge_NoMethodAnywhere(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()
	req := f.acceptedRequest(t, false)

	_, err := f.payments.Charge(ctx, req.ID, "parent-1", "")
	assert.ErrorIs(t, err, domain.ErrNoPaymentMethod)
}

func TestPrepareIntent_UnknownRequest(t *testing.T) {
	f := newPaymentFixture()
	_, err := f.payments.PrepareIntent(context.Background(), uuid.New(), "parent-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
