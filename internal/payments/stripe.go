package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/account"
	"github.com/stripe/stripe-go/v84/accountlink"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/paymentmethod"
	"github.com/stripe/stripe-go/v84/refund"
	"github.com/stripe/stripe-go/v84/transfer"

	pkgerrors "github.com/rmoralesdev/casaworks-backend/pkg/errors"
	"github.com/rmoralesdev/casaworks-backend/pkg/metrics"
	pkgstripe "github.com/rmoralesdev/casaworks-backend/pkg/stripe"
)

const currencyUSD = string(stripe.CurrencyUSD)

// ConnectURLs carries the redirect endpoints for Connect onboarding links.
type ConnectURLs struct {
	RefreshURL string
	ReturnURL  string
}

type stripeGateway struct {
	urls    ConnectURLs
	metrics *metrics.EscrowMetrics
}

// NewStripeGateway builds the production Gateway backed by Stripe. The
// pkg/stripe client must have been initialized first; it owns the API key.
func NewStripeGateway(client *pkgstripe.Client, urls ConnectURLs, m *metrics.EscrowMetrics) (Gateway, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	return &stripeGateway{urls: urls, metrics: m}, nil
}

func (g *stripeGateway) observe(operation string, start time.Time, err error) {
	g.metrics.ObserveGatewayCall(operation, time.Since(start), err)
}

func (g *stripeGateway) EnsureCustomer(ctx context.Context, userID uuid.UUID, email, existingCustomerID string) (string, error) {
	if existingCustomerID != "" {
		return existingCustomerID, nil
	}

	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	params.AddMetadata("user_id", userID.String())

	start := time.Now()
	cust, err := customer.New(params)
	g.observe("create_customer", start, err)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe customer")
	}
	return cust.ID, nil
}

func (g *stripeGateway) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	params.Context = ctx

	start := time.Now()
	_, err := paymentmethod.Attach(paymentMethodID, params)
	g.observe("attach_payment_method", start, err)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach payment method")
	}
	return nil
}

func (g *stripeGateway) Charge(ctx context.Context, p ChargeParams) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(p.AmountCents),
		Currency:      stripe.String(currencyUSD),
		Customer:      stripe.String(p.CustomerID),
		Confirm:       stripe.Bool(true),
		TransferGroup: stripe.String(TransferGroup(p.BookingID)),
	}
	params.Context = ctx
	if p.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(p.PaymentMethodID)
	}
	params.SetIdempotencyKey(IdempotencyKey(p.BookingID, p.Step))
	params.AddMetadata("booking_id", p.BookingID.String())
	params.AddMetadata("type", string(p.Step))
	if p.SavePaymentMethod {
		params.SetupFutureUsage = stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession))
	}
	if p.OffSession {
		params.OffSession = stripe.Bool(true)
	}

	start := time.Now()
	intent, err := paymentintent.New(params)
	g.observe("charge", start, err)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	result := &ChargeResult{PaymentIntentID: intent.ID}
	if intent.LatestCharge != nil {
		result.ChargeID = intent.LatestCharge.ID
	}
	return result, nil
}

func (g *stripeGateway) Refund(ctx context.Context, p RefundParams) (string, error) {
	params := &stripe.RefundParams{
		Charge: stripe.String(p.ChargeID),
		Amount: stripe.Int64(p.AmountCents),
	}
	params.Context = ctx
	params.SetIdempotencyKey(IdempotencyKey(p.BookingID, p.Step))
	params.AddMetadata("booking_id", p.BookingID.String())
	params.AddMetadata("type", string(p.Step))

	start := time.Now()
	ref, err := refund.New(params)
	g.observe("refund", start, err)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
	}
	return ref.ID, nil
}

func (g *stripeGateway) Transfer(ctx context.Context, p TransferParams) (string, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(p.AmountCents),
		Currency:      stripe.String(currencyUSD),
		Destination:   stripe.String(p.DestinationAccount),
		TransferGroup: stripe.String(TransferGroup(p.BookingID)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(IdempotencyKey(p.BookingID, p.Step))
	params.AddMetadata("booking_id", p.BookingID.String())
	params.AddMetadata("type", string(p.Step))

	start := time.Now()
	tr, err := transfer.New(params)
	g.observe("transfer", start, err)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transfer")
	}
	return tr.ID, nil
}

func (g *stripeGateway) CreateConnectedAccount(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.AddMetadata("user_id", userID.String())

	start := time.Now()
	acct, err := account.New(params)
	g.observe("create_connected_account", start, err)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create connected account")
	}
	return acct.ID, nil
}

func (g *stripeGateway) CreateOnboardingLink(ctx context.Context, accountID string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(g.urls.RefreshURL),
		ReturnURL:  stripe.String(g.urls.ReturnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	start := time.Now()
	link, err := accountlink.New(params)
	g.observe("create_onboarding_link", start, err)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create onboarding link")
	}
	return link.URL, nil
}

func (g *stripeGateway) GetAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	start := time.Now()
	acct, err := account.GetByID(accountID, params)
	g.observe("get_account_status", start, err)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch connected account")
	}

	status := &AccountStatus{
		AccountID:      acct.ID,
		ChargesEnabled: acct.ChargesEnabled,
		PayoutsEnabled: acct.PayoutsEnabled,
	}
	if acct.Requirements != nil {
		status.DisabledReason = string(acct.Requirements.DisabledReason)
		status.Requirements = append(status.Requirements, acct.Requirements.CurrentlyDue...)
	}
	return status, nil
}
