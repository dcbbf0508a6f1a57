package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v82"
)

// invoiceAPI is the subset of the Stripe client used to issue lease invoices
type invoiceAPI interface {
	CreateInvoice(ctx context.Context, params *stripe.InvoiceCreateParams) (*stripe.Invoice, error)
	CreateInvoiceItem(ctx context.Context, params *stripe.InvoiceItemCreateParams) (*stripe.InvoiceItem, error)
	FinalizeInvoice(ctx context.Context, id string, params *stripe.InvoiceFinalizeInvoiceParams) (*stripe.Invoice, error)
	// SearchInvoice returns the first invoice matching the query, nil when none does
	SearchInvoice(ctx context.Context, params *stripe.InvoiceSearchParams) (*stripe.Invoice, error)
}

// sdkClient adapts *stripe.Client to invoiceAPI
type sdkClient struct {
	sc *stripe.Client
}

func newSDKClient(secretKey string) *sdkClient {
	return &sdkClient{sc: stripe.NewClient(secretKey, nil)}
}

func (c *sdkClient) CreateInvoice(ctx context.Context, params *stripe.InvoiceCreateParams) (*stripe.Invoice, error) {
	return c.sc.V1Invoices.Create(ctx, params)
}

func (c *sdkClient) CreateInvoiceItem(ctx context.Context, params *stripe.InvoiceItemCreateParams) (*stripe.InvoiceItem, error) {
	return c.sc.V1InvoiceItems.Create(ctx, params)
}

func (c *sdkClient) FinalizeInvoice(ctx context.Context, id string, params *stripe.InvoiceFinalizeInvoiceParams) (*stripe.Invoice, error) {
	return c.sc.V1Invoices.FinalizeInvoice(ctx, id, params)
}

func (c *sdkClient) SearchInvoice(ctx context.Context, params *stripe.InvoiceSearchParams) (*stripe.Invoice, error) {
	for inv, err := range c.sc.V1Invoices.Search(ctx, params) {
		if err != nil {
			return nil, err
		}
		return inv, nil
	}
	return nil, nil
}
