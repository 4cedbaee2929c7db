package payments

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/url"
    "strconv"
    "strings"
    "time"
)

// CheckoutSession is the provider's hosted payment page for one order.
// The buyer is redirected to URL; the id is recorded on the order so
// the later confirmation can be matched back by session.
type CheckoutSession struct {
    ID  string `json:"id"`
    URL string `json:"url"`
}

// CreateSessionParams describes the single line item of a checkout
// session.  OrderID travels in the session metadata and comes back on
// the confirmation event.
type CreateSessionParams struct {
    OrderID         string
    ItemName        string
    Currency        string
    UnitAmountCents int64
    Quantity        int
    SuccessURL      string
    CancelURL       string
}

// Client creates checkout sessions at the payment provider.  Handlers
// depend on this interface so tests can substitute a stub.
type Client interface {
    CreateCheckoutSession(ctx context.Context, p CreateSessionParams) (CheckoutSession, error)
}

// HTTPClient talks to the provider's REST API with a bearer secret key.
type HTTPClient struct {
    baseURL   string
    secretKey string
    hc        *http.Client
}

// NewHTTPClient returns a provider client for the given API base URL
// and secret key.
func NewHTTPClient(baseURL, secretKey string) *HTTPClient {
    return &HTTPClient{
        baseURL:   strings.TrimRight(baseURL, "/"),
        secretKey: secretKey,
        hc:        &http.Client{Timeout: 15 * time.Second},
    }
}

// CreateCheckoutSession posts a form-encoded session create request and
// decodes the session id and redirect URL from the response.
func (c *HTTPClient) CreateCheckoutSession(ctx context.Context, p CreateSessionParams) (CheckoutSession, error) {
    form := url.Values{}
    form.Set("mode", "payment")
    form.Set("line_items[0][name]", p.ItemName)
    form.Set("line_items[0][currency]", p.Currency)
    form.Set("line_items[0][unit_amount]", strconv.FormatInt(p.UnitAmountCents, 10))
    form.Set("line_items[0][quantity]", strconv.Itoa(p.Quantity))
    form.Set("success_url", p.SuccessURL)
    form.Set("cancel_url", p.CancelURL)
    form.Set("metadata[order_id]", p.OrderID)

    req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
    if err != nil {
        return CheckoutSession{}, err
    }
    req.Header.Set("Authorization", "Bearer "+c.secretKey)
    req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

    resp, err := c.hc.Do(req)
    if err != nil {
        return CheckoutSession{}, fmt.Errorf("provider session create: %w", err)
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return CheckoutSession{}, fmt.Errorf("provider session create: unexpected status %d", resp.StatusCode)
    }
    var s CheckoutSession
    if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
        return CheckoutSession{}, fmt.Errorf("provider session decode: %w", err)
    }
    if s.ID == "" || s.URL == "" {
        return CheckoutSession{}, fmt.Errorf("provider session response missing id or url")
    }
    return s, nil
}
