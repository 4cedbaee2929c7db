package handler

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-ticketing/internal/payments"
    "github.com/iliyamo/event-ticketing/internal/repository"
)

type stubProvider struct {
    calls   []payments.CreateSessionParams
    session payments.CheckoutSession
    err     error
}

func (s *stubProvider) CreateCheckoutSession(_ context.Context, p payments.CreateSessionParams) (payments.CheckoutSession, error) {
    s.calls = append(s.calls, p)
    return s.session, s.err
}

func newCheckoutHandler(t *testing.T, provider *stubProvider) (*CheckoutHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })

    h := NewCheckoutHandler(
        repository.NewTierRepo(db),
        repository.NewOrderRepo(db),
        provider,
        "https://tickets.example.com",
        testLogger(),
    )
    return h, mock
}

func buyerContext(body string) (echo.Context, *httptest.ResponseRecorder) {
    req := httptest.NewRequest(http.MethodPost, "/v1/checkout/session", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := echo.New().NewContext(req, rec)
    c.Set("user_id", "buyer-1")
    c.Set("role", "BUYER")
    return c, rec
}

func checkoutTierRows(remaining int, status string, salesStart time.Time, salesEnd interface{}) *sqlmock.Rows {
    return sqlmock.NewRows([]string{
        "id", "name", "price_cents", "currency", "remaining_qty",
        "sales_start", "sales_end", "id", "title", "status",
    }).AddRow("tier-1", "GA", 2500, "USD", remaining, salesStart, salesEnd, "evt-1", "Go Conf", status)
}

func TestCreateSessionUnknownTier(t *testing.T) {
    provider := &stubProvider{}
    h, mock := newCheckoutHandler(t, provider)
    mock.ExpectQuery("FROM ticket_tiers tt").
        WithArgs("tier-missing").
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "name", "price_cents", "currency", "remaining_qty",
            "sales_start", "sales_end", "id", "title", "status",
        }))

    c, rec := buyerContext(`{"tier_id":"tier-missing","quantity":1}`)
    require.NoError(t, h.CreateSession(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Empty(t, provider.calls)
}

func TestCreateSessionValidationFailures(t *testing.T) {
    now := time.Now().UTC()
    for _, tc := range []struct {
        name    string
        rows    *sqlmock.Rows
        wantMsg string
    }{
        {"event not published", checkoutTierRows(10, "draft", now.Add(-time.Hour), nil), "event is not published"},
        {"sales not started", checkoutTierRows(10, "published", now.Add(time.Hour), nil), "ticket sales have not started"},
        {"sales ended", checkoutTierRows(10, "published", now.Add(-2*time.Hour), now.Add(-time.Hour)), "ticket sales have ended"},
        {"insufficient inventory", checkoutTierRows(1, "published", now.Add(-time.Hour), nil), "not enough tickets remaining"},
    } {
        t.Run(tc.name, func(t *testing.T) {
            provider := &stubProvider{}
            h, mock := newCheckoutHandler(t, provider)
            mock.ExpectQuery("FROM ticket_tiers tt").WithArgs("tier-1").WillReturnRows(tc.rows)

            c, rec := buyerContext(`{"tier_id":"tier-1","quantity":2}`)
            require.NoError(t, h.CreateSession(c))
            assert.Equal(t, http.StatusBadRequest, rec.Code)

            var resp map[string]string
            require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
            assert.Equal(t, tc.wantMsg, resp["error"])
            assert.Empty(t, provider.calls, "provider must not be called on validation failure")
        })
    }
}

func TestCreateSessionQuantityBounds(t *testing.T) {
    provider := &stubProvider{}
    h, _ := newCheckoutHandler(t, provider)

    c, rec := buyerContext(`{"tier_id":"tier-1","quantity":11}`)
    require.NoError(t, h.CreateSession(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Empty(t, provider.calls)
}

func TestCreateSessionHappyPath(t *testing.T) {
    provider := &stubProvider{session: payments.CheckoutSession{ID: "cs_1", URL: "https://pay.example.com/cs_1"}}
    h, mock := newCheckoutHandler(t, provider)

    now := time.Now().UTC()
    mock.ExpectQuery("FROM ticket_tiers tt").
        WithArgs("tier-1").
        WillReturnRows(checkoutTierRows(10, "published", now.Add(-time.Hour), nil))
    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO orders").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO order_items").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()
    mock.ExpectExec("UPDATE orders SET provider_session_id = ").
        WillReturnResult(sqlmock.NewResult(0, 1))

    c, rec := buyerContext(`{"tier_id":"tier-1","quantity":2}`)
    require.NoError(t, h.CreateSession(c))
    assert.Equal(t, http.StatusCreated, rec.Code)

    var resp map[string]string
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "https://pay.example.com/cs_1", resp["checkout_url"])
    assert.NotEmpty(t, resp["order_id"])

    require.Len(t, provider.calls, 1)
    p := provider.calls[0]
    assert.Equal(t, resp["order_id"], p.OrderID)
    assert.Equal(t, int64(2500), p.UnitAmountCents)
    assert.Equal(t, 2, p.Quantity)
    assert.Equal(t, "Go Conf - GA", p.ItemName)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSessionProviderFailureLeavesOrderPending(t *testing.T) {
    provider := &stubProvider{err: errors.New("provider timeout")}
    h, mock := newCheckoutHandler(t, provider)

    now := time.Now().UTC()
    mock.ExpectQuery("FROM ticket_tiers tt").
        WithArgs("tier-1").
        WillReturnRows(checkoutTierRows(10, "published", now.Add(-time.Hour), nil))
    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()
    // No session update: the order stays pending with no session id,
    // exactly like an abandoned checkout.

    c, rec := buyerContext(`{"tier_id":"tier-1","quantity":1}`)
    require.NoError(t, h.CreateSession(c))
    assert.Equal(t, http.StatusBadGateway, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}
