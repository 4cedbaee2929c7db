package handler

import (
    "context"
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-ticketing/internal/fulfillment"
    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/payments"
    "github.com/iliyamo/event-ticketing/internal/queue"
)

const testWebhookSecret = "whsec_test"

type stubConfirmer struct {
    calls  []fulfillment.Confirmation
    result fulfillment.Result
    err    error
}

func (s *stubConfirmer) Process(_ context.Context, conf fulfillment.Confirmation) (fulfillment.Result, error) {
    s.calls = append(s.calls, conf)
    return s.result, s.err
}

func testLogger() *logrus.Logger {
    log := logrus.New()
    log.SetOutput(io.Discard)
    return log
}

func signedWebhookRequest(t *testing.T, body string) *http.Request {
    t.Helper()
    ts := time.Now().Unix()
    mac := hmac.New(sha256.New, []byte(testWebhookSecret))
    fmt.Fprintf(mac, "%d.%s", ts, body)
    req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
    req.Header.Set(payments.SignatureHeader, fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
    return req
}

func completedEventBody(eventID, sessionID, orderID string) string {
    return fmt.Sprintf(`{
        "id": %q,
        "type": "checkout.session.completed",
        "data": {"object": {"id": %q, "metadata": {"order_id": %q}}}
    }`, eventID, sessionID, orderID)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
    proc := &stubConfirmer{}
    h := NewWebhookHandler(testWebhookSecret, proc, nil, testLogger())

    body := completedEventBody("evt_1", "cs_1", "ord_1")
    req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
    req.Header.Set(payments.SignatureHeader, "t=1,v1=deadbeef")
    rec := httptest.NewRecorder()
    c := echo.New().NewContext(req, rec)

    require.NoError(t, h.HandlePayment(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Empty(t, proc.calls, "processor must not run on unauthenticated deliveries")
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
    proc := &stubConfirmer{}
    h := NewWebhookHandler(testWebhookSecret, proc, nil, testLogger())

    body := `{"id":"evt_2","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`
    rec := httptest.NewRecorder()
    c := echo.New().NewContext(signedWebhookRequest(t, body), rec)

    require.NoError(t, h.HandlePayment(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, proc.calls)
}

func TestWebhookProcessesConfirmation(t *testing.T) {
    order := &model.Order{ID: "ord_1", EventID: "evt-a", UserID: "usr-1", AmountTotalCents: 5000, Currency: "USD"}
    proc := &stubConfirmer{result: fulfillment.Result{
        Outcome:       fulfillment.OutcomeFulfilled,
        Order:         order,
        TicketsIssued: 2,
        TicketIDs:     []string{"t1", "t2"},
    }}
    var published []queue.OrderFulfilledEvent
    publish := func(_ context.Context, ev queue.OrderFulfilledEvent) error {
        published = append(published, ev)
        return nil
    }
    h := NewWebhookHandler(testWebhookSecret, proc, publish, testLogger())

    rec := httptest.NewRecorder()
    c := echo.New().NewContext(signedWebhookRequest(t, completedEventBody("evt_3", "cs_1", "ord_1")), rec)

    require.NoError(t, h.HandlePayment(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    require.Len(t, proc.calls, 1)
    assert.Equal(t, "evt_3", proc.calls[0].ProviderEventID)
    assert.Equal(t, "ord_1", proc.calls[0].OrderID)
    assert.Equal(t, "cs_1", proc.calls[0].SessionID)

    require.Len(t, published, 1)
    assert.Equal(t, "ord_1", published[0].OrderID)
    assert.Equal(t, []string{"t1", "t2"}, published[0].TicketIDs)
}

func TestWebhookDuplicateDelivery(t *testing.T) {
    proc := &stubConfirmer{result: fulfillment.Result{Outcome: fulfillment.OutcomeDuplicate}}
    published := false
    publish := func(context.Context, queue.OrderFulfilledEvent) error { published = true; return nil }
    h := NewWebhookHandler(testWebhookSecret, proc, publish, testLogger())

    rec := httptest.NewRecorder()
    c := echo.New().NewContext(signedWebhookRequest(t, completedEventBody("evt_4", "cs_1", "ord_1")), rec)

    require.NoError(t, h.HandlePayment(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    var resp map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, true, resp["duplicate"])
    assert.False(t, published, "duplicates must not republish fulfillment events")
}

func TestWebhookProcessorErrorTriggersRetry(t *testing.T) {
    proc := &stubConfirmer{err: fmt.Errorf("tier tier-1 qty 1: %w", fulfillment.ErrFulfillmentInconsistency)}
    h := NewWebhookHandler(testWebhookSecret, proc, nil, testLogger())

    rec := httptest.NewRecorder()
    c := echo.New().NewContext(signedWebhookRequest(t, completedEventBody("evt_5", "cs_1", "ord_1")), rec)

    require.NoError(t, h.HandlePayment(c))
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
