package payments

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "fmt"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func signHeader(t *testing.T, body []byte, secret string, ts time.Time) string {
    t.Helper()
    mac := hmac.New(sha256.New, []byte(secret))
    fmt.Fprintf(mac, "%d.%s", ts.Unix(), body)
    return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
    body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
    now := time.Now()

    t.Run("valid", func(t *testing.T) {
        header := signHeader(t, body, "whsec", now)
        assert.NoError(t, VerifySignature(body, header, "whsec", now))
    })

    t.Run("wrong secret", func(t *testing.T) {
        header := signHeader(t, body, "other", now)
        assert.ErrorIs(t, VerifySignature(body, header, "whsec", now), ErrBadSignature)
    })

    t.Run("tampered body", func(t *testing.T) {
        header := signHeader(t, body, "whsec", now)
        assert.ErrorIs(t, VerifySignature([]byte(`{"id":"evt_2"}`), header, "whsec", now), ErrBadSignature)
    })

    t.Run("stale timestamp", func(t *testing.T) {
        header := signHeader(t, body, "whsec", now.Add(-10*time.Minute))
        assert.ErrorIs(t, VerifySignature(body, header, "whsec", now), ErrBadSignature)
    })

    t.Run("missing header", func(t *testing.T) {
        assert.ErrorIs(t, VerifySignature(body, "", "whsec", now), ErrBadSignature)
    })

    t.Run("garbage header", func(t *testing.T) {
        assert.ErrorIs(t, VerifySignature(body, "not-a-signature", "whsec", now), ErrBadSignature)
    })

    t.Run("second v1 matches during secret roll", func(t *testing.T) {
        good := signHeader(t, body, "whsec", now)
        stale := signHeader(t, body, "old-secret", now)
        // stale header's v1 appended after the good one and vice versa
        header := good + "," + stale[len(fmt.Sprintf("t=%d,", now.Unix())):]
        assert.NoError(t, VerifySignature(body, header, "whsec", now))
    })
}

func TestParseEvent(t *testing.T) {
    body := []byte(`{
        "id": "evt_123",
        "type": "checkout.session.completed",
        "data": {"object": {"id": "cs_456", "metadata": {"order_id": "ord_789"}}}
    }`)
    ev, err := ParseEvent(body)
    require.NoError(t, err)
    assert.Equal(t, "evt_123", ev.ID)
    assert.Equal(t, EventCheckoutCompleted, ev.Type)
    assert.Equal(t, "cs_456", ev.Data.Object.ID)
    assert.Equal(t, "ord_789", ev.Data.Object.Metadata["order_id"])

    _, err = ParseEvent([]byte(`not json`))
    assert.Error(t, err)

    _, err = ParseEvent([]byte(`{"type":"x"}`))
    assert.Error(t, err)
}
