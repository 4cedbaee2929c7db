// Package payments is the boundary to the external payment provider:
// creating hosted checkout sessions and authenticating the webhook
// envelopes the provider delivers when a payment completes.
package payments

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "errors"
    "fmt"
    "strconv"
    "strings"
    "time"
)

// SignatureHeader is the HTTP header the provider signs deliveries with.
const SignatureHeader = "Payment-Signature"

// EventCheckoutCompleted is the only event type this service fulfills.
// Everything else is acknowledged and ignored.
const EventCheckoutCompleted = "checkout.session.completed"

// signatureTolerance bounds how old a signed timestamp may be.  It
// limits replay of captured deliveries while leaving room for provider
// retry backoff and clock skew.
const signatureTolerance = 5 * time.Minute

// ErrBadSignature is returned when a webhook envelope cannot be
// authenticated.  The delivery must be rejected before any processing.
var ErrBadSignature = errors.New("webhook signature verification failed")

// Event is the provider's webhook envelope.  Data.Object is the
// checkout session: its id supports the session-id lookup path and its
// metadata carries the order id recorded at session creation.
type Event struct {
    ID   string `json:"id"`
    Type string `json:"type"`
    Data struct {
        Object struct {
            ID       string            `json:"id"`
            Metadata map[string]string `json:"metadata"`
        } `json:"object"`
    } `json:"data"`
}

// ParseEvent decodes a webhook body.  Callers must verify the signature
// first; parsing is not authentication.
func ParseEvent(body []byte) (Event, error) {
    var ev Event
    if err := json.Unmarshal(body, &ev); err != nil {
        return Event{}, fmt.Errorf("decode webhook event: %w", err)
    }
    if ev.ID == "" || ev.Type == "" {
        return Event{}, errors.New("webhook event missing id or type")
    }
    return ev, nil
}

// VerifySignature authenticates a raw webhook body against its
// signature header using the shared webhook secret.  The header format
// is "t=<unix>,v1=<hex>[,v1=<hex>...]" where each v1 value is
// HMAC-SHA256 over "<t>.<body>".  Multiple v1 entries let the provider
// roll secrets without dropping deliveries.  now is injected so expiry
// of the timestamp is testable.
func VerifySignature(body []byte, header, secret string, now time.Time) error {
    if header == "" {
        return ErrBadSignature
    }
    var ts int64
    var sigs [][]byte
    for _, part := range strings.Split(header, ",") {
        k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
        if !ok {
            continue
        }
        switch k {
        case "t":
            n, err := strconv.ParseInt(v, 10, 64)
            if err != nil {
                return ErrBadSignature
            }
            ts = n
        case "v1":
            sig, err := hex.DecodeString(v)
            if err != nil {
                continue
            }
            sigs = append(sigs, sig)
        }
    }
    if ts == 0 || len(sigs) == 0 {
        return ErrBadSignature
    }
    if d := now.Sub(time.Unix(ts, 0)); d > signatureTolerance || d < -signatureTolerance {
        return ErrBadSignature
    }

    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte(strconv.FormatInt(ts, 10)))
    mac.Write([]byte("."))
    mac.Write(body)
    expected := mac.Sum(nil)

    for _, sig := range sigs {
        if hmac.Equal(sig, expected) {
            return nil
        }
    }
    return ErrBadSignature
}
