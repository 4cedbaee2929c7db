// Package qr signs and verifies the compact tokens embedded in ticket
// QR codes.  A token binds a ticket to its event and nothing else; it
// is minted from ticket identity on every read and never persisted, so
// rotating the signing secret invalidates every outstanding QR.  That
// is an accepted operational tradeoff, not a bug.
package qr

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, wrong type tag, expired, or missing claims.  Callers
// deliberately get no more detail than this.
var ErrInvalidToken = errors.New("invalid ticket token")

// typTicket is the type tag baked into every ticket token so that other
// JWTs signed elsewhere in the platform can never pass as tickets.
const typTicket = "ticket"

// Codec mints and verifies ticket QR tokens.  The signing secret is
// injected at construction rather than read from ambient state, which
// keeps the codec testable with rotated secrets.
type Codec struct {
    secret []byte
    ttl    time.Duration
}

// New returns a Codec signing with the given secret.  ttl is the
// validity horizon of minted tokens; tickets may be issued months
// before the event and must remain scannable through entry, so this is
// typically on the order of 180 days.
func New(secret string, ttl time.Duration) *Codec {
    return &Codec{secret: []byte(secret), ttl: ttl}
}

// Issue produces a signed HS256 token whose payload is exactly
// {typ: "ticket", tid, eid} plus standard exp/iat claims.
func (c *Codec) Issue(ticketID, eventID string) (string, error) {
    now := time.Now().UTC()
    claims := jwt.MapClaims{
        "typ": typTicket,
        "tid": ticketID,
        "eid": eventID,
        "exp": now.Add(c.ttl).Unix(),
        "iat": now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString(c.secret)
}

// Verify checks the signature, type tag and expiry of a scanned token
// and returns the bound ticket and event ids.  Every failure mode maps
// to ErrInvalidToken.
func (c *Codec) Verify(token string) (ticketID, eventID string, err error) {
    tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return c.secret, nil
    })
    if err != nil || !tok.Valid {
        return "", "", ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return "", "", ErrInvalidToken
    }
    if typ, _ := claims["typ"].(string); typ != typTicket {
        return "", "", ErrInvalidToken
    }
    tid, ok := claims["tid"].(string)
    if !ok || tid == "" {
        return "", "", ErrInvalidToken
    }
    eid, ok := claims["eid"].(string)
    if !ok || eid == "" {
        return "", "", ErrInvalidToken
    }
    return tid, eid, nil
}
