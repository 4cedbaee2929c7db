package qr

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
    codec := New("test-secret", 180*24*time.Hour)

    token, err := codec.Issue("ticket-1", "event-1")
    require.NoError(t, err)
    require.NotEmpty(t, token)

    tid, eid, err := codec.Verify(token)
    require.NoError(t, err)
    assert.Equal(t, "ticket-1", tid)
    assert.Equal(t, "event-1", eid)
}

func TestVerifyTamperedToken(t *testing.T) {
    codec := New("test-secret", time.Hour)
    token, err := codec.Issue("ticket-1", "event-1")
    require.NoError(t, err)

    // Flip one character in the middle of the payload segment.
    b := []byte(token)
    mid := len(b) / 2
    if b[mid] == 'A' {
        b[mid] = 'B'
    } else {
        b[mid] = 'A'
    }
    _, _, err = codec.Verify(string(b))
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiredToken(t *testing.T) {
    codec := New("test-secret", -time.Minute)
    token, err := codec.Issue("ticket-1", "event-1")
    require.NoError(t, err)

    _, _, err = codec.Verify(token)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
    token, err := New("secret-a", time.Hour).Issue("ticket-1", "event-1")
    require.NoError(t, err)

    _, _, err = New("secret-b", time.Hour).Verify(token)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignTokenTypes(t *testing.T) {
    // An access token signed with the same secret must never pass as a
    // ticket.
    claims := jwt.MapClaims{
        "typ": "access",
        "tid": "ticket-1",
        "eid": "event-1",
        "exp": time.Now().Add(time.Hour).Unix(),
    }
    token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
    require.NoError(t, err)

    _, _, err = New("test-secret", time.Hour).Verify(token)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMissingClaims(t *testing.T) {
    for name, claims := range map[string]jwt.MapClaims{
        "no tid":      {"typ": "ticket", "eid": "event-1", "exp": time.Now().Add(time.Hour).Unix()},
        "no eid":      {"typ": "ticket", "tid": "ticket-1", "exp": time.Now().Add(time.Hour).Unix()},
        "numeric tid": {"typ": "ticket", "tid": 42, "eid": "event-1", "exp": time.Now().Add(time.Hour).Unix()},
    } {
        t.Run(name, func(t *testing.T) {
            token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
            require.NoError(t, err)
            _, _, err = New("test-secret", time.Hour).Verify(token)
            assert.ErrorIs(t, err, ErrInvalidToken)
        })
    }
}
