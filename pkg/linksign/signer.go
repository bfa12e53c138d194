// Package linksign issues expiring HMAC tokens for unauthenticated download links.
package linksign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformed = errors.New("malformed link token")
	ErrSignature = errors.New("invalid link signature")
	ErrExpired   = errors.New("link expired")
)

// Signer creates and validates link tokens bound to a resource id.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner constructs a signer with the provided secret and TTL.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for resourceID and its expiry.
func (s *Signer) Sign(resourceID string) (string, time.Time, error) {
	if resourceID == "" {
		return "", time.Time{}, fmt.Errorf("resource id required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encodedID := base64.RawURLEncoding.EncodeToString([]byte(resourceID))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	return strings.Join([]string{encodedID, ts, s.mac(encodedID, ts)}, "."), expiresAt, nil
}

// Verify checks the token and returns the resource id it was issued for.
func (s *Signer) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrMalformed
	}
	encodedID, ts, signature := parts[0], parts[1], parts[2]

	if !hmac.Equal([]byte(s.mac(encodedID, ts)), []byte(signature)) {
		return "", ErrSignature
	}
	exp, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", ErrMalformed
	}
	if s.now().After(time.Unix(exp, 0)) {
		return "", ErrExpired
	}
	rawID, err := base64.RawURLEncoding.DecodeString(encodedID)
	if err != nil {
		return "", ErrMalformed
	}
	return string(rawID), nil
}

func (s *Signer) mac(encodedID, ts string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(encodedID + "|" + ts))
	return hex.EncodeToString(h.Sum(nil))
}
