package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner mints self-contained download tokens so artifact downloads
// need no session. A token binds a job ID to a stored file name and an expiry;
// the HMAC covers all three, so none can be swapped after signing.
//
// Token layout: jobID.expiryUnix.base64(name).base64(signature), every part
// URL safe so the token can sit in a path segment.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner builds a signer. TTL defaults to 24 hours.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

// Generate signs a token for the job's stored artifact.
func (s *SignedURLSigner) Generate(jobID, name string) (string, time.Time, error) {
	if jobID == "" || name == "" {
		return "", time.Time{}, fmt.Errorf("job id and file name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedName := base64.RawURLEncoding.EncodeToString([]byte(name))
	signature := s.sign(jobID, strconv.FormatInt(expiresAt.Unix(), 10), encodedName)
	token := strings.Join([]string{
		jobID,
		strconv.FormatInt(expiresAt.Unix(), 10),
		encodedName,
		signature,
	}, ".")
	return token, expiresAt, nil
}

// Parse checks the signature and expiry and returns the embedded job ID and
// file name. Cleanup passes allowExpired to recover file names from tokens
// whose window has already closed.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (jobID, name string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("invalid token format")
	}
	jobID, ts, encodedName, signature := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(jobID, ts, encodedName)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("invalid timestamp")
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}

	rawName, err := base64.RawURLEncoding.DecodeString(encodedName)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode file name: %w", err)
	}
	return jobID, string(rawName), expiresAt, nil
}

func (s *SignedURLSigner) sign(jobID, ts, encodedName string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(jobID + "|" + ts + "|" + encodedName))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
