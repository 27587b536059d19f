package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	headerSignature = "X-Signature"
	headerRequestID = "X-Request-Id"

	// signatureTolerance bounds how far ts may drift from the receiver clock.
	signatureTolerance = 5 * time.Minute
)

// signatureManifest is the string the provider signs for a notification.
func signatureManifest(dataID, requestID, ts string) string {
	return fmt.Sprintf("id:%s;request-id:%s;ts:%s;", strings.ToLower(dataID), requestID, ts)
}

// SignNotification returns the v1 signature for a notification.
func SignNotification(secret, dataID, requestID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureManifest(dataID, requestID, ts)))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifySignature checks a "ts=<unix>,v1=<hex hmac>" signature header. ts may be
// in seconds or milliseconds and must lie within signatureTolerance of now.
func verifySignature(secret string, headers http.Header, dataID string, now time.Time) error {
	raw := headers.Get(headerSignature)
	if raw == "" {
		return fmt.Errorf("%w: missing %s header", ErrInvalidSignature, headerSignature)
	}

	var ts, v1 string
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return fmt.Errorf("%w: malformed %s header", ErrInvalidSignature, headerSignature)
	}

	signedAt, err := parseSignatureTime(ts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if drift := now.Sub(signedAt).Abs(); drift > signatureTolerance {
		return fmt.Errorf("%w: timestamp %s is %s away from now", ErrInvalidSignature, ts, drift.Round(time.Second))
	}

	want := SignNotification(secret, dataID, headers.Get(headerRequestID), ts)
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(v1))) {
		return ErrInvalidSignature
	}
	return nil
}

func parseSignatureTime(ts string) (time.Time, error) {
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("bad timestamp %q", ts)
	}
	if n > 1e12 {
		return time.UnixMilli(n), nil
	}
	return time.Unix(n, 0), nil
}
