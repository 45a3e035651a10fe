package ipaymu

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// TimestampFormat is the wall-clock format iPaymu expects in the
// timestamp header.
const TimestampFormat = "20060102150405"

// BodyHash returns the lowercase hex SHA-256 of the raw request body.
func BodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// StringToSign assembles the canonical string the gateway signs:
// METHOD:VA:bodyhash:APIKEY with the method uppercased.
func StringToSign(method, va, apiKey string, body []byte) string {
	return fmt.Sprintf("%s:%s:%s:%s", strings.ToUpper(method), va, BodyHash(body), apiKey)
}

// Sign computes the HMAC-SHA256 request signature keyed by the API key.
func Sign(method, va, apiKey string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(StringToSign(method, va, apiKey, body)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks an inbound signature in constant time.
func VerifySignature(method, va, apiKey string, body []byte, signature string) bool {
	expected := Sign(method, va, apiKey, body)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// Timestamp formats the given time for the timestamp header.
func Timestamp(now time.Time) string {
	return now.Format(TimestampFormat)
}
