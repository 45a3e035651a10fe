package ipaymu

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/neointegra/neointegra-backend/pkg/enums"
)

// CallbackPayload is the notification the gateway posts when a
// transaction changes state. The gateway sends JSON or form-encoded
// bodies depending on merchant settings, so both are accepted.
type CallbackPayload struct {
	TrxID       string `json:"trx_id"`
	SessionID   string `json:"sid"`
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
	StatusCode  string `json:"status_code"`
	Via         string `json:"via"`
	Channel     string `json:"channel"`
	PaymentNo   string `json:"payment_no"`
	Amount      string `json:"amount"`
}

// ParseCallback decodes a notification body using the request content type.
func ParseCallback(contentType string, body []byte) (*CallbackPayload, error) {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch {
	case strings.Contains(mediaType, "json"):
		var payload CallbackPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decode callback json: %w", err)
		}
		return &payload, nil
	default:
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("decode callback form: %w", err)
		}
		return &CallbackPayload{
			TrxID:       values.Get("trx_id"),
			SessionID:   values.Get("sid"),
			ReferenceID: values.Get("reference_id"),
			Status:      values.Get("status"),
			StatusCode:  values.Get("status_code"),
			Via:         values.Get("via"),
			Channel:     values.Get("channel"),
			PaymentNo:   values.Get("payment_no"),
			Amount:      values.Get("amount"),
		}, nil
	}
}

// PaymentStatus maps the gateway's status code onto the platform's
// payment state. Code "1" is settled, "0" still pending, everything
// else failed.
func (p *CallbackPayload) PaymentStatus() enums.PaymentStatus {
	switch strings.TrimSpace(p.StatusCode) {
	case "1":
		return enums.PaymentStatusSuccess
	case "0":
		return enums.PaymentStatusPending
	default:
		return enums.PaymentStatusFailed
	}
}

// SignatureFromRequest pulls the notification signature from where the
// gateway puts it.
func SignatureFromRequest(r *http.Request) string {
	if sig := r.Header.Get("signature"); sig != "" {
		return sig
	}
	return r.Header.Get("Signature")
}
