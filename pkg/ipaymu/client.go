package ipaymu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/neointegra/neointegra-backend/pkg/config"
	pkgerrors "github.com/neointegra/neointegra-backend/pkg/errors"
	"github.com/neointegra/neointegra-backend/pkg/logger"
)

var (
	errVARequired     = errors.New("ipaymu virtual account number is required")
	errAPIKeyRequired = errors.New("ipaymu api key is required")
	errLoggerRequired = errors.New("ipaymu logger is required")
)

// Client exposes iPaymu v2 primitives with centralized signing, logging
// and error mapping.
type Client struct {
	httpClient *http.Client
	cfg        config.IPaymuConfig
	baseURL    string
	logger     *logger.Logger
	now        func() time.Time
}

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(cfg config.IPaymuConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.VA) == "" {
		return nil, errVARequired
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errAPIKeyRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		baseURL:    cfg.BaseURL(),
		logger:     logg,
		now:        time.Now,
	}, nil
}

// VA returns the configured merchant virtual account number.
func (c *Client) VA() string {
	if c == nil {
		return ""
	}
	return c.cfg.VA
}

// VerifyCallback checks an inbound notification signature against the
// configured credentials.
func (c *Client) VerifyCallback(body []byte, signature string) bool {
	if c == nil {
		return false
	}
	return VerifySignature(http.MethodPost, c.cfg.VA, c.cfg.APIKey, body, signature)
}

// CreateDirectPayment opens a payment on the gateway and returns the
// instrument details the buyer needs to settle it.
func (c *Client) CreateDirectPayment(ctx context.Context, params DirectPaymentParams) (*DirectPayment, error) {
	expiry := params.ExpiryHours
	if expiry <= 0 {
		expiry = c.cfg.ExpiryHour
	}
	product := params.Product
	if product == "" {
		product = params.ReferenceID
	}
	qty := params.Quantity
	if qty <= 0 {
		qty = 1
	}
	unitPrice := params.UnitPrice
	if unitPrice <= 0 {
		unitPrice = params.Amount
	}
	req := directPaymentRequest{
		Name:           params.Name,
		Phone:          params.Phone,
		Email:          params.Email,
		Amount:         params.Amount,
		NotifyURL:      c.cfg.NotifyURL,
		ReturnURL:      c.cfg.ReturnURL,
		PaymentMethod:  params.PaymentMethod,
		PaymentChannel: params.PaymentChannel,
		ReferenceID:    params.ReferenceID,
		Product:        []string{product},
		Qty:            []int{qty},
		Price:          []int64{unitPrice},
		Comments:       params.Comments,
		Expired:        expiry,
		ExpiredType:    "hours",
	}
	c.log(ctx, "request", "create_payment", map[string]any{
		"reference_id": params.ReferenceID,
		"method":       params.PaymentMethod,
		"channel":      params.PaymentChannel,
		"amount":       params.Amount,
	})

	var payment DirectPayment
	if err := c.postJSON(ctx, "/payment/direct", req, &payment); err != nil {
		c.log(ctx, "error", "create_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_payment", map[string]any{
		"transaction_id": payment.TransactionID,
		"via":            payment.Via,
		"channel":        payment.Channel,
	})
	return &payment, nil
}

// CheckTransaction polls the gateway for the current transaction state.
func (c *Client) CheckTransaction(ctx context.Context, transactionID string) (*TransactionStatus, error) {
	req := checkTransactionRequest{TransactionID: transactionID}
	c.log(ctx, "request", "check_transaction", map[string]any{"transaction_id": transactionID})

	var status TransactionStatus
	if err := c.postJSON(ctx, "/transaction", req, &status); err != nil {
		c.log(ctx, "error", "check_transaction", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "check_transaction", map[string]any{
		"transaction_id": status.TransactionID,
		"status":         status.Status,
	})
	return &status, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("va", c.cfg.VA)
	httpReq.Header.Set("signature", Sign(http.MethodPost, c.cfg.VA, c.cfg.APIKey, body))
	httpReq.Header.Set("timestamp", Timestamp(c.now()))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call payment gateway")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read gateway response")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	if env.Status != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeGateway, fmt.Sprintf("gateway status %d: %s", env.Status, env.Message))
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway payload")
		}
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("ipaymu %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("ipaymu %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"apikey", "signature", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
