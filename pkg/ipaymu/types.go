package ipaymu

import "encoding/json"

// TransactionID tolerates the gateway sending transaction ids as JSON
// numbers or strings; both occur in the wild.
type TransactionID string

func (t *TransactionID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TransactionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = TransactionID(n.String())
	return nil
}

func (t TransactionID) String() string { return string(t) }

// DirectPaymentParams captures what the platform supplies when opening
// a payment on the gateway. Amount is in IDR without decimals and must
// equal UnitPrice times Quantity.
type DirectPaymentParams struct {
	Name           string
	Phone          string
	Email          string
	Amount         int64
	PaymentMethod  string
	PaymentChannel string
	ReferenceID    string
	Product        string
	Quantity       int
	UnitPrice      int64
	Comments       string
	ExpiryHours    int
}

type directPaymentRequest struct {
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email"`
	Amount         int64    `json:"amount"`
	NotifyURL      string   `json:"notifyUrl"`
	ReturnURL      string   `json:"returnUrl"`
	PaymentMethod  string   `json:"paymentMethod"`
	PaymentChannel string   `json:"paymentChannel,omitempty"`
	ReferenceID    string   `json:"referenceId"`
	Product        []string `json:"product"`
	Qty            []int    `json:"qty"`
	Price          []int64  `json:"price"`
	Comments       string   `json:"comments,omitempty"`
	Expired        int      `json:"expired,omitempty"`
	ExpiredType    string   `json:"expiredType,omitempty"`
}

// DirectPayment is the gateway's answer to a direct payment request.
// Which fields are populated depends on the method: VA numbers for va,
// QR data for qris, outlet payment codes for cstore.
type DirectPayment struct {
	TransactionID TransactionID `json:"transactionId"`
	SessionID     string        `json:"sessionId"`
	ReferenceID   string        `json:"referenceId"`
	Via           string        `json:"via"`
	Channel       string        `json:"channel"`
	PaymentNo     string        `json:"paymentNo"`
	PaymentName   string        `json:"paymentName"`
	Total         json.Number   `json:"total"`
	Fee           json.Number   `json:"fee"`
	Expired       string        `json:"expired"`
	QRString      string        `json:"qrString"`
	QRImage       string        `json:"qrImage"`
	PaymentURL    string        `json:"url"`
}

type checkTransactionRequest struct {
	TransactionID string `json:"transactionId"`
}

// Transaction status codes returned by the check endpoint.
const (
	TransactionStatusExpired = -2
	TransactionStatusPending = 0
	TransactionStatusSuccess = 1
)

// TransactionStatus reports the settlement state of a gateway transaction.
type TransactionStatus struct {
	TransactionID TransactionID `json:"transactionId"`
	SessionID     string        `json:"sessionId"`
	ReferenceID   string        `json:"referenceId"`
	Status        int           `json:"status"`
	StatusDesc    string        `json:"statusDesc"`
	Amount        json.Number   `json:"amount"`
	PaidAt        string        `json:"paidDate"`
}

// envelope is the outer response shape shared by every v2 endpoint.
// Status inside the JSON body is authoritative, not the HTTP status.
type envelope struct {
	Status  int             `json:"Status"`
	Success bool            `json:"Success"`
	Message string          `json:"Message"`
	Data    json.RawMessage `json:"Data"`
}
