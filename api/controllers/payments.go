package controllers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/neointegra/neointegra-backend/api/responses"
	"github.com/neointegra/neointegra-backend/api/validators"
	internalpayments "github.com/neointegra/neointegra-backend/internal/payments"
	"github.com/neointegra/neointegra-backend/pkg/enums"
	pkgerrors "github.com/neointegra/neointegra-backend/pkg/errors"
	"github.com/neointegra/neointegra-backend/pkg/ipaymu"
	"github.com/neointegra/neointegra-backend/pkg/logger"
)

const maxCallbackBody = 1 << 20

type createPaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Method  string    `json:"method" validate:"required"`
	Channel string    `json:"channel,omitempty"`
}

// CreatePayment opens a payment attempt for an order. The charged
// amount is resolved server-side from the order.
func CreatePayment(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(req.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		payment, err := svc.CreatePayment(r.Context(), internalpayments.CreatePaymentInput{
			UserID:  userID,
			OrderID: req.OrderID,
			Method:  method,
			Channel: req.Channel,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}

// GetPayment returns a payment owned by the authenticated user.
func GetPayment(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := pathUUID(chi.URLParam(r, "paymentID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payment, err := svc.GetPayment(r.Context(), userID, paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// ListOrderPayments returns every payment attempt for an order owned
// by the authenticated user.
func ListOrderPayments(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payments, err := svc.ListByOrder(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments)
	}
}

// CheckPaymentStatus polls the gateway for a pending payment and
// returns the converged state.
func CheckPaymentStatus(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := pathUUID(chi.URLParam(r, "paymentID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payment, err := svc.CheckStatus(r.Context(), userID, paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}

// PaymentCallback receives gateway notifications. It is unauthenticated;
// trust comes from the HMAC signature over the raw body.
func PaymentCallback(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read callback body"))
			return
		}
		signature := ipaymu.SignatureFromRequest(r)
		err = svc.HandleCallback(r.Context(), r.Header.Get("Content-Type"), body, signature)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeUnauthorized {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			// The gateway retries any non-2xx answer forever. Once the
			// signature checks out, processing failures are logged and
			// acknowledged; the polling path reconciles the state.
			if logg != nil {
				logg.Error(r.Context(), "payment callback processing failed", err)
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
