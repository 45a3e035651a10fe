package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/neointegra/neointegra-backend/api/responses"
	"github.com/neointegra/neointegra-backend/api/validators"
	internalsubs "github.com/neointegra/neointegra-backend/internal/subscriptions"
	"github.com/neointegra/neointegra-backend/pkg/db/models"
	"github.com/neointegra/neointegra-backend/pkg/enums"
	pkgerrors "github.com/neointegra/neointegra-backend/pkg/errors"
	"github.com/neointegra/neointegra-backend/pkg/logger"
)

// ListSubscriptions returns the user's active subscriptions.
func ListSubscriptions(svc internalsubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subs, err := svc.ListActive(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, subs)
	}
}

// ListExpiringSubscriptions returns active subscriptions ending within
// the requested window.
func ListExpiringSubscriptions(svc internalsubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		withinDays, err := validators.ParseQueryInt(r, "within_days", 7, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subs, err := svc.ListExpiringSoon(r.Context(), userID, withinDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, subs)
	}
}

// GetSubscription returns a single subscription owned by the user.
func GetSubscription(svc internalsubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subID, err := pathUUID(chi.URLParam(r, "subscriptionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sub, err := svc.GetSubscription(r.Context(), userID, subID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sub)
	}
}

type renewSubscriptionRequest struct {
	PaymentMethod  string `json:"payment_method" validate:"required"`
	PaymentChannel string `json:"payment_channel,omitempty"`
}

type renewSubscriptionResponse struct {
	Order          *models.Order `json:"order"`
	PaymentMethod  string        `json:"payment_method"`
	PaymentChannel string        `json:"payment_channel,omitempty"`
}

// RenewSubscription opens a pending renewal order. The chosen payment
// method is echoed back so the client can open the payment against the
// new order; the subscription's end date moves only once that payment
// settles.
func RenewSubscription(svc internalsubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subID, err := pathUUID(chi.URLParam(r, "subscriptionID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req renewSubscriptionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		channel := strings.TrimSpace(req.PaymentChannel)
		if method.RequiresChannel() && channel == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("payment method %s requires a channel", method)))
			return
		}
		if !method.RequiresChannel() {
			channel = ""
		}
		order, err := svc.Renew(r.Context(), userID, subID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, renewSubscriptionResponse{
			Order:          order,
			PaymentMethod:  method.String(),
			PaymentChannel: channel,
		})
	}
}
