package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/neointegra/neointegra-backend/api/responses"
	"github.com/neointegra/neointegra-backend/api/validators"
	internalnotifications "github.com/neointegra/neointegra-backend/internal/notifications"
	"github.com/neointegra/neointegra-backend/pkg/logger"
)

// ListNotifications returns the user's notification feed, newest first.
func ListNotifications(svc internalnotifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := internalnotifications.ListParams{
			UserID:     userID,
			UnreadOnly: r.URL.Query().Get("unread_only") == "true",
		}
		if params.Limit, err = validators.ParseQueryInt(r, "limit", 20, 1, 100); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.Offset, err = validators.ParseQueryInt(r, "offset", 0, 0, 10000); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// MarkNotificationRead marks a single notification as read.
func MarkNotificationRead(svc internalnotifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notificationID, err := pathUUID(chi.URLParam(r, "notificationID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), userID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

// MarkAllNotificationsRead marks every unread notification as read and
// reports how many were updated.
func MarkAllNotificationsRead(svc internalnotifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}
