package handler

import (
	"code_assessment/internal/api/middleware"
	"code_assessment/internal/common"
	"errors"
	"net/http"

	"github.com/go-chi/httplog/v2"
)

// respondError writes err as JSON. Known not-found errors get the given
// text; server-side failures are logged and hidden from the client.
func respondError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	status := common.HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError {
		httplog.LogEntry(r.Context()).Error("request failed", "error", err)
	}
	if status == http.StatusNotFound && notFoundMsg != "" && errors.Is(err, common.ErrNotFound) {
		common.RespondWithError(w, status, notFoundMsg)
		return
	}
	common.RespondWithServiceError(w, err)
}

// requireUser returns the authenticated user id or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "No token provided")
	}
	return userID, ok
}
