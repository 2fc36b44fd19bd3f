package api

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/flowcrm/pain-radar/internal/store"
)

type contextKey string

const (
	tenantIDKey contextKey = "tenantID"
	userIDKey   contextKey = "userID"
)

// tenantMiddleware resolves the caller's workspace from the X-Tenant-ID
// and X-User-ID headers and rejects non-members before any handler runs.
func tenantMiddleware(st store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := r.Header.Get("X-Tenant-ID")
			userID := r.Header.Get("X-User-ID")
			if tenantID == "" || userID == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing X-Tenant-ID or X-User-ID header")
				return
			}

			member, err := st.IsMember(r.Context(), tenantID, userID)
			if err != nil {
				logrus.Errorf("Membership check failed for user %s in tenant %s: %v", userID, tenantID, err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !member {
				logrus.Warnf("User %s is not a member of tenant %s", userID, tenantID)
				writeJSONError(w, http.StatusForbidden, "not a member of this workspace")
				return
			}

			ctx := context.WithValue(r.Context(), tenantIDKey, tenantID)
			ctx = context.WithValue(ctx, userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tenantID(r *http.Request) string {
	v, _ := r.Context().Value(tenantIDKey).(string)
	return v
}

func userID(r *http.Request) string {
	v, _ := r.Context().Value(userIDKey).(string)
	return v
}

// loggingMiddleware logs each request at debug level.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logrus.Debugf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
