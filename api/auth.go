package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/todiane/djangify/auth"
	authcontext "github.com/todiane/djangify/auth/context"
)

// authMiddleware resolves the session cookie into a request subject.
// Stale or orphaned sessions get cleaned up and the request proceeds as
// anonymous.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionValueNotFoundError *SessionValueNotFoundError

		sessionID, err := h.getSessionValue(r, sessionIDKey)
		if err != nil && !errors.As(err, &sessionValueNotFoundError) {
			slog.ErrorContext(r.Context(), "error on getting session value", "key", sessionIDKey, "error", err)
			respondFail(w, http.StatusInternalServerError, nil, "internal server error")

			return
		}

		if sessionID != nil && sessionID.(string) != "" {
			session, err := h.authSvc.GetSession(r.Context(), sessionID.(string))
			if err != nil {
				var (
					sessionNotFoundError *auth.SessionNotFoundError
					sessionExpiredError  *auth.SessionExpiredError
				)

				if errors.As(err, &sessionNotFoundError) || errors.As(err, &sessionExpiredError) {
					err = h.deleteSessionValue(w, r, sessionIDKey)
					if err != nil {
						slog.ErrorContext(r.Context(), "error on deleting session value", "key", sessionIDKey, "error", err)
						respondFail(w, http.StatusInternalServerError, nil, "internal server error")

						return
					}

					next.ServeHTTP(w, r)

					return
				}

				slog.ErrorContext(r.Context(), "error on getting session", "sessionId", sessionID, "error", err)
				respondFail(w, http.StatusInternalServerError, nil, "internal server error")

				return
			}

			r = r.WithContext(authcontext.WithSessionID(r.Context(), session.ID))

			user, err := h.authSvc.GetUser(r.Context(), session.UserID)
			if err != nil {
				var userNotFoundError auth.UserNotFoundError
				if errors.As(err, &userNotFoundError) {
					err = h.authSvc.Logout(r.Context(), session.ID)
					if err != nil {
						slog.ErrorContext(r.Context(), "error on logging out session", "sessionId", session.ID, "error", err)
						respondFail(w, http.StatusInternalServerError, nil, "internal server error")

						return
					}

					err = h.deleteSessionValue(w, r, sessionIDKey)
					if err != nil {
						slog.ErrorContext(r.Context(), "error on deleting session value", "key", sessionIDKey, "error", err)
						respondFail(w, http.StatusInternalServerError, nil, "internal server error")

						return
					}

					next.ServeHTTP(w, r)

					return
				}

				slog.ErrorContext(r.Context(), "error retrieving user", "error", err)
				respondFail(w, http.StatusInternalServerError, nil, "internal server error")

				return
			}

			ctx := authcontext.WithSubject(r.Context(), user.ID)
			if user.IsStaff {
				ctx = authcontext.WithStaff(ctx)
			}

			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)
	})
}

func isAuthenticated(r *http.Request) bool {
	return authcontext.GetSubject(r.Context()) != authcontext.Anonymous
}

func isStaff(r *http.Request) bool {
	return authcontext.IsStaff(r.Context())
}

// StaffOnly gates management endpoints behind a staff session.
func (h *Handler) StaffOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isStaff(r) {
			respondFail(w, http.StatusForbidden, nil, "permission denied")

			return
		}

		next.ServeHTTP(w, r)
	})
}

type userResponse struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	IsStaff  bool      `json:"is_staff"`
	Joined   time.Time `json:"date_joined"`
}

func newUserResponse(user *auth.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff,
		Joined:   user.RegisteredAt,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest

		err := decodeJSON(r, &req)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		session, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		err = h.setSessionValue(w, r, sessionIDKey, session.ID)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		user, err := h.authSvc.GetUser(r.Context(), session.UserID)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusOK, newUserResponse(user), "logged in")
	})
}

func (h *Handler) HandleLogout() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := authcontext.SessionIDFromContext(r.Context())
		if ok {
			err := h.authSvc.Logout(r.Context(), sessionID)
			if err != nil {
				h.respondError(w, r, err)

				return
			}
		}

		err := h.deleteSessionValue(w, r, sessionIDKey)
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusOK, nil, "logged out")
	})
}

func (h *Handler) HandleMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthenticated(r) {
			respondFail(w, http.StatusForbidden, nil, "permission denied")

			return
		}

		user, err := h.authSvc.GetCurrentUser(r.Context())
		if err != nil {
			h.respondError(w, r, err)

			return
		}

		respondSuccess(w, http.StatusOK, newUserResponse(user), "")
	})
}
