package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Adeyod/degenuisFx-backend/internal/api/middleware"
	"github.com/Adeyod/degenuisFx-backend/internal/app/service"
	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/common/security"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"

	"github.com/go-chi/chi/v5"
)

const invalidPayload = "Invalid request payload"

// Middlewares are the per-route guards an AccountHandler mounts. A nil
// RateLimit leaves the sensitive routes unthrottled.
type Middlewares struct {
	Authenticate func(http.Handler) http.Handler
	AdminOnly    func(http.Handler) http.Handler
	RateLimit    func(http.Handler) http.Handler
}

type AccountHandler struct {
	accounts *service.AccountService
	sessions *security.SessionManager
	mw       Middlewares
	log      logging.Logger
}

func NewAccountHandler(accounts *service.AccountService, sessions *security.SessionManager, mw Middlewares, logger logging.Logger) *AccountHandler {
	if mw.RateLimit == nil {
		mw.RateLimit = func(next http.Handler) http.Handler { return next }
	}
	return &AccountHandler{
		accounts: accounts,
		sessions: sessions,
		mw:       mw,
		log:      logger.With("component", "account_handler", "kind", accounts.Kind()),
	}
}

func (h *AccountHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.With(h.mw.RateLimit).Post("/login", h.login)
	r.With(h.mw.RateLimit).Post("/forgotPassword", h.forgotPassword)
	r.Post("/resetPassword/{userId}/{token}", h.resetPassword)
	r.With(h.mw.RateLimit).Post("/resendEmailVerification", h.resendVerification)
	r.Post("/verify-email/{userId}/{token}", h.verifyEmail)
	r.Get("/verify-email/{userId}/{token}", h.verifyEmail)
	r.Get("/logout", h.logout)
	r.Get("/search", h.search)

	r.Group(func(auth chi.Router) {
		auth.Use(h.mw.Authenticate)
		auth.Get("/getSelf/{id}", h.getSelf)
		auth.Post("/update/{id}", h.update)

		auth.Group(func(admin chi.Router) {
			admin.Use(h.mw.AdminOnly)
			admin.Get("/getSingle/{id}", h.getSingle)
			admin.Get("/getAll", h.getAll)
		})
	})
}

func (h *AccountHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.accounts.Register(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}
	msg := fmt.Sprintf("%s registration is successful. Please verify your email with the link sent to you", h.label())
	common.RespondWithSuccess(w, http.StatusCreated, msg, nil)
}

func (h *AccountHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.VerifyEmail(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "token"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "Email verification successful", common.Envelope{"user": user})
}

func (h *AccountHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.sessions.SetCookie(w, res.Session)
	common.RespondWithSuccess(w, http.StatusOK, h.label()+" logged in successfully", common.Envelope{
		"user":        res.User,
		"token":       res.Session.Token,
		"clientToken": res.Session.ClientToken,
	})
}

func (h *AccountHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req service.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.accounts.ForgotPassword(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "Password reset link has been sent", nil)
}

func (h *AccountHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req service.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	err := h.accounts.ResetPassword(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "token"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "Password reset successfully. You can login", nil)
}

func (h *AccountHandler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req service.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.accounts.ResendVerification(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK,
		"Verification link sent successfully. Please verify your email with the link sent to you", nil)
}

func (h *AccountHandler) getSelf(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFromContext(r.Context())
	user, err := h.accounts.GetSelf(r.Context(), principal.UserID, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, h.label()+" fetched successfully", common.Envelope{"user": user})
}

func (h *AccountHandler) update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	principal, _ := middleware.PrincipalFromContext(r.Context())
	user, err := h.accounts.UpdateProfile(r.Context(), principal.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, h.label()+" updated successfully", common.Envelope{"user": user})
}

func (h *AccountHandler) search(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.SearchUsers(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(users) == 0 {
		common.RespondWithJSON(w, http.StatusNotFound, common.Envelope{
			"success": false,
			"status":  http.StatusNotFound,
			"error":   "No " + string(h.accounts.Kind()) + " found",
			"users":   users,
		})
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, h.label()+"s found successfully", common.Envelope{"users": users})
}

func (h *AccountHandler) getSingle(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, h.label()+" fetched successfully", common.Envelope{"user": user})
}

func (h *AccountHandler) getAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var page *int
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid page parameter")
			return
		}
		page = &n
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	result, err := h.accounts.ListUsers(r.Context(), page, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, h.label()+"s found successfully", common.Envelope{
		"users": result.Users,
		"pages": result.Pages,
		"count": result.Count,
	})
}

func (h *AccountHandler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	common.RespondWithSuccess(w, http.StatusOK, "User logged out successfully", nil)
}

func (h *AccountHandler) label() string { return h.accounts.Kind().Label() }

func (h *AccountHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !common.IsBusinessError(err) {
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	common.RespondWithServiceError(w, err)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, invalidPayload)
		return false
	}
	return true
}
