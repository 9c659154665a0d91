package handler

import (
	"net/http"

	"github.com/Adeyod/degenuisFx-backend/internal/app/service"
	"github.com/Adeyod/degenuisFx-backend/internal/common"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"

	"github.com/go-chi/chi/v5"
)

type ContactHandler struct {
	contacts *service.ContactService
	log      logging.Logger
}

func NewContactHandler(contacts *service.ContactService, logger logging.Logger) *ContactHandler {
	return &ContactHandler{contacts: contacts, log: logger.With("component", "contact_handler")}
}

func (h *ContactHandler) RegisterRoutes(r chi.Router) {
	r.Post("/feedback", h.feedback)
	r.Post("/contactUs", h.contactUs)
	r.Post("/emailSubscription", h.subscribe)
}

func (h *ContactHandler) feedback(w http.ResponseWriter, r *http.Request) {
	var req service.FeedbackRequest
	if !decode(w, r, &req) {
		return
	}
	f, err := h.contacts.SubmitFeedback(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "Thank you for the feedback", common.Envelope{"sender": f.Name})
}

func (h *ContactHandler) contactUs(w http.ResponseWriter, r *http.Request) {
	var req service.ContactRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.contacts.ContactUs(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "Thank you for contacting us, we will soon get back to you",
		common.Envelope{"sender": m.Name})
}

func (h *ContactHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req service.SubscribeRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.contacts.Subscribe(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}
	common.RespondWithSuccess(w, http.StatusOK, "Thank you for subscribing", nil)
}

func (h *ContactHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !common.IsBusinessError(err) {
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	common.RespondWithServiceError(w, err)
}
