package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/segyhp/sponsorship-ledger/internal/domain"
	"github.com/segyhp/sponsorship-ledger/pkg/response"
)

const dateLayout = "2006-01-02"

// SponsorshipService is the part of service.SponsorshipService the HTTP layer needs.
type SponsorshipService interface {
	CreateSponsorship(ctx context.Context, request *domain.CreateSponsorshipRequest) (*domain.Sponsorship, error)
	ApplyPayment(ctx context.Context, sponsorshipID uuid.UUID, proposal domain.ProposedPayment) (*domain.PaymentApplied, error)
	CancelSponsorship(ctx context.Context, sponsorshipID uuid.UUID) (*domain.Sponsorship, error)
	GetSummary(ctx context.Context, sponsorshipID uuid.UUID) (*domain.SponsorshipSummary, error)
	ListPayments(ctx context.Context, sponsorshipID uuid.UUID) ([]*domain.Payment, error)
}

type SponsorshipHandler struct {
	service   SponsorshipService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewSponsorshipHandler(service SponsorshipService, logger *zap.Logger) *SponsorshipHandler {
	return &SponsorshipHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger,
	}
}

// RegisterRoutes mounts the sponsorship endpoints on api, normally the /api/v1 subrouter.
func (h *SponsorshipHandler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/sponsorships", h.CreateSponsorship).Methods(http.MethodPost)
	api.HandleFunc("/sponsorships/{id}", h.GetSponsorship).Methods(http.MethodGet)
	api.HandleFunc("/sponsorships/{id}/payments", h.MakePayment).Methods(http.MethodPost)
	api.HandleFunc("/sponsorships/{id}/payments", h.ListPayments).Methods(http.MethodGet)
	api.HandleFunc("/sponsorships/{id}/cancel", h.CancelSponsorship).Methods(http.MethodPost)
}

// CreateSponsorship handles POST /sponsorships
func (h *SponsorshipHandler) CreateSponsorship(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateSponsorshipRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	sponsorship, err := h.service.CreateSponsorship(r.Context(), &request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Created(w, sponsorship)
}

// GetSponsorship handles GET /sponsorships/{id} and returns the derived summary.
func (h *SponsorshipHandler) GetSponsorship(w http.ResponseWriter, r *http.Request) {
	id, ok := sponsorshipID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, summary)
}

// MakePayment handles POST /sponsorships/{id}/payments
func (h *SponsorshipHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := sponsorshipID(w, r)
	if !ok {
		return
	}

	var request domain.MakePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	// Layout already checked by the datetime validator.
	start, _ := time.Parse(dateLayout, request.StartDate)
	end, _ := time.Parse(dateLayout, request.EndDate)

	applied, err := h.service.ApplyPayment(r.Context(), id, domain.ProposedPayment{
		StartDate:     start,
		EndDate:       end,
		Amount:        request.Amount,
		TransactionID: request.TransactionID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Created(w, applied)
}

// ListPayments handles GET /sponsorships/{id}/payments
func (h *SponsorshipHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := sponsorshipID(w, r)
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, payments)
}

// CancelSponsorship handles POST /sponsorships/{id}/cancel
func (h *SponsorshipHandler) CancelSponsorship(w http.ResponseWriter, r *http.Request) {
	id, ok := sponsorshipID(w, r)
	if !ok {
		return
	}

	sponsorship, err := h.service.CancelSponsorship(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, sponsorship)
}

func (h *SponsorshipHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if response.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	response.FromError(w, err)
}

func sponsorshipID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid sponsorship ID", err)
		return uuid.Nil, false
	}
	return id, true
}
