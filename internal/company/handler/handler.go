package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cadastro/internal/company/models"
	id "cadastro/pkg/domain"
	dErrors "cadastro/pkg/domain-errors"
	"cadastro/pkg/platform/httputil"
	"cadastro/pkg/requestcontext"
)

// Service defines the company operations exposed over HTTP.
type Service interface {
	Resolve(ctx context.Context, raw string) (*models.LookupResult, error)
	List(ctx context.Context, page, limit int) (*models.CompanyPage, error)
	Create(ctx context.Context, rec models.Record) (*models.CompanyView, error)
	Update(ctx context.Context, companyID id.CompanyID, patch models.Patch) (*models.CompanyView, error)
	Delete(ctx context.Context, companyID id.CompanyID) error
}

// Handler serves the /companies endpoints. Authentication is applied by the
// parent router.
type Handler struct {
	companies Service
	logger    *slog.Logger
}

func New(companies Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{companies: companies, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/companies", h.HandleList)
	r.Get("/companies/{taxId}", h.HandleGet)
	r.Post("/companies", h.HandleCreate)
	r.Put("/companies/{id}", h.HandleUpdate)
	r.Delete("/companies/{id}", h.HandleDelete)
}

type messageResponse struct {
	Message string `json:"message"`
}

// HandleList implements GET /companies?page&limit.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := queryInt(r, "page")
	limit := queryInt(r, "limit")

	res, err := h.companies.List(ctx, page, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list companies",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleGet implements GET /companies/{taxId}. The tax id may be formatted;
// the body is whatever the answering tier produced.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw, err := url.PathUnescape(chi.URLParam(r, "taxId"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid tax id"))
		return
	}

	res, err := h.companies.Resolve(ctx, raw)
	if err != nil {
		h.logLookupFailure(ctx, raw, err)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("X-Cache-Source", string(res.Source))
	httputil.WriteRawJSON(w, http.StatusOK, res.Body)
}

// HandleCreate implements POST /companies.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	rec, err := req.Record()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.companies.Create(ctx, rec)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create company", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

// HandleUpdate implements PUT /companies/{id}. Absent fields are left unchanged
// and empty optional fields are cleared.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	companyID, err := id.ParseCompanyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	patch, err := req.Patch()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.companies.Update(ctx, companyID, patch)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to update company",
			"error", err,
			"company_id", companyID.String(),
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleDelete implements DELETE /companies/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	companyID, err := id.ParseCompanyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.companies.Delete(ctx, companyID); err != nil {
		h.logger.WarnContext(ctx, "failed to delete company",
			"error", err,
			"company_id", companyID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "company deleted"})
}

func (h *Handler) logLookupFailure(ctx context.Context, raw string, err error) {
	args := []any{"error", err, "tax_id", raw, "request_id", requestcontext.RequestID(ctx)}
	if dErrors.HasCode(err, dErrors.CodeInternal) || dErrors.HasCode(err, dErrors.CodeUpstreamUnavailable) {
		h.logger.ErrorContext(ctx, "company lookup failed", args...)
		return
	}
	h.logger.InfoContext(ctx, "company lookup rejected", args...)
}

// queryInt returns 0 for a missing or unparsable value so the service applies its default.
func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
