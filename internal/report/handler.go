package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"surveyadmin/internal/app/apiresp"
	"surveyadmin/internal/survey"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const exportIDHeader = "X-Export-ID"

type exportService interface {
	ListSurveys(ctx context.Context) ([]survey.Summary, error)
	Export(ctx context.Context, req ExportRequest) (*Attachment, error)
}

type Handler struct {
	svc      exportService
	validate *validator.Validate
}

type exportRequest struct {
	SurveyIDs []int64 `json:"survey_ids" validate:"required,min=1,max=100,dive,gt=0"`
}

func NewHandler(svc *Service) *Handler {
	return newHandler(svc)
}

func newHandler(svc exportService) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListSurveys(r.Context())
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, FormatCSV)
}

func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, FormatXLSX)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, format Format) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "survey_ids must list 1-100 positive ids")
		return
	}

	exportID := uuid.NewString()
	att, err := h.svc.Export(r.Context(), ExportRequest{
		ID:        exportID,
		SurveyIDs: dedupeIDs(req.SurveyIDs),
		Format:    format,
	})
	if err != nil {
		switch {
		case errors.Is(err, survey.ErrInvalidInput):
			apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, survey.ErrSurveyNotFound):
			apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrImproperlyConfigured):
			apiresp.WriteError(w, r, http.StatusInternalServerError, ErrImproperlyConfigured.Error())
		default:
			apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set(exportIDHeader, exportID)
	apiresp.WriteAttachment(w, att.ContentType, att.Filename, att.Body)
}

// dedupeIDs keeps the first occurrence of every id.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
