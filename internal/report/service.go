package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"surveyadmin/internal/survey"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown export format")

type surveyStore interface {
	ListSurveys(ctx context.Context) ([]survey.Summary, error)
	LoadSurveys(ctx context.Context, ids []int64) ([]survey.Survey, error)
}

// Renderer turns loaded surveys into a single downloadable payload.
type Renderer interface {
	Render(surveys []survey.Survey) ([]byte, error)
	Extension() string
	ContentType() string
}

// ExportObserver receives one call per finished export.
type ExportObserver interface {
	ObserveExport(format string, ok bool, size int, elapsed time.Duration)
}

type ServiceConfig struct {
	CSV      CSVConfig
	Observer ExportObserver
}

type Service struct {
	store     surveyStore
	renderers map[Format]Renderer
	observer  ExportObserver
}

type ExportRequest struct {
	ID        string
	SurveyIDs []int64
	Format    Format
}

type Attachment struct {
	Filename    string
	ContentType string
	Body        []byte
}

func NewService(store surveyStore, cfg ServiceConfig) *Service {
	return &Service{
		store: store,
		renderers: map[Format]Renderer{
			FormatCSV:  NewCSVRenderer(cfg.CSV),
			FormatXLSX: NewXLSXRenderer(cfg.CSV),
		},
		observer: cfg.Observer,
	}
}

func (s *Service) ListSurveys(ctx context.Context) ([]survey.Summary, error) {
	return s.store.ListSurveys(ctx)
}

func (s *Service) Export(ctx context.Context, req ExportRequest) (*Attachment, error) {
	renderer, ok := s.renderers[req.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, req.Format)
	}
	if len(req.SurveyIDs) == 0 {
		return nil, survey.ErrInvalidInput
	}

	start := time.Now()
	att, err := s.export(ctx, renderer, req.SurveyIDs)
	elapsed := time.Since(start)

	size := 0
	if att != nil {
		size = len(att.Body)
	}
	if s.observer != nil {
		s.observer.ObserveExport(string(req.Format), err == nil, size, elapsed)
	}
	logExport(req, size, elapsed, err)
	return att, err
}

func (s *Service) export(ctx context.Context, renderer Renderer, ids []int64) (*Attachment, error) {
	surveys, err := s.store.LoadSurveys(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load surveys: %w", err)
	}
	body, err := renderer.Render(surveys)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", renderer.Extension(), err)
	}
	return &Attachment{
		Filename:    AttachmentName(surveys, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func logExport(req ExportRequest, size int, elapsed time.Duration, err error) {
	entry := map[string]any{
		"event":      "survey_export",
		"export_id":  req.ID,
		"format":     string(req.Format),
		"survey_ids": req.SurveyIDs,
		"bytes":      size,
		"elapsed_ms": float64(elapsed.Microseconds()) / 1000.0,
		"ok":         err == nil,
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	b, _ := json.Marshal(entry)
	log.Printf("%s", string(b))
}
