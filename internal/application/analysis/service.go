package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/krishisakhi/analysis-api/internal/application"
	domain "github.com/krishisakhi/analysis-api/internal/domain/analysis"
	"github.com/krishisakhi/analysis-api/internal/domain/failures"
)

// Service implements the analysis pipeline use-case:
// validate → build prompt → call model → extract fields → store.
// Service is designed to be used concurrently and is thread-safe; each
// request runs to completion independently.
type Service struct {
	Repo     domain.Repository
	Model    domain.ModelClient
	Prompts  domain.PromptBuilder
	Images   domain.ImageStore   // optional; nil disables attachment storage
	Failures failures.Repository // optional; nil disables the failure audit log
	Clock    application.Clock
	Timeout  time.Duration // bound on the outbound model call
}

// climateValidity: climate predictions expire after a week
const climateValidity = 7 * 24 * time.Hour

// Analyze runs one request through the pipeline. Errors carry the stage
// they occurred in via the domain error taxonomy; extraction misses are
// not errors and fall back to per-field defaults.
func (s *Service) Analyze(ctx context.Context, req domain.Request) (*domain.Result, error) {
	spec, ok := domain.SpecFor(req.Domain)
	if !ok {
		s.recordFailure(req, failures.StageValidate, domain.ErrUnknownDomain)
		return nil, domain.ErrUnknownDomain
	}
	if err := Validate(req); err != nil {
		s.recordFailure(req, failures.StageValidate, err)
		return nil, err
	}

	now := s.Clock.Now()
	p, err := s.Prompts.Build(req, now)
	if err != nil {
		s.recordFailure(req, failures.StagePrompt, err)
		return nil, err
	}

	mctx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		mctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	raw, err := s.Model.Generate(mctx, p)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = domain.ErrGatewayTimeout
		}
		s.recordFailure(req, failures.StageModel, err)
		return nil, err
	}

	fields := ExtractFields(raw, spec.Fields)
	switch req.Domain {
	case domain.DomainMarket:
		fields["trend_direction"] = trendDirection(req.Input)
	case domain.DomainClimate:
		fields["valid_until"] = now.Add(climateValidity).Format(time.RFC3339)
	}

	imageURL := ""
	if req.Image != nil && s.Images != nil {
		key := fmt.Sprintf("%s/%s/%s%s", req.Domain, req.FarmerID, uuid.New().String(), extFor(req.Image.MIME))
		url, uerr := s.Images.UploadImage(ctx, key, *req.Image)
		if uerr != nil {
			// the model already saw the image; losing the copy is not fatal
			log.Printf("image upload failed for farmer=%s domain=%s: %v", req.FarmerID, req.Domain, uerr)
		} else {
			imageURL = url
		}
	}

	res := &domain.Result{
		ID:          domain.ResultID(uuid.New().String()),
		FarmerID:    req.FarmerID,
		Domain:      req.Domain,
		Input:       req.Input,
		RawAnalysis: raw,
		Fields:      fields,
		ImageURL:    imageURL,
		CreatedAt:   now,
	}
	if err := s.Repo.Save(ctx, res); err != nil {
		perr := &domain.PersistenceError{Err: err}
		s.recordFailure(req, failures.StageStore, perr)
		return nil, perr
	}
	return res, nil
}

// Latest ambil N hasil terakhir untuk satu farmer
func (s *Service) Latest(ctx context.Context, farmerID string, d domain.Domain, limit int) ([]*domain.Result, error) {
	return s.Repo.Latest(ctx, farmerID, d, limit)
}

// Get ambil 1 hasil by id
func (s *Service) Get(ctx context.Context, farmerID string, d domain.Domain, id domain.ResultID) (*domain.Result, error) {
	return s.Repo.Get(ctx, farmerID, d, id)
}

// Paginate returns one page of results, newest first.
func (s *Service) Paginate(ctx context.Context, farmerID string, d domain.Domain, page, pageSize int) ([]*domain.Result, error) {
	return s.Repo.Paginate(ctx, farmerID, d, page, pageSize)
}

// ListFailures returns recent pipeline failures for a farmer.
func (s *Service) ListFailures(ctx context.Context, farmerID string, limit int) ([]*failures.Failure, error) {
	if s.Failures == nil {
		return nil, nil
	}
	return s.Failures.ListByFarmer(ctx, farmerID, limit)
}

// recordFailure appends to the audit log, best-effort. Uses a background
// context so an already-cancelled request context can't drop the entry.
func (s *Service) recordFailure(req domain.Request, stage string, cause error) {
	if s.Failures == nil {
		return
	}
	details := "{}"
	if len(req.Input) > 0 {
		if b, err := json.Marshal(map[string]any{"input": req.Input}); err == nil {
			details = string(b)
		}
	}
	f := &failures.Failure{
		FarmerID:    req.FarmerID,
		Domain:      string(req.Domain),
		Stage:       stage,
		Message:     cause.Error(),
		DetailsJSON: details,
		CreatedAt:   time.Now(),
	}
	if err := s.Failures.Save(context.Background(), f); err != nil {
		log.Printf("failure audit write error: %v", err)
	}
}

// trendDirection derives the market trend from the supplied price
// observation, matching the sign convention of the price feed.
func trendDirection(input map[string]any) string {
	pd, ok := input["price_data"].(map[string]any)
	if !ok {
		return "unknown"
	}
	change, ok := pd["price_change"].(float64)
	if !ok {
		return "unknown"
	}
	if change > 0 {
		return "upward"
	}
	return "downward"
}

// helper
func extFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
