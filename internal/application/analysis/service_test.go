package analysis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/krishisakhi/analysis-api/internal/application/analysis"
	domain "github.com/krishisakhi/analysis-api/internal/domain/analysis"
	"github.com/krishisakhi/analysis-api/internal/domain/failures"
)

// Test mocks defined locally to control behavior per test

type mockRepo struct {
	saveErr error
	saved   []*domain.Result
}

func (m *mockRepo) Save(ctx context.Context, res *domain.Result) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, res)
	return nil
}

func (m *mockRepo) Get(ctx context.Context, farmerID string, d domain.Domain, id domain.ResultID) (*domain.Result, error) {
	for _, r := range m.saved {
		if r.ID == id && r.FarmerID == farmerID {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockRepo) Latest(ctx context.Context, farmerID string, d domain.Domain, limit int) ([]*domain.Result, error) {
	return m.saved, nil
}

func (m *mockRepo) Paginate(ctx context.Context, farmerID string, d domain.Domain, page, pageSize int) ([]*domain.Result, error) {
	return m.saved, nil
}

type mockModel struct {
	calls    int
	generate func(ctx context.Context, p domain.Prompt) (string, error)
}

func (m *mockModel) Generate(ctx context.Context, p domain.Prompt) (string, error) {
	m.calls++
	if m.generate != nil {
		return m.generate(ctx, p)
	}
	return "", nil
}

type mockFailures struct {
	entries []*failures.Failure
}

func (m *mockFailures) Save(ctx context.Context, f *failures.Failure) error {
	m.entries = append(m.entries, f)
	return nil
}

func (m *mockFailures) ListByFarmer(ctx context.Context, farmerID string, limit int) ([]*failures.Failure, error) {
	return m.entries, nil
}

type mockImages struct {
	err  error
	keys []string
}

func (m *mockImages) UploadImage(ctx context.Context, key string, a domain.Attachment) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return "http://images.local/" + key, nil
}

type stubPrompts struct{}

func (stubPrompts) Build(req domain.Request, now time.Time) (domain.Prompt, error) {
	if !req.Domain.Valid() {
		return domain.Prompt{}, domain.ErrUnknownDomain
	}
	p := domain.Prompt{Text: "prompt for " + string(req.Domain)}
	if req.Image != nil {
		p.Attachments = append(p.Attachments, *req.Image)
	}
	return p, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC)

func newService(repo *mockRepo, model *mockModel, audit *mockFailures) *appanalysis.Service {
	return &appanalysis.Service{
		Repo:     repo,
		Model:    model,
		Prompts:  stubPrompts{},
		Failures: audit,
		Clock:    fixedClock{t: testNow},
		Timeout:  time.Second,
	}
}

func TestAnalyze_MissingFieldSkipsModelCall(t *testing.T) {
	repo := &mockRepo{}
	model := &mockModel{}
	svc := newService(repo, model, nil)

	_, err := svc.Analyze(context.Background(), domain.Request{
		FarmerID: "f1",
		Domain:   domain.DomainDisease,
		Input:    map[string]any{"symptoms": "yellow leaf spots"},
	})

	var missing *domain.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "crop_name", missing.Field)
	assert.Zero(t, model.calls, "model must not be called for invalid requests")
	assert.Empty(t, repo.saved)
}

func TestAnalyze_UnknownDomain(t *testing.T) {
	svc := newService(&mockRepo{}, &mockModel{}, nil)

	_, err := svc.Analyze(context.Background(), domain.Request{
		FarmerID: "f1",
		Domain:   domain.Domain("astrology"),
		Input:    map[string]any{},
	})

	require.ErrorIs(t, err, domain.ErrUnknownDomain)
}

func TestAnalyze_DiseaseConfidenceExtracted(t *testing.T) {
	repo := &mockRepo{}
	model := &mockModel{generate: func(ctx context.Context, p domain.Prompt) (string, error) {
		return "Likely blast disease.\nConfidence: 82%\nApply fungicide early.", nil
	}}
	svc := newService(repo, model, nil)

	res, err := svc.Analyze(context.Background(), domain.Request{
		FarmerID: "f1",
		Domain:   domain.DomainDisease,
		Input:    map[string]any{"crop_name": "Rice", "symptoms": "yellow leaf spots"},
	})

	require.NoError(t, err)
	assert.InDelta(t, 0.82, res.Fields["confidence_score"], 1e-9)
	assert.Equal(t, testNow, res.CreatedAt)
	assert.NotEmpty(t, res.ID)

	require.Len(t, repo.saved, 1)
	assert.Equal(t, res.Fields, repo.saved[0].Fields)
	assert.Equal(t, "f1", repo.saved[0].FarmerID)
}

func TestAnalyze_DiseaseConfidenceDefault(t *testing.T) {
	repo := &mockRepo{}
	model := &mockModel{generate: func(ctx context.Context, p domain.Prompt) (string, error) {
		return "The plant shows fungal stress; treat with neem oil.", nil
	}}
	svc := newService(repo, model, nil)

	res, err := svc.Analyze(context.Background(), domain.Request{
		FarmerID: "f1",
		Domain:   domain.DomainDisease,
		Input:    map[string]any{"crop_name": "Rice"},
	})

	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.Fields["confidence_score"], 1e-9)
}

func TestAnalyze_ClimateAlertLevel(t *testing.T) {
	for raw, want := range map[string]string{
		"Heavy rain expected. Alert level: high — secure your fields.": "high",
		"Calm week ahead with mild temperatures.":                      "medium",
	} {
		repo := &mockRepo{}
		model := &mockModel{generate: func(ctx context.Context, p domain.Prompt) (string, error) {
			return raw, nil
		}}
		svc := newService(repo, model, nil)

		res, err := svc.Analyze(context.Background(), domain.Request{
			FarmerID: "f2",
			Domain:   domain.DomainClimate,
			Input:    map[string]any{"location_data": map[string]any{"district": "Thrissur"}},
		})

		require.NoError(t, err)
		assert.Equal(t, want, res.Fields["alert_level"])
		assert.Equal(t, testNow.Add(7*24*time.Hour).Format(time.RFC3339), res.Fields["valid_until"])
	}
}

func TestAnalyze_MarketTrendDirection(t *testing.T) {
	model := &mockModel{generate: func(ctx context.Context, p domain.Prompt) (string, error) {
		return "Prices are seasonal; sell within two weeks.", nil
	}}
	svc := newService(&mockRepo{}, model, nil)

	res, err := svc.Analyze(context.Background(), domain.Request{
		FarmerID: "f3",
		Domain:   domain.DomainMarket,
		Input: map[string]any{
			"crop_name":  "Banana",
			"price_data": map[string]any{"current_price": 42.0, "price_change": 3.5},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "upward", res.Fields["trend_direction"])

	res, err = svc.Analyze(context.Background(), domain.Request{
		FarmerID: "f3",
		Domain:   domain.DomainMarket,
		Input: map[string]any{
			"crop_name":  "Banana",
			"price_data": map[string]any{"price_change": -1.25},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "downward", res.Fields["trend_direction"])
}

func TestAnalyze_GatewayTimeout(t *testing.T) {
	repo := &mockRepo{}
	model := &mockModel{generate: func(ctx context.Context, p domain.Prompt) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	audit := &mockFailures{}
	svc := newService(repo, model, audit)
	svc.Timeout = time.Millisecond

	_, err := svc.Analyze(context.Background(), domain.Request{
		FarmerID: "f1",
		Domain:   domain.DomainDisease,
		Input:    map[string]any{"crop_name": "Rice"},
	})

	require.ErrorIs(t, err, domain.ErrGatewayTimeout)
	assert.Empty(t, repo.saved, "nothing may be stored after a timeout")
	require.Len(t, audit.entries, 1)
	assert.Equal(t, failures.StageModel, audit.entries[0].Stage)
}

func TestAnalyze_GatewayFailureAudited(t *testing.T) {
	model := &mockModel{generate: func(ctx context.Context, p domain.Prompt) (string, error) {
		return "", &domain.GatewayError{Status: 429, Message: "quota exhausted"}
	}}
	audit := &mockFailures{}
	svc := newService(&mockRepo{}, model, audit)

	_, err := svc.Analyze(context.Background(), domain.Request{
		FarmerID: "f1",
		Domain:   domain.DomainVoice,
		Input:    map[string]any{"query": "when to sow paddy?"},
	})

	var gateway *domain.GatewayError
	require.ErrorAs(t, err, &gateway)
	assert.Equal(t, 429, gateway.Status)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, failures.StageModel, audit.entries[0].Stage)
	assert.Equal(t, string(domain.DomainVoice), audit.entries[0].Domain)
}

func TestAnalyze_PersistenceFailureSingleModelCall(t *testing.T) {
	repo := &mockRepo{saveErr: errors.New("connection reset")}
	model := &mockModel{generate: func(ctx context.Context, p domain.Prompt) (string, error) {
		return "Confidence: 90%", nil
	}}
	audit := &mockFailures{}
	svc := newService(repo, model, audit)

	_, err := svc.Analyze(context.Background(), domain.Request{
		FarmerID: "f1",
		Domain:   domain.DomainDisease,
		Input:    map[string]any{"crop_name": "Rice"},
	})

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, model.calls, "no duplicate model call on the error path")
	require.Len(t, audit.entries, 1)
	assert.Equal(t, failures.StageStore, audit.entries[0].Stage)
}

func TestAnalyze_ImageUploadFailureDegrades(t *testing.T) {
	repo := &mockRepo{}
	model := &mockModel{generate: func(ctx context.Context, p domain.Prompt) (string, error) {
		return "Risk level: high", nil
	}}
	svc := newService(repo, model, nil)
	svc.Images = &mockImages{err: errors.New("bucket unavailable")}

	res, err := svc.Analyze(context.Background(), domain.Request{
		FarmerID: "f4",
		Domain:   domain.DomainMicroplastic,
		Input: map[string]any{
			"sample_type": "soil",
			"sample_data": map[string]any{"ph": 6.4},
		},
		Image: &domain.Attachment{MIME: "image/jpeg", Data: []byte{0xff, 0xd8}},
	})

	require.NoError(t, err, "losing the image copy must not fail the analysis")
	assert.Empty(t, res.ImageURL)
	assert.Equal(t, "high", res.Fields["contamination_risk"])
	require.Len(t, repo.saved, 1)
}

func TestAnalyze_ImageUploadStoresURL(t *testing.T) {
	repo := &mockRepo{}
	model := &mockModel{generate: func(ctx context.Context, p domain.Prompt) (string, error) {
		return "no markers here", nil
	}}
	images := &mockImages{}
	svc := newService(repo, model, nil)
	svc.Images = images

	res, err := svc.Analyze(context.Background(), domain.Request{
		FarmerID: "f4",
		Domain:   domain.DomainDisease,
		Input:    map[string]any{"crop_name": "Pepper"},
		Image:    &domain.Attachment{MIME: "image/png", Data: []byte{0x89, 0x50}},
	})

	require.NoError(t, err)
	require.Len(t, images.keys, 1)
	assert.Contains(t, images.keys[0], "disease/f4/")
	assert.Contains(t, images.keys[0], ".png")
	assert.Equal(t, "http://images.local/"+images.keys[0], res.ImageURL)
}

func TestAnalyze_RoundTrip(t *testing.T) {
	repo := &mockRepo{}
	model := &mockModel{generate: func(ctx context.Context, p domain.Prompt) (string, error) {
		return "Confidence: 64%", nil
	}}
	svc := newService(repo, model, nil)

	res, err := svc.Analyze(context.Background(), domain.Request{
		FarmerID: "f9",
		Domain:   domain.DomainDisease,
		Input:    map[string]any{"crop_name": "Coconut"},
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), "f9", domain.DomainDisease, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Fields, got.Fields)
	assert.Equal(t, res.RawAnalysis, got.RawAnalysis)
}
