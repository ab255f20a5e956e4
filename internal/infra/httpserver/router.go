package httpserver

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/krishisakhi/analysis-api/internal/application/analysis"
	domain "github.com/krishisakhi/analysis-api/internal/domain/analysis"
	"github.com/krishisakhi/analysis-api/internal/middleware"
)

var errBadRequest = errors.New("bad request")

type Router struct {
	svc *appanalysis.Service
}

func NewRouter(svc *appanalysis.Service) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	// permissive CORS; browser clients call these endpoints directly
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "x-client-info", "apikey"},
		MaxAge:         300,
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze/{domain}", r.wrap(r.handleAnalyze))
		rt.Get("/results/{domain}/latest", r.wrap(r.handleLatest))
		rt.Get("/results/{domain}/{id}", r.wrap(r.handleGet))
		rt.Get("/results/{domain}", r.wrap(r.handleList))
		rt.Get("/failures", r.wrap(r.handleFailures))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			writeError(w, err)
		}
	}
}

// writeError maps the pipeline error taxonomy onto HTTP statuses. Client
// faults get 4xx; upstream model faults 502/504; everything else 500. The
// body shape is uniform: {"error": ..., "success": false}.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var missing *domain.MissingFieldError
	var gateway *domain.GatewayError
	switch {
	case errors.As(err, &missing),
		errors.Is(err, domain.ErrUnknownDomain),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrGatewayTimeout):
		status = http.StatusGatewayTimeout
	case errors.As(err, &gateway):
		status = http.StatusBadGateway
	case errors.Is(err, sql.ErrNoRows):
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   err.Error(),
		"success": false,
	})
}

// POST /v1/analyze/{domain}
// Body: flat JSON with farmer_id, the domain's fields, and an optional
// base64 image_data (+ image_mime).
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	middleware.IncrementAnalyses()

	d := domain.Domain(chi.URLParam(req, "domain"))

	var payload map[string]any
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		middleware.IncrementAnalysesFailed()
		return fmt.Errorf("invalid JSON body: %w", errBadRequest)
	}

	farmerID, _ := payload["farmer_id"].(string)
	delete(payload, "farmer_id")

	// strip control characters from free-text inputs before they reach a prompt
	for k, v := range payload {
		if s, ok := v.(string); ok && k != "image_data" {
			payload[k] = middleware.SanitizeString(s)
		}
	}

	var img *domain.Attachment
	if raw, ok := payload["image_data"].(string); ok && raw != "" {
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			middleware.IncrementAnalysesFailed()
			return fmt.Errorf("invalid image_data: %w", errBadRequest)
		}
		if err := middleware.ValidateImageSize(data); err != nil {
			middleware.IncrementAnalysesFailed()
			return fmt.Errorf("%v: %w", err, errBadRequest)
		}
		mime, _ := payload["image_mime"].(string)
		if mime == "" {
			mime = "image/jpeg"
		}
		img = &domain.Attachment{MIME: mime, Data: data}
	}
	delete(payload, "image_data")
	delete(payload, "image_mime")

	res, err := r.svc.Analyze(req.Context(), domain.Request{
		FarmerID: farmerID,
		Domain:   d,
		Input:    payload,
		Image:    img,
	})
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}

	resp := map[string]any{
		"id":       res.ID,
		"analysis": res.RawAnalysis,
		"fields":   res.Fields,
		"success":  true,
	}
	if spec, ok := domain.SpecFor(d); ok && spec.Headline != "" {
		resp[spec.Headline] = res.Fields[spec.Headline]
	}
	if d == domain.DomainVoice {
		resp["response"] = res.RawAnalysis
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(resp)
}

// GET /v1/results/{domain}/latest?farmer_id=&limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	d := domain.Domain(chi.URLParam(req, "domain"))
	farmerID, err := farmerFromQuery(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := r.svc.Latest(req.Context(), farmerID, d, limit)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/results/{domain}/{id}?farmer_id=
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	d := domain.Domain(chi.URLParam(req, "domain"))
	id := chi.URLParam(req, "id")
	farmerID, err := farmerFromQuery(req)
	if err != nil {
		return err
	}

	res, err := r.svc.Get(req.Context(), farmerID, d, domain.ResultID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

// GET /v1/results/{domain}?farmer_id=&page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	d := domain.Domain(chi.URLParam(req, "domain"))
	farmerID, err := farmerFromQuery(req)
	if err != nil {
		return err
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.Paginate(req.Context(), farmerID, d, page, size)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/failures?farmer_id=&limit=
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) error {
	farmerID, err := farmerFromQuery(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := r.svc.ListFailures(req.Context(), farmerID, limit)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

func farmerFromQuery(req *http.Request) (string, error) {
	farmerID := req.URL.Query().Get("farmer_id")
	if err := middleware.ValidateFarmerID(farmerID); err != nil {
		return "", fmt.Errorf("%v: %w", err, errBadRequest)
	}
	return farmerID, nil
}
