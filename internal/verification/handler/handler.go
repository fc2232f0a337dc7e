// Package handler exposes the verification HTTP surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"veritag/internal/ratelimit"
	ratelimitmodels "veritag/internal/ratelimit/models"
	"veritag/internal/scan"
	scanmodels "veritag/internal/scan/models"
	tagmodels "veritag/internal/tag/models"
	"veritag/internal/verification"
	id "veritag/pkg/domain"
	dErrors "veritag/pkg/domain-errors"
	audit "veritag/pkg/platform/audit"
	"veritag/pkg/platform/audit/publisher"
	"veritag/pkg/platform/httputil"
	"veritag/pkg/platform/middleware/csrf"
	"veritag/pkg/platform/privacy"
	"veritag/pkg/requestcontext"
)

// Service defines the verification operations the handler fronts.
type Service interface {
	Verify(ctx context.Context, tagCode string, geo scanmodels.Geo) (*verification.VerifyResult, error)
	Scan(ctx context.Context, tagCode string, obs scan.Observation) (*verification.ScanResult, error)
	History(ctx context.Context, tagCode string) (*tagmodels.Tag, []*scanmodels.ScanEvent, error)
	RecordAnswer(ctx context.Context, scanID id.ScanID, answer scanmodels.Answer) error
}

// Handler handles the verification endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	limiter *ratelimit.Service
	csrf    *csrf.Validator
	audit   *publisher.Publisher
}

// Option configures a Handler.
type Option func(*Handler)

// WithAudit sets the audit publisher for gate rejections.
func WithAudit(p *publisher.Publisher) Option {
	return func(h *Handler) { h.audit = p }
}

// New creates a verification Handler.
func New(service Service, limiter *ratelimit.Service, csrfValidator *csrf.Validator, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		logger:  logger,
		service: service,
		limiter: limiter,
		csrf:    csrfValidator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the verification routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/verify", h.handleVerify)
	r.Post("/api/v1/scan", h.handleScan)
	r.Post("/api/v1/scan/{id}/answer", h.handleAnswer)
	r.Get("/api/v1/tags/{code}/scans", h.handleHistory)
	r.Get("/api/v1/scan-token", h.handleIssueToken)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	if code == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "code is required"))
		return
	}

	geo, err := geoFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Verify(ctx, code, geo)
	if err != nil {
		h.writeServiceError(ctx, w, "verify", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, verifyResponse{
		verdictBlocks: toVerdictBlocks(&result.Result),
		History:       toScanEventBlocks(result.History),
	})
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	// Gates run before any core logic: CSRF first, then the rate limiter.
	if err := h.csrf.Check(r.Header.Get(csrf.HeaderName)); err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ScanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	clientIP := requestcontext.ClientIP(ctx)
	limit := h.limiter.CheckScan(ctx, clientIP, req.FingerprintID)
	writeRateLimitHeaders(w, limit)
	if !limit.Allowed {
		h.emitRateLimited(ctx, req.TagCode, req.FingerprintID, clientIP)
		httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "scan rate limit exceeded"))
		return
	}

	obs := scan.Observation{
		FingerprintID: req.FingerprintID,
		IPAddress:     clientIP,
		UserAgent:     requestcontext.UserAgent(ctx),
		Geo:           req.Geo(),
	}

	result, err := h.service.Scan(ctx, req.TagCode, obs)
	if err != nil {
		h.writeServiceError(ctx, w, "scan", err)
		return
	}

	response := scanResponse{
		verdictBlocks:                toVerdictBlocks(&result.Result),
		ScanID:                       result.Outcome.Scan.ID.String(),
		ScanNumber:                   result.Outcome.ScanNumber,
		IsNewFingerprint:             result.Outcome.IsNewFingerprint,
		PreviousScansFromFingerprint: result.Outcome.PreviousScansFromFingerprint,
		UniqueScannerCount:           result.Outcome.UniqueScanners,
		Question:                     toQuestionBlock(result.Outcome.Question),
	}
	if len(result.Outcome.History) > 0 {
		response.History = toScanEventBlocks(result.Outcome.History)
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	scanID, err := id.ParseScanID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "scan id must be a valid UUID"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[AnswerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.RecordAnswer(ctx, scanID, req.Answer()); err != nil {
		h.writeServiceError(ctx, w, "answer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, answerResponse{Success: true})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := chi.URLParam(r, "code")
	tag, history, err := h.service.History(ctx, code)
	if err != nil {
		h.writeServiceError(ctx, w, "history", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, historyResponse{
		TagCode: tag.Code,
		Scans:   toScanEventBlocks(history),
	})
}

func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := h.csrf.Issue(requestcontext.Now(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "scan token issue failed", "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to issue scan token"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresIn: int(h.csrf.TTL() / time.Second),
	})
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "verification request failed",
			"operation", operation,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) emitRateLimited(ctx context.Context, tagCode, fingerprint, ip string) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Emit(ctx, audit.Event{
		Category:          audit.CategorySecurity,
		Action:            string(audit.EventRateLimited),
		TagCode:           tagCode,
		FingerprintDigest: privacy.FingerprintDigest(fingerprint),
		IPPrefix:          privacy.AnonymizeIP(ip),
		RequestID:         requestcontext.RequestID(ctx),
	})
}

func writeRateLimitHeaders(w http.ResponseWriter, result *ratelimitmodels.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	if !result.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	}
}

func geoFromQuery(r *http.Request) (scanmodels.Geo, error) {
	var geo scanmodels.Geo
	query := r.URL.Query()

	if raw := query.Get("lat"); raw != "" {
		lat, err := strconv.ParseFloat(raw, 64)
		if err != nil || lat < -90 || lat > 90 {
			return geo, dErrors.New(dErrors.CodeValidation, "lat must be a number between -90 and 90")
		}
		geo.Latitude = &lat
	}
	if raw := query.Get("lon"); raw != "" {
		lon, err := strconv.ParseFloat(raw, 64)
		if err != nil || lon < -180 || lon > 180 {
			return geo, dErrors.New(dErrors.CodeValidation, "lon must be a number between -180 and 180")
		}
		geo.Longitude = &lon
	}
	if location := query.Get("location"); location != "" {
		geo.LocationName = &location
	}
	return geo, nil
}
