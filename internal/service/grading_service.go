package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/acegrade/grader-go-api/internal/dto"
	"github.com/acegrade/grader-go-api/internal/exam"
	"github.com/acegrade/grader-go-api/internal/models"
	"github.com/acegrade/grader-go-api/internal/observability"
	"github.com/acegrade/grader-go-api/internal/repository"
	"github.com/acegrade/grader-go-api/pkg/ai"
)

// ErrUnknownQuestionType indicates the request names an unconfigured mark band.
var ErrUnknownQuestionType = errors.New("unknown question type")

// ErrGraderUnavailable indicates the AI credential is not configured.
var ErrGraderUnavailable = errors.New("grading service unavailable")

// ErrGradeRecordNotFound indicates the requested record was not located.
var ErrGradeRecordNotFound = errors.New("grade record not found")

// ErrGradeForbidden indicates the caller may not view the record.
var ErrGradeForbidden = errors.New("forbidden")

const (
	// fallbackScore is the neutral midpoint substituted when an examiner
	// cannot be reached or replies unparseably. Still clamped to the
	// examiner's maximum before use.
	fallbackScore = 5

	transportFeedback = "We were unable to reach this examiner, so a neutral score has been " +
		"recorded. Please submit your response again shortly for full feedback."

	rawFeedbackLimit    = 500
	rawSummaryLimit     = 300
	questionPreviewSize = 200
	maxImprovements     = 5

	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
)

// GradingConfig carries the orchestration knobs for the pipeline.
type GradingConfig struct {
	Concurrency int
	AITimeout   time.Duration
	CacheTTL    time.Duration
}

// GradingService runs the multi-examiner grading pipeline.
type GradingService interface {
	Grade(ctx context.Context, userID uint, payload dto.GradeRequest) (dto.GradeResponse, error)
	History(ctx context.Context, userID uint, page, pageSize int) (dto.GradeHistoryResponse, error)
	Get(ctx context.Context, id uint, viewerID uint, role string) (dto.GradeResponse, error)
}

type gradingService struct {
	catalog   exam.Catalog
	chat      ai.ChatClient
	records   repository.GradeRecordRepository
	redis     *redis.Client
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	config    GradingConfig
}

// NewGradingService constructs the grading pipeline. A nil chat client
// means the AI credential is absent; grading requests are then rejected
// before any per-examiner work. A nil redis client disables result caching.
func NewGradingService(catalog exam.Catalog, chat ai.ChatClient, records repository.GradeRecordRepository, redisClient *redis.Client, validate *validator.Validate, logger zerolog.Logger, cfg GradingConfig) GradingService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 45 * time.Second
	}

	return &gradingService{
		catalog:   catalog,
		chat:      chat,
		records:   records,
		redis:     redisClient,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "grading_service").Logger(),
		tracer:    otel.Tracer("github.com/acegrade/grader-go-api/internal/service/grading"),
		config:    cfg,
	}
}

func (s *gradingService) Grade(ctx context.Context, userID uint, payload dto.GradeRequest) (dto.GradeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResponse{}, err
	}

	request := payload.Normalized()
	request.Question = strings.TrimSpace(s.sanitizer.Sanitize(request.Question))
	request.Essay = strings.TrimSpace(s.sanitizer.Sanitize(request.Essay))

	if s.chat == nil {
		return dto.GradeResponse{}, ErrGraderUnavailable
	}

	questionType, ok := exam.QuestionTypeByLabel(request.QuestionType)
	if !ok {
		return dto.GradeResponse{}, fmt.Errorf("%w: %s", ErrUnknownQuestionType, request.QuestionType)
	}

	if cached, ok := s.cachedResult(ctx, userID, request); ok {
		cached.Cached = true
		return cached, nil
	}

	ctx, span := s.tracer.Start(ctx, "grading.pipeline", trace.WithAttributes(
		attribute.String("grading.subject", request.Subject),
		attribute.String("grading.unit", request.Unit),
		attribute.String("grading.question_type", request.QuestionType),
		attribute.Int("grading.examiners", s.catalog.Size()),
	))
	defer span.End()

	scores := s.scorePanel(ctx, request)

	totalScore := 0.0
	maxTotal := 0.0
	for _, score := range scores {
		totalScore += score.Score
		maxTotal += score.MaxScore
	}

	response := dto.GradeResponse{
		OverallScore: exam.Overall(totalScore, maxTotal),
		Grade:        exam.Band(totalScore, maxTotal),
		Examiners:    scores,
		QuestionType: request.QuestionType,
		Unit:         request.Unit,
		Subject:      request.Subject,
	}

	response.Summary, response.Improvements = s.summarise(ctx, request, scores)

	if feedback, required := exam.DiagramFeedback(questionType, request.HasDiagram); required {
		response.DiagramFeedback = feedback
	}

	degraded := response.Degraded()
	if degraded {
		span.SetStatus(codes.Error, "degraded")
		observability.GradingRequests().WithLabelValues(request.Subject, request.QuestionType, "degraded").Inc()
	} else {
		observability.GradingRequests().WithLabelValues(request.Subject, request.QuestionType, "ok").Inc()
	}

	if record, err := s.persist(ctx, userID, request, response); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to persist grade record")
		span.RecordError(err)
	} else {
		response.RecordID = record.ID
	}

	// Fallback feedback asks the student to resubmit, so a degraded result
	// must stay retryable. Only clean runs are cached.
	if !degraded {
		s.cacheResult(ctx, userID, request, response)
	}

	span.SetAttributes(
		attribute.Float64("grading.overall_score", response.OverallScore),
		attribute.String("grading.grade", response.Grade),
	)

	return response, nil
}

// scorePanel fans the request out to every examiner concurrently, bounded
// by the configured width, and reassembles results by catalog index so
// output order matches catalog order regardless of completion order.
func (s *gradingService) scorePanel(ctx context.Context, request dto.GradeRequest) []dto.ExaminerScoreResponse {
	examiners := s.catalog.Examiners()
	results := make([]dto.ExaminerScoreResponse, len(examiners))

	sem := make(chan struct{}, s.config.Concurrency)
	var wg sync.WaitGroup

	for i, profile := range examiners {
		wg.Add(1)
		sem <- struct{}{}
		go func(index int, profile exam.ExaminerProfile) {
			defer wg.Done()
			defer func() { <-sem }()
			results[index] = s.scoreExaminer(ctx, profile, request)
		}(i, profile)
	}

	wg.Wait()
	return results
}

// scoreExaminer produces exactly one score for one examiner and never
// fails: transport errors and unparseable replies both degrade to the
// neutral fallback, tagged with their failure reason.
func (s *gradingService) scoreExaminer(ctx context.Context, profile exam.ExaminerProfile, request dto.GradeRequest) dto.ExaminerScoreResponse {
	result := dto.ExaminerScoreResponse{
		ExaminerID:   profile.ID,
		ExaminerName: profile.Name,
		MaxScore:     profile.MaxScore,
		AO:           profile.AO,
		Color:        profile.Color,
		Criteria:     []string{},
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.AITimeout)
	defer cancel()

	content, err := s.chat.Complete(callCtx, ai.CompletionRequest{
		System: profile.Prompt(request.Unit, request.QuestionType, request.HasDiagram),
		User:   buildExaminerMessage(request),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("examiner", profile.ID).Msg("examiner call failed")
		observability.ExaminerFailures().WithLabelValues(profile.ID, dto.FailureReasonTransport).Inc()

		result.Score = exam.Clamp(fallbackScore, profile.MaxScore)
		result.Feedback = transportFeedback
		result.Degraded = true
		result.FailureReason = dto.FailureReasonTransport
		return result
	}

	reply, err := ai.ParseExaminerReply(content)
	if err != nil {
		s.logger.Warn().Err(err).Str("examiner", profile.ID).Msg("examiner reply unparseable")
		observability.ExaminerFailures().WithLabelValues(profile.ID, dto.FailureReasonParse).Inc()

		result.Score = exam.Clamp(fallbackScore, profile.MaxScore)
		result.Feedback = truncate(content, rawFeedbackLimit)
		result.Criteria = []string{"Feedback received but could not be fully structured"}
		result.Degraded = true
		result.FailureReason = dto.FailureReasonParse
		return result
	}

	result.Score = exam.Clamp(reply.Score, profile.MaxScore)
	result.Feedback = strings.TrimSpace(reply.Feedback)
	if len(reply.Strengths) > 0 {
		result.Criteria = reply.Strengths
	}
	return result
}

// summarise makes one best-effort call for the qualitative wrap-up. It runs
// after every examiner score is final, so its failure is strictly additive:
// the caller still receives valid scores and a grade.
func (s *gradingService) summarise(ctx context.Context, request dto.GradeRequest, scores []dto.ExaminerScoreResponse) (string, []string) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.AITimeout)
	defer cancel()

	content, err := s.chat.Complete(callCtx, ai.CompletionRequest{
		System: summarySystemPrompt,
		User:   buildSummaryMessage(request, scores),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("summary call failed")
		return "", []string{}
	}

	reply, err := ai.ParseSummaryReply(content)
	if err != nil {
		s.logger.Warn().Err(err).Msg("summary reply unparseable")
		return truncate(content, rawSummaryLimit), []string{}
	}

	improvements := reply.Improvements
	if improvements == nil {
		improvements = []string{}
	}
	if len(improvements) > maxImprovements {
		improvements = improvements[:maxImprovements]
	}

	return strings.TrimSpace(reply.Summary), improvements
}

func (s *gradingService) History(ctx context.Context, userID uint, page, pageSize int) (dto.GradeHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultHistoryPageSize
	}
	if pageSize > maxHistoryPageSize {
		pageSize = maxHistoryPageSize
	}

	records, total, err := s.records.ListByUser(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return dto.GradeHistoryResponse{}, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	return dto.GradeHistoryResponse{
		Items: dto.NewGradeRecordSummarySlice(records),
		Pagination: dto.PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *gradingService) Get(ctx context.Context, id uint, viewerID uint, role string) (dto.GradeResponse, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, ErrGradeRecordNotFound
		}
		return dto.GradeResponse{}, err
	}

	if !canViewRecord(viewerID, role, record) {
		return dto.GradeResponse{}, ErrGradeForbidden
	}

	return recordToResponse(record)
}

func canViewRecord(viewerID uint, role string, record models.GradeRecord) bool {
	if viewerID != 0 && viewerID == record.UserID {
		return true
	}
	role = strings.ToLower(strings.TrimSpace(role))
	return role == "teacher" || role == "admin"
}

func recordToResponse(record models.GradeRecord) (dto.GradeResponse, error) {
	var examiners []dto.ExaminerScoreResponse
	if len(record.Examiners) > 0 {
		if err := json.Unmarshal(record.Examiners, &examiners); err != nil {
			return dto.GradeResponse{}, fmt.Errorf("decode stored examiner breakdown: %w", err)
		}
	}

	improvements := []string{}
	if len(record.Improvements) > 0 {
		if err := json.Unmarshal(record.Improvements, &improvements); err != nil {
			return dto.GradeResponse{}, fmt.Errorf("decode stored improvements: %w", err)
		}
	}

	return dto.GradeResponse{
		OverallScore:    record.OverallScore,
		Grade:           record.Grade,
		Examiners:       examiners,
		Summary:         record.Summary,
		Improvements:    improvements,
		QuestionType:    record.QuestionType,
		Unit:            record.Unit,
		Subject:         record.Subject,
		DiagramFeedback: record.DiagramFeedback,
		RecordID:        record.ID,
	}, nil
}

func (s *gradingService) persist(ctx context.Context, userID uint, request dto.GradeRequest, response dto.GradeResponse) (models.GradeRecord, error) {
	if s.records == nil {
		return models.GradeRecord{}, fmt.Errorf("grade record repository not configured")
	}

	examiners, err := json.Marshal(response.Examiners)
	if err != nil {
		return models.GradeRecord{}, err
	}

	improvements, err := json.Marshal(response.Improvements)
	if err != nil {
		return models.GradeRecord{}, err
	}

	record := models.GradeRecord{
		UserID:          userID,
		Subject:         request.Subject,
		Unit:            request.Unit,
		QuestionType:    request.QuestionType,
		Question:        request.Question,
		EssayLength:     len(request.Essay),
		OverallScore:    response.OverallScore,
		Grade:           response.Grade,
		Summary:         response.Summary,
		Improvements:    datatypes.JSON(improvements),
		Examiners:       datatypes.JSON(examiners),
		DiagramFeedback: response.DiagramFeedback,
		Degraded:        response.Degraded(),
	}

	if err := s.records.Create(ctx, &record); err != nil {
		return models.GradeRecord{}, err
	}

	return record, nil
}

func (s *gradingService) cachedResult(ctx context.Context, userID uint, request dto.GradeRequest) (dto.GradeResponse, bool) {
	if s.redis == nil || s.config.CacheTTL <= 0 {
		return dto.GradeResponse{}, false
	}

	payload, err := s.redis.Get(ctx, cacheKey(userID, request)).Result()
	if err != nil {
		return dto.GradeResponse{}, false
	}

	var response dto.GradeResponse
	if err := json.Unmarshal([]byte(payload), &response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached grade result")
		return dto.GradeResponse{}, false
	}

	return response, true
}

func (s *gradingService) cacheResult(ctx context.Context, userID uint, request dto.GradeRequest, response dto.GradeResponse) {
	if s.redis == nil || s.config.CacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal grade result for cache")
		return
	}

	if err := s.redis.Set(ctx, cacheKey(userID, request), payload, s.config.CacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache grade result")
	}
}

// cacheKey digests the full request identity so an identical retry is
// served from cache instead of re-billing the upstream API.
func cacheKey(userID uint, request dto.GradeRequest) string {
	digest := sha256.New()
	fmt.Fprintf(digest, "%d|%s|%s|%s|%t|", userID, request.Subject, request.Unit, request.QuestionType, request.HasDiagram)
	digest.Write([]byte(request.Question))
	digest.Write([]byte{0})
	digest.Write([]byte(request.Essay))
	return "grader:result:" + hex.EncodeToString(digest.Sum(nil))
}

const summarySystemPrompt = "You are an experienced examinations coach. Given an assessment-objective " +
	"score breakdown for a candidate essay, write a short encouraging summary and exactly three " +
	"concrete improvement suggestions. Respond with a JSON object of the form " +
	`{"summary": "<three or four sentences>", "improvements": ["<suggestion>", "<suggestion>", "<suggestion>"]}. ` +
	"Do not wrap the JSON in markdown fences."

func buildExaminerMessage(request dto.GradeRequest) string {
	builder := strings.Builder{}
	builder.WriteString("QUESTION:\n")
	builder.WriteString(request.Question)
	builder.WriteString("\n\nCANDIDATE RESPONSE:\n")
	builder.WriteString(request.Essay)
	builder.WriteString("\n\n")
	if request.HasDiagram {
		builder.WriteString("DIAGRAM: Student has provided a diagram.")
	} else {
		builder.WriteString("DIAGRAM: No diagram provided.")
	}
	return builder.String()
}

// buildSummaryMessage embeds the score breakdown plus a bounded question
// preview and the response length, never the full essay, to keep the
// prompt small.
func buildSummaryMessage(request dto.GradeRequest, scores []dto.ExaminerScoreResponse) string {
	builder := strings.Builder{}
	builder.WriteString("SCORE BREAKDOWN:\n")
	for _, score := range scores {
		fmt.Fprintf(&builder, "%s (%s): %.1f/%.0f\n", score.AO, score.ExaminerName, score.Score, score.MaxScore)
	}
	fmt.Fprintf(&builder, "\nQUESTION (%s, unit %s): %s\n", request.QuestionType, request.Unit, truncate(request.Question, questionPreviewSize))
	fmt.Fprintf(&builder, "RESPONSE LENGTH: %d characters\n", len(request.Essay))
	return builder.String()
}

// truncate bounds content to limit bytes without splitting a rune.
func truncate(content string, limit int) string {
	content = strings.TrimSpace(content)
	if len(content) <= limit {
		return content
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}
