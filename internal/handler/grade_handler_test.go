package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/acegrade/grader-go-api/internal/dto"
	"github.com/acegrade/grader-go-api/internal/service"
	"github.com/acegrade/grader-go-api/internal/utils"
)

type stubGradingService struct {
	gradeResult   dto.GradeResponse
	gradeErr      error
	historyResult dto.GradeHistoryResponse
	historyErr    error
	getResult     dto.GradeResponse
	getErr        error

	lastUserID uint
	lastGetID  uint
	lastRole   string
}

func (s *stubGradingService) Grade(_ context.Context, userID uint, _ dto.GradeRequest) (dto.GradeResponse, error) {
	s.lastUserID = userID
	return s.gradeResult, s.gradeErr
}

func (s *stubGradingService) History(_ context.Context, userID uint, _, _ int) (dto.GradeHistoryResponse, error) {
	s.lastUserID = userID
	return s.historyResult, s.historyErr
}

func (s *stubGradingService) Get(_ context.Context, id uint, viewerID uint, role string) (dto.GradeResponse, error) {
	s.lastGetID = id
	s.lastUserID = viewerID
	s.lastRole = role
	return s.getResult, s.getErr
}

func newGradeTestApp(svc service.GradingService, userID uint, role string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("user_id", userID)
		}
		if role != "" {
			c.Locals("user_role", role)
		}
		return c.Next()
	})
	NewGradeHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1"), nil)
	return app
}

func decodeResponse(t *testing.T, resp *http.Response) utils.APIResponse {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed utils.APIResponse
	require.NoError(t, json.Unmarshal(body, &parsed))
	return parsed
}

func gradeRequestBody(t *testing.T) *bytes.Reader {
	t.Helper()
	payload, err := json.Marshal(dto.GradeRequest{
		Question: "Evaluate the likely effects of a national minimum wage increase.",
		Essay:    "Higher wage floors raise costs for labour-intensive firms.",
		Subject:  "economics",
	})
	require.NoError(t, err)
	return bytes.NewReader(payload)
}

func TestGradeEndpointReturnsResult(t *testing.T) {
	svc := &stubGradingService{
		gradeResult: dto.GradeResponse{
			OverallScore: 7.5,
			Grade:        "B",
			Examiners:    []dto.ExaminerScoreResponse{{ExaminerID: "knowledge", Score: 7.5, MaxScore: 10}},
		},
	}
	app := newGradeTestApp(svc, 42, "student")

	request := httptest.NewRequest("POST", "/api/v1/grade", gradeRequestBody(t))
	request.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(request, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(42), svc.lastUserID)

	parsed := decodeResponse(t, resp)
	require.True(t, parsed.Success)
	require.Equal(t, "response graded", parsed.Message)

	data, ok := parsed.Data.(map[string]interface{})
	require.True(t, ok)
	require.InDelta(t, 7.5, data["overallScore"], 1e-9)
	require.Equal(t, "B", data["grade"])
}

func TestGradeEndpointRequiresAuthentication(t *testing.T) {
	app := newGradeTestApp(&stubGradingService{}, 0, "")

	request := httptest.NewRequest("POST", "/api/v1/grade", gradeRequestBody(t))
	request.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(request)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGradeEndpointRejectsMalformedBody(t *testing.T) {
	app := newGradeTestApp(&stubGradingService{}, 42, "student")

	request := httptest.NewRequest("POST", "/api/v1/grade", bytes.NewReader([]byte("{not json")))
	request.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(request)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGradeEndpointMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown question type", service.ErrUnknownQuestionType, fiber.StatusBadRequest},
		{"grader unavailable", service.ErrGraderUnavailable, fiber.StatusServiceUnavailable},
		{"internal error", context.DeadlineExceeded, fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newGradeTestApp(&stubGradingService{gradeErr: tc.err}, 42, "student")

			request := httptest.NewRequest("POST", "/api/v1/grade", gradeRequestBody(t))
			request.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(request)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			parsed := decodeResponse(t, resp)
			require.False(t, parsed.Success)
		})
	}
}

func TestGradeEndpointRendersValidationErrors(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validationErr := validate.Struct(dto.GradeRequest{Subject: "history"})
	require.Error(t, validationErr)

	app := newGradeTestApp(&stubGradingService{gradeErr: validationErr}, 42, "student")

	request := httptest.NewRequest("POST", "/api/v1/grade", gradeRequestBody(t))
	request.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(request)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	parsed := decodeResponse(t, resp)
	require.False(t, parsed.Success)
	require.Equal(t, "validation failed", parsed.Message)
	require.NotEmpty(t, parsed.Errors)
}

func TestHistoryEndpointPassesPaging(t *testing.T) {
	svc := &stubGradingService{
		historyResult: dto.GradeHistoryResponse{
			Items:      []dto.GradeRecordSummary{{ID: 1, Grade: "A"}},
			Pagination: dto.PaginationMeta{Page: 2, PageSize: 10, TotalItems: 11, TotalPages: 2},
		},
	}
	app := newGradeTestApp(svc, 42, "student")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/grades?page=2&page_size=10", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(42), svc.lastUserID)

	parsed := decodeResponse(t, resp)
	require.True(t, parsed.Success)
}

func TestHistoryEndpointRejectsBadPaging(t *testing.T) {
	app := newGradeTestApp(&stubGradingService{}, 42, "student")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/grades?page=abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetEndpointMapsOwnershipErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", service.ErrGradeRecordNotFound, fiber.StatusNotFound},
		{"forbidden", service.ErrGradeForbidden, fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubGradingService{getErr: tc.err}
			app := newGradeTestApp(svc, 42, "student")

			resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/grades/9", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			require.Equal(t, uint(9), svc.lastGetID)
			require.Equal(t, "student", svc.lastRole)
		})
	}
}

func TestGetEndpointRejectsNonNumericID(t *testing.T) {
	app := newGradeTestApp(&stubGradingService{}, 42, "student")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/grades/not-a-number", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
