package backend

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jo-hoe/termreport/internal/grading"

	"github.com/labstack/echo/v4"
)

const APIPrefix = "/api/v1"

// APIService exposes the grading engine as JSON for scripted clients.
type APIService struct{}

type SubjectRequest struct {
	Name string `json:"name" validate:"max=200"`
	// nil marks fall back to the form defaults
	MaxMarks  *float64 `json:"maxMarks"`
	PassMarks *float64 `json:"passMarks"`
	Obtained  *float64 `json:"obtained"`
}

type AggregateRequest struct {
	Subjects []SubjectRequest `json:"subjects" validate:"required,max=100,dive"`
}

type SubjectResponse struct {
	Name      string  `json:"name"`
	MaxMarks  int     `json:"maxMarks"`
	PassMarks int     `json:"passMarks"`
	Obtained  float64 `json:"obtained"`
	Score     float64 `json:"score"`
	Grade     string  `json:"grade"`
	Class     string  `json:"class"`
	Passed    bool    `json:"passed"`
}

type AggregateResponse struct {
	Subjects      []SubjectResponse `json:"subjects"`
	TotalMax      int               `json:"totalMax"`
	TotalPass     int               `json:"totalPass"`
	TotalObtained float64           `json:"totalObtained"`
	Percentage    float64           `json:"percentage"`
	Grade         string            `json:"grade"`
	GradeClass    string            `json:"gradeClass"`
	Status        string            `json:"status"`
}

func NewAPIService() *APIService {
	return &APIService{}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	api := e.Group(APIPrefix)
	api.POST("/aggregate", s.aggregateHandler)
}

func (s *APIService) aggregateHandler(ctx echo.Context) error {
	var request AggregateRequest
	if err := ctx.Bind(&request); err != nil {
		slog.Warn("aggregateHandler: failed to bind request", "status", http.StatusBadRequest, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "received malformed request body")
	}
	if err := ctx.Validate(&request); err != nil {
		return err
	}

	totals, err := grading.Aggregate(toEntries(request.Subjects))
	var validationErr *grading.ValidationError
	if errors.As(err, &validationErr) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, validationErr.Message)
	}
	if err != nil {
		slog.Error("aggregateHandler: failed to aggregate", "status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to aggregate subjects")
	}

	return ctx.JSON(http.StatusOK, toResponse(totals))
}

func toEntries(subjects []SubjectRequest) []grading.Entry {
	entries := make([]grading.Entry, 0, len(subjects))
	for _, subject := range subjects {
		entries = append(entries, grading.ParseEntry(
			subject.Name,
			formatOptional(subject.MaxMarks),
			formatOptional(subject.PassMarks),
			formatOptional(subject.Obtained),
		))
	}
	return entries
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func toResponse(totals *grading.Totals) AggregateResponse {
	response := AggregateResponse{
		Subjects:      make([]SubjectResponse, 0, len(totals.Subjects)),
		TotalMax:      totals.TotalMax,
		TotalPass:     totals.TotalPass,
		TotalObtained: totals.TotalObtained,
		Percentage:    totals.Percentage,
		Grade:         string(totals.OverallGrade),
		GradeClass:    string(totals.OverallGrade.Class()),
		Status:        string(totals.Status),
	}
	for _, subject := range totals.Subjects {
		response.Subjects = append(response.Subjects, SubjectResponse{
			Name:      subject.Name,
			MaxMarks:  subject.MaxMarks,
			PassMarks: subject.PassMarks,
			Obtained:  subject.Obtained,
			Score:     subject.Score,
			Grade:     string(subject.Grade),
			Class:     string(subject.Class),
			Passed:    subject.Passed,
		})
	}
	return response
}
