package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-swap-api/internal/repository"
	appErrors "github.com/noah-isme/course-swap-api/pkg/errors"
	"github.com/noah-isme/course-swap-api/pkg/export"
)

type swapHistoryStore interface {
	ListCompletedHistory(ctx context.Context) ([]repository.SwapHistoryRow, error)
}

// ExportFile is a rendered export ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders completed swap history for administrators.
type ExportService struct {
	matches swapHistoryStore
	logger  *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(matches swapHistoryStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{matches: matches, logger: logger}
}

// SwapHistory renders the completed swap history in the requested format,
// either "csv" or "pdf".
func (s *ExportService) SwapHistory(ctx context.Context, format string) (*ExportFile, error) {
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	rows, err := s.matches.ListCompletedHistory(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load swap history")
	}

	table := export.Table{
		Title:   "Completed Course Swaps",
		Columns: []string{"Match ID", "Student A", "Student B", "Course A", "Course B", "Matched At", "Completed At"},
	}
	for _, row := range rows {
		completedAt := ""
		if row.CompletedAt != nil {
			completedAt = row.CompletedAt.UTC().Format(time.RFC3339)
		}
		table.Rows = append(table.Rows, []string{
			row.MatchID,
			row.StudentAName,
			row.StudentBName,
			row.CourseACode,
			row.CourseBCode,
			row.MatchedAt.UTC().Format(time.RFC3339),
			completedAt,
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case "pdf":
		body, err := export.RenderPDF(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{Filename: fmt.Sprintf("swap-history-%s.pdf", stamp), ContentType: "application/pdf", Body: body}, nil
	default:
		body, err := export.RenderCSV(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{Filename: fmt.Sprintf("swap-history-%s.csv", stamp), ContentType: "text/csv", Body: body}, nil
	}
}
