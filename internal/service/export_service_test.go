package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-swap-api/internal/repository"
	appErrors "github.com/noah-isme/course-swap-api/pkg/errors"
)

type mockHistoryStore struct {
	rows []repository.SwapHistoryRow
}

func (m *mockHistoryStore) ListCompletedHistory(ctx context.Context) ([]repository.SwapHistoryRow, error) {
	return m.rows, nil
}

func historyRow() repository.SwapHistoryRow {
	completed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return repository.SwapHistoryRow{
		MatchID:      "m1",
		StudentAName: "Alice",
		StudentBName: "Bob",
		CourseACode:  "CS101",
		CourseBCode:  "CS202",
		MatchedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		CompletedAt:  &completed,
	}
}

func TestExportSwapHistoryCSV(t *testing.T) {
	svc := NewExportService(&mockHistoryStore{rows: []repository.SwapHistoryRow{historyRow()}}, zap.NewNop())

	file, err := svc.SwapHistory(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	content := string(file.Body)
	assert.Contains(t, content, "Match ID")
	assert.Contains(t, content, "Alice")
	assert.Contains(t, content, "CS202")
}

func TestExportSwapHistoryPDF(t *testing.T) {
	svc := NewExportService(&mockHistoryStore{rows: []repository.SwapHistoryRow{historyRow()}}, zap.NewNop())

	file, err := svc.SwapHistory(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Body), "%PDF"))
}

func TestExportSwapHistoryUnknownFormat(t *testing.T) {
	svc := NewExportService(&mockHistoryStore{}, zap.NewNop())

	_, err := svc.SwapHistory(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
