package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-swap-api/internal/models"
	appErrors "github.com/noah-isme/course-swap-api/pkg/errors"
)

type mockMatchStore struct {
	matches map[string]models.SwapMatch
}

func (m *mockMatchStore) FindByID(ctx context.Context, id string) (*models.SwapMatch, error) {
	if match, ok := m.matches[id]; ok {
		return &match, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMatchStore) List(ctx context.Context, filter models.SwapMatchFilter) ([]models.SwapMatch, int, error) {
	var out []models.SwapMatch
	for _, match := range m.matches {
		if match.StudentAID == filter.StudentID || match.StudentBID == filter.StudentID {
			out = append(out, match)
		}
	}
	return out, len(out), nil
}

func (m *mockMatchStore) SetConfirmed(ctx context.Context, id string, side models.MatchSide, at time.Time) (bool, error) {
	match, ok := m.matches[id]
	if !ok || match.Status != models.SwapMatchStatusPending {
		return false, nil
	}
	if side == models.MatchSideA {
		if match.AConfirmed {
			return false, nil
		}
		match.AConfirmed = true
		match.AConfirmedAt = &at
	} else {
		if match.BConfirmed {
			return false, nil
		}
		match.BConfirmed = true
		match.BConfirmedAt = &at
	}
	m.matches[id] = match
	return true, nil
}

func (m *mockMatchStore) PromoteConfirmed(ctx context.Context, id string, at time.Time) (bool, error) {
	match, ok := m.matches[id]
	if !ok || match.Status != models.SwapMatchStatusPending || !match.AConfirmed || !match.BConfirmed || match.ContactSharedAt != nil {
		return false, nil
	}
	match.Status = models.SwapMatchStatusConfirmed
	match.ContactSharedAt = &at
	m.matches[id] = match
	return true, nil
}

func (m *mockMatchStore) SetCompleted(ctx context.Context, id string, side models.MatchSide) (bool, error) {
	match, ok := m.matches[id]
	if !ok || match.Status != models.SwapMatchStatusConfirmed {
		return false, nil
	}
	if side == models.MatchSideA {
		match.ACompleted = true
	} else {
		match.BCompleted = true
	}
	m.matches[id] = match
	return true, nil
}

func (m *mockMatchStore) PromoteCompleted(ctx context.Context, id string, at time.Time) (bool, error) {
	match, ok := m.matches[id]
	if !ok || match.Status != models.SwapMatchStatusConfirmed || !match.ACompleted || !match.BCompleted {
		return false, nil
	}
	match.Status = models.SwapMatchStatusCompleted
	match.CompletedAt = &at
	m.matches[id] = match
	return true, nil
}

func (m *mockMatchStore) MarkRejected(ctx context.Context, id string) (bool, error) {
	match, ok := m.matches[id]
	if !ok || match.Status != models.SwapMatchStatusPending {
		return false, nil
	}
	match.Status = models.SwapMatchStatusRejected
	m.matches[id] = match
	return true, nil
}

type mockRequestUpdater struct {
	statuses map[string]models.SwapRequestStatus
}

func (m *mockRequestUpdater) UpdateStatusIf(ctx context.Context, id string, from, to models.SwapRequestStatus) (bool, error) {
	if m.statuses == nil {
		m.statuses = make(map[string]models.SwapRequestStatus)
	}
	if current, ok := m.statuses[id]; ok && current != from {
		return false, nil
	}
	m.statuses[id] = to
	return true, nil
}

type mockStudentStore struct{}

func (m *mockStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return &models.Student{ID: id, NIM: "NIM-" + id, FullName: "Student " + id, Email: id + "@campus.test", Phone: "0812"}, nil
}

type mockCourseStore struct{}

func (m *mockCourseStore) FindByID(ctx context.Context, id string) (*models.Course, error) {
	return &models.Course{ID: id, Code: "CS-" + id, Name: "Course " + id}, nil
}

func pendingMatch() models.SwapMatch {
	return models.SwapMatch{
		ID:         "m1",
		RequestAID: "r1",
		RequestBID: "r2",
		StudentAID: "s1",
		StudentBID: "s2",
		CourseAID:  "course-a",
		CourseBID:  "course-b",
		Status:     models.SwapMatchStatusPending,
		MatchedAt:  time.Now().UTC(),
	}
}

func newLifecycle(store *mockMatchStore, requests *mockRequestUpdater) *MatchLifecycleService {
	return NewMatchLifecycleService(store, requests, &mockStudentStore{}, &mockCourseStore{}, zap.NewNop())
}

func TestConfirmFirstParticipantWaits(t *testing.T) {
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": pendingMatch()}}
	svc := newLifecycle(store, &mockRequestUpdater{})

	result, err := svc.Confirm(context.Background(), "m1", "s1")
	require.NoError(t, err)
	assert.Equal(t, ConfirmStatusWaiting, result.Status)
	assert.Nil(t, result.ContactInfo)
	assert.True(t, store.matches["m1"].AConfirmed)
	assert.Equal(t, models.SwapMatchStatusPending, store.matches["m1"].Status)
}

func TestConfirmSecondParticipantReleasesContact(t *testing.T) {
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": pendingMatch()}}
	svc := newLifecycle(store, &mockRequestUpdater{})

	_, err := svc.Confirm(context.Background(), "m1", "s1")
	require.NoError(t, err)

	result, err := svc.Confirm(context.Background(), "m1", "s2")
	require.NoError(t, err)
	assert.Equal(t, ConfirmStatusConfirmed, result.Status)
	require.NotNil(t, result.ContactInfo)
	assert.Equal(t, "s1", result.ContactInfo.StudentID)

	final := store.matches["m1"]
	assert.Equal(t, models.SwapMatchStatusConfirmed, final.Status)
	require.NotNil(t, final.ContactSharedAt)
	require.NotNil(t, final.AConfirmedAt)
	require.NotNil(t, final.BConfirmedAt)
}

func TestConfirmIsIdempotent(t *testing.T) {
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": pendingMatch()}}
	svc := newLifecycle(store, &mockRequestUpdater{})

	_, err := svc.Confirm(context.Background(), "m1", "s1")
	require.NoError(t, err)
	stamped := store.matches["m1"].AConfirmedAt

	result, err := svc.Confirm(context.Background(), "m1", "s1")
	require.NoError(t, err)
	assert.Equal(t, ConfirmStatusWaiting, result.Status)
	assert.Equal(t, stamped, store.matches["m1"].AConfirmedAt)
}

func TestConfirmNonParticipantForbidden(t *testing.T) {
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": pendingMatch()}}
	svc := newLifecycle(store, &mockRequestUpdater{})

	_, err := svc.Confirm(context.Background(), "m1", "intruder")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestConfirmProcessedMatchConflicts(t *testing.T) {
	match := pendingMatch()
	match.Status = models.SwapMatchStatusRejected
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": match}}
	svc := newLifecycle(store, &mockRequestUpdater{})

	_, err := svc.Confirm(context.Background(), "m1", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRejectReturnsRequestsToActivePool(t *testing.T) {
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": pendingMatch()}}
	requests := &mockRequestUpdater{statuses: map[string]models.SwapRequestStatus{
		"r1": models.SwapRequestStatusMatched,
		"r2": models.SwapRequestStatusMatched,
	}}
	svc := newLifecycle(store, requests)

	err := svc.Reject(context.Background(), "m1", "s2")
	require.NoError(t, err)
	assert.Equal(t, models.SwapMatchStatusRejected, store.matches["m1"].Status)
	assert.Equal(t, models.SwapRequestStatusActive, requests.statuses["r1"])
	assert.Equal(t, models.SwapRequestStatusActive, requests.statuses["r2"])
}

func TestRejectAlreadyProcessed(t *testing.T) {
	match := pendingMatch()
	match.Status = models.SwapMatchStatusConfirmed
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": match}}
	svc := newLifecycle(store, &mockRequestUpdater{})

	err := svc.Reject(context.Background(), "m1", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestGetContactInfoRequiresConfirmedMatch(t *testing.T) {
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": pendingMatch()}}
	svc := newLifecycle(store, &mockRequestUpdater{})

	_, err := svc.GetContactInfo(context.Background(), "m1", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetContactInfoForConfirmedMatch(t *testing.T) {
	match := pendingMatch()
	match.Status = models.SwapMatchStatusConfirmed
	match.AConfirmed = true
	match.BConfirmed = true
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": match}}
	svc := newLifecycle(store, &mockRequestUpdater{})

	details, err := svc.GetContactInfo(context.Background(), "m1", "s2")
	require.NoError(t, err)
	assert.Equal(t, "s1", details.ContactInfo.StudentID)
	assert.Equal(t, "CS-course-b Course course-b", details.SwapDetails.YouGive)
	assert.Equal(t, "CS-course-a Course course-a", details.SwapDetails.YouReceive)
}

func TestGetContactInfoNonParticipant(t *testing.T) {
	match := pendingMatch()
	match.Status = models.SwapMatchStatusConfirmed
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": match}}
	svc := newLifecycle(store, &mockRequestUpdater{})

	_, err := svc.GetContactInfo(context.Background(), "m1", "outsider")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMarkCompletedBothSidesEitherOrder(t *testing.T) {
	match := pendingMatch()
	match.Status = models.SwapMatchStatusConfirmed
	match.AConfirmed = true
	match.BConfirmed = true
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": match}}
	requests := &mockRequestUpdater{statuses: map[string]models.SwapRequestStatus{
		"r1": models.SwapRequestStatusMatched,
		"r2": models.SwapRequestStatusMatched,
	}}
	svc := newLifecycle(store, requests)

	first, err := svc.MarkCompleted(context.Background(), "m1", "s2")
	require.NoError(t, err)
	assert.Equal(t, CompleteStatusWaiting, first.Status)

	second, err := svc.MarkCompleted(context.Background(), "m1", "s1")
	require.NoError(t, err)
	assert.Equal(t, CompleteStatusDone, second.Status)

	final := store.matches["m1"]
	assert.Equal(t, models.SwapMatchStatusCompleted, final.Status)
	require.NotNil(t, final.CompletedAt)
	assert.Equal(t, models.SwapRequestStatusCompleted, requests.statuses["r1"])
	assert.Equal(t, models.SwapRequestStatusCompleted, requests.statuses["r2"])
}

func TestMarkCompletedRequiresConfirmedMatch(t *testing.T) {
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": pendingMatch()}}
	svc := newLifecycle(store, &mockRequestUpdater{})

	_, err := svc.MarkCompleted(context.Background(), "m1", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestListMatchesForStudent(t *testing.T) {
	store := &mockMatchStore{matches: map[string]models.SwapMatch{"m1": pendingMatch()}}
	svc := newLifecycle(store, &mockRequestUpdater{})

	matches, pagination, err := svc.List(context.Background(), models.SwapMatchFilter{StudentID: "s1"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, pagination.TotalCount)
}
