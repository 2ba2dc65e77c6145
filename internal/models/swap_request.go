package models

import "time"

// SwapRequestStatus represents the lifecycle of a swap request.
type SwapRequestStatus string

// Possible swap request statuses.
const (
	SwapRequestStatusActive    SwapRequestStatus = "ACTIVE"
	SwapRequestStatusMatched   SwapRequestStatus = "MATCHED"
	SwapRequestStatusCompleted SwapRequestStatus = "COMPLETED"
	SwapRequestStatusCancelled SwapRequestStatus = "CANCELLED"
	SwapRequestStatusExpired   SwapRequestStatus = "EXPIRED"
)

// SwapRequest captures a student's offer to trade one enrolled course for another.
type SwapRequest struct {
	ID              string            `db:"id" json:"id"`
	StudentID       string            `db:"student_id" json:"student_id"`
	OfferedCourseID string            `db:"offered_course_id" json:"offered_course_id"`
	DesiredCourseID string            `db:"desired_course_id" json:"desired_course_id"`
	Priority        int               `db:"priority" json:"priority"`
	Notes           string            `db:"notes" json:"notes,omitempty"`
	Status          SwapRequestStatus `db:"status" json:"status"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	ExpiresAt       time.Time         `db:"expires_at" json:"expires_at"`
}

// SwapRequestDetail enriches SwapRequest with course names for listings.
type SwapRequestDetail struct {
	SwapRequest
	OfferedCourseCode string `db:"offered_course_code" json:"offered_course_code"`
	OfferedCourseName string `db:"offered_course_name" json:"offered_course_name"`
	DesiredCourseCode string `db:"desired_course_code" json:"desired_course_code"`
	DesiredCourseName string `db:"desired_course_name" json:"desired_course_name"`
}

// SwapRequestFilter provides filters for listing swap requests.
type SwapRequestFilter struct {
	StudentID string
	Status    SwapRequestStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
