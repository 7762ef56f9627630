package dto

import (
	"time"

	"github.com/crewline/staff-sync-service/internal/domain"
)

// AssignJobRequest payload.
type AssignJobRequest struct {
	StaffRef string `json:"staff_ref"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
}

// UpdateJobStatusRequest payload.
type UpdateJobStatusRequest struct {
	Status string `json:"status"`
}

// JobView is the external job representation.
type JobView struct {
	JobID     string    `json:"job_id"`
	Title     string    `json:"title"`
	Location  string    `json:"location,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJobView maps a domain assignment.
func NewJobView(job *domain.JobAssignment) JobView {
	return JobView{
		JobID:     job.JobID,
		Title:     job.Title,
		Location:  job.Location,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

// JobViews maps a slice of assignments.
func JobViews(jobs []domain.JobAssignment) []JobView {
	items := make([]JobView, 0, len(jobs))
	for i := range jobs {
		items = append(items, NewJobView(&jobs[i]))
	}
	return items
}
