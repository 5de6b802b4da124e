package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of an async task
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// SearchTask represents an async unified search task
type SearchTask struct {
	ID          string                `json:"id"`
	Query       string                `json:"query"`
	Mode        SearchMode            `json:"mode"`
	Status      TaskStatus            `json:"status"`
	Message     string                `json:"message"`
	Results     []UnifiedSearchResult `json:"results,omitempty"`
	Error       string                `json:"error,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

// NewSearchTask creates a new queued search task
func NewSearchTask(query string, mode SearchMode) *SearchTask {
	return &SearchTask{
		ID:        "task_" + uuid.NewString(),
		Query:     query,
		Mode:      mode,
		Status:    TaskStatusQueued,
		Message:   "Task queued for processing",
		CreatedAt: time.Now(),
	}
}

// Start marks the task as processing
func (t *SearchTask) Start() {
	t.Status = TaskStatusProcessing
	t.Message = "Searching..."
	now := time.Now()
	t.StartedAt = &now
}

// Complete marks the task as completed with results
func (t *SearchTask) Complete(results []UnifiedSearchResult) {
	t.Status = TaskStatusCompleted
	t.Message = "Search completed successfully"
	t.Results = results
	now := time.Now()
	t.CompletedAt = &now
}

// Fail marks the task as failed with error
func (t *SearchTask) Fail(errMsg string) {
	t.Status = TaskStatusFailed
	t.Message = "Search failed"
	t.Error = errMsg
	now := time.Now()
	t.CompletedAt = &now
}

// IsCompleted returns true if the task is in a final state
func (t *SearchTask) IsCompleted() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// IsActive returns true if the task is still running
func (t *SearchTask) IsActive() bool {
	return t.Status == TaskStatusQueued || t.Status == TaskStatusProcessing
}

// Duration returns the duration of the task
func (t *SearchTask) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}

	endTime := time.Now()
	if t.CompletedAt != nil {
		endTime = *t.CompletedAt
	}

	return endTime.Sub(*t.StartedAt)
}
