package jobs

import (
	"context"
	"time"

	"github.com/verocta/spendscore/internal/domain"
	"github.com/verocta/spendscore/internal/score"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeScoreFile represents an uploaded-file scoring job.
	JobTypeScoreFile JobType = "score_file"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// ScoreFileJob represents a job to run one uploaded file through the scoring
// pipeline. The raw bytes travel with the job; nothing is written to disk.
type ScoreFileJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Filename is the name of the uploaded file, kept for reporting and to
	// drive workbook vs CSV decoding.
	Filename string `json:"filename"`

	// ExpectedCurrency, when set, pins the batch to one ISO currency code.
	ExpectedCurrency string `json:"expected_currency,omitempty"`

	// Data is the raw uploaded file content. Excluded from JSON so job
	// status responses stay small.
	Data []byte `json:"-"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`

	// Result and Rejections hold the pipeline output once the job
	// completes successfully.
	Result     *score.Result           `json:"result,omitempty"`
	Rejections *domain.RejectionReport `json:"rejections,omitempty"`

	// ReportID is the persisted report's id, when a report store is
	// configured.
	ReportID string `json:"report_id,omitempty"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ScoreFileJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ScoreFileJob) GetType() JobType {
	return JobTypeScoreFile
}

// GetStatus implements the Job interface.
func (j *ScoreFileJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
// The abstraction allows for different queue implementations.
type Publisher interface {
	// PublishScoreFile publishes a file scoring job.
	PublishScoreFile(ctx context.Context, job *ScoreFileJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ScoreFileJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ScoreFileJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ScoreFileJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Filename filters jobs by uploaded filename.
	Filename string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
