package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/verocta/spendscore/internal/api/middleware"
	"github.com/verocta/spendscore/internal/infra/postgres"
	"github.com/verocta/spendscore/internal/jobs"
	"github.com/verocta/spendscore/internal/pipeline"
	"github.com/verocta/spendscore/internal/vendor"
)

// maxUploadBytes bounds uploaded file size. Vendor exports are small; this
// guards against accidental uploads of something else entirely.
const maxUploadBytes = 16 << 20

// UploadHandler handles file upload and scoring endpoints.
type UploadHandler struct {
	pipe      *pipeline.Pipeline
	store     postgres.ReportStore
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewUploadHandler creates a new upload handler. store may be nil when
// report persistence is not configured.
func NewUploadHandler(pipe *pipeline.Pipeline, store postgres.ReportStore, publisher jobs.Publisher, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		pipe:      pipe,
		store:     store,
		publisher: publisher,
		log:       log,
	}
}

// readUpload extracts the uploaded file from a multipart form.
func readUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

// Upload handles POST /api/upload
// It scores the uploaded file synchronously and returns the full result.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, filename, err := readUpload(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "A multipart 'file' field is required")
		return
	}

	out, err := h.pipe.Ingest(ctx, data, pipeline.Options{
		Filename:         filename,
		ExpectedCurrency: r.FormValue("currency"),
	})
	if err != nil {
		h.writeIngestError(w, filename, err)
		return
	}

	response := map[string]interface{}{
		"result": out,
	}

	if h.store != nil {
		report := postgres.NewReport(filename, out.Vendor, out.Score, out.Rejections)
		if err := h.store.SaveReport(ctx, report); err != nil {
			h.log.Error().Err(err).Str("file_id", out.FileID).Msg("Failed to persist report")
		} else {
			response["report_id"] = report.ID
		}
	}

	middleware.WriteJSON(w, http.StatusOK, response)
}

// UploadAsync handles POST /api/upload/async
// It enqueues a scoring job and returns its id immediately.
func (h *UploadHandler) UploadAsync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, filename, err := readUpload(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "A multipart 'file' field is required")
		return
	}

	job := &jobs.ScoreFileJob{
		Filename:         filename,
		ExpectedCurrency: r.FormValue("currency"),
		Data:             data,
	}
	if err := h.publisher.PublishScoreFile(ctx, job); err != nil {
		h.log.Error().Err(err).Str("filename", filename).Msg("Failed to enqueue scoring job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("filename", filename).Msg("Scoring job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

func (h *UploadHandler) writeIngestError(w http.ResponseWriter, filename string, err error) {
	switch {
	case errors.Is(err, vendor.ErrUnsupportedFormat):
		middleware.WriteError(w, http.StatusUnprocessableEntity, "File format not recognized: no vendor signature matched the header row")
	case errors.Is(err, pipeline.ErrEmptyBatch):
		middleware.WriteError(w, http.StatusUnprocessableEntity, "No parseable transactions in file")
	default:
		h.log.Error().Err(err).Str("filename", filename).Msg("Ingest failed")
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read file")
	}
}

// JobsHandler handles job status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		Filename: r.URL.Query().Get("filename"),
		Status:   jobs.JobStatus(r.URL.Query().Get("status")),
		Limit:    queryInt(r, "limit", 50),
		Offset:   queryInt(r, "offset", 0),
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/jobs/:jobId
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ReportsHandler handles persisted report endpoints.
type ReportsHandler struct {
	store postgres.ReportStore
	log   zerolog.Logger
}

// NewReportsHandler creates a new reports handler. store may be nil when
// report persistence is not configured.
func NewReportsHandler(store postgres.ReportStore, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{store: store, log: log}
}

// ListReports handles GET /api/reports
func (h *ReportsHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Report persistence is not configured")
		return
	}

	reports, err := h.store.ListReports(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list reports")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetReport handles GET /api/reports/:reportId
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request, reportID string) {
	if h.store == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Report persistence is not configured")
		return
	}

	report, err := h.store.GetReport(r.Context(), reportID)
	if errors.Is(err, postgres.ErrReportNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("report_id", reportID).Msg("Failed to load report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, report)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
