package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/exam-seating-api/internal/dto"
	"github.com/seatwise/exam-seating-api/internal/models"
	"github.com/seatwise/exam-seating-api/internal/repository"
	appErrors "github.com/seatwise/exam-seating-api/pkg/errors"
	"github.com/seatwise/exam-seating-api/pkg/jobs"
)

type exportJobStoreStub struct {
	jobs map[string]*models.ExportJob
}

func newExportJobStoreStub() *exportJobStoreStub {
	return &exportJobStoreStub{jobs: map[string]*models.ExportJob{}}
}

func (r *exportJobStoreStub) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *exportJobStoreStub) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (r *exportJobStoreStub) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *exportJobStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (r *exportJobStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return nil, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newExportJobServiceForTest(t *testing.T) (*ExportJobService, *exportJobStoreStub, *queueStub, *runReaderStub, *ExportService) {
	t.Helper()
	repo := newExportJobStoreStub()
	queue := &queueStub{}
	exporter, reader, _ := newExportServiceForTest(t)
	svc := NewExportJobService(repo, reader, queue, exporter, nil, nil, ExportJobConfig{
		ResultTTL:       time.Hour,
		CleanupInterval: time.Hour,
		MaxRetries:      3,
	})
	return svc, repo, queue, reader, exporter
}

func TestExportJobServiceCreateJob(t *testing.T) {
	svc, repo, queue, reader, _ := newExportJobServiceForTest(t)
	runID := seedRun(reader)

	resp, err := svc.CreateJob(context.Background(), dto.ExportRequest{RunID: runID, Format: models.ExportFormatCSV}, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)
	stored := repo.jobs[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "admin", stored.CreatedBy)
}

func TestExportJobServiceCreateJobUnknownRun(t *testing.T) {
	svc, _, _, _, _ := newExportJobServiceForTest(t)

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{RunID: "missing", Format: models.ExportFormatCSV}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceCreateJobInvalidFormat(t *testing.T) {
	svc, _, queue, reader, _ := newExportJobServiceForTest(t)
	runID := seedRun(reader)

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{RunID: runID, Format: "docx"}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, queue.jobs)
}

func TestExportJobServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	svc, repo, queue, reader, _ := newExportJobServiceForTest(t)
	runID := seedRun(reader)
	queue.err = assert.AnError

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{RunID: runID, Format: models.ExportFormatCSV}, "admin")
	require.Error(t, err)
	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportWorkerHandleFinishesJob(t *testing.T) {
	svc, repo, _, reader, exporter := newExportJobServiceForTest(t)
	runID := seedRun(reader)

	resp, err := svc.CreateJob(context.Background(), dto.ExportRequest{RunID: runID, Format: models.ExportFormatCSV}, "admin")
	require.NoError(t, err)

	worker := NewExportWorker(repo, exporter, nil, 3, nil)
	err = worker.Handle(context.Background(), jobs.Job{ID: resp.ID})
	require.NoError(t, err)

	job := repo.jobs[resp.ID]
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.NotNil(t, job.FinishedAt)
}

func TestExportWorkerHandleRequeuesBeforeRetryBudget(t *testing.T) {
	svc, repo, _, reader, exporter := newExportJobServiceForTest(t)
	runID := seedRun(reader)
	reader.assignments[runID] = nil

	resp, err := svc.CreateJob(context.Background(), dto.ExportRequest{RunID: runID, Format: models.ExportFormatCSV}, "admin")
	require.NoError(t, err)

	worker := NewExportWorker(repo, exporter, nil, 3, nil)
	err = worker.Handle(context.Background(), jobs.Job{ID: resp.ID, Attempt: 0})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, repo.jobs[resp.ID].Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: resp.ID, Attempt: 3})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusFailed, repo.jobs[resp.ID].Status)
}

func TestExportJobServiceResolveDownload(t *testing.T) {
	svc, repo, _, reader, exporter := newExportJobServiceForTest(t)
	runID := seedRun(reader)

	resp, err := svc.CreateJob(context.Background(), dto.ExportRequest{RunID: runID, Format: models.ExportFormatCSV}, "admin")
	require.NoError(t, err)

	worker := NewExportWorker(repo, exporter, nil, 3, nil)
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: resp.ID}))

	token := extractToken(*repo.jobs[resp.ID].ResultURL)
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ExportFormatCSV, download.Format)
	assert.NotEmpty(t, download.Filename)
}

func TestExportJobServiceResolveDownloadBadToken(t *testing.T) {
	svc, _, _, _, _ := newExportJobServiceForTest(t)

	_, err := svc.ResolveDownload(context.Background(), "garbage")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceRecoverPendingJobs(t *testing.T) {
	svc, repo, queue, _, _ := newExportJobServiceForTest(t)
	repo.jobs["job-queued"] = &models.ExportJob{
		ID:     "job-queued",
		RunID:  "run-1",
		Status: models.ExportStatusQueued,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
	}

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "job-queued", queue.jobs[0].ID)
}
