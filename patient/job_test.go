package patient

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/chararch/patientbatch"
	"github.com/chararch/patientbatch/file"
	"github.com/chararch/patientbatch/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "source_id,first_name,middle_initial,last_name,email_address,phone_number,street,city,state,zip,birth_date,action,ssn"

// countingStorage counts the files opened through it
type countingStorage struct {
	file.LocalFileSystem
	opened int
}

func (s *countingStorage) Open(fileName string) (io.ReadCloser, error) {
	s.opened++
	return s.LocalFileSystem.Open(fileName)
}

type chunkRecorder struct {
	chunks [][]PatientRecord
}

func (r *chunkRecorder) Write(items []interface{}, chunkCtx *patientbatch.ChunkContext) patientbatch.BatchError {
	chunk := make([]PatientRecord, 0, len(items))
	for _, item := range items {
		chunk = append(chunk, item.(PatientRecord))
	}
	r.chunks = append(r.chunks, chunk)
	return nil
}

func (r *chunkRecorder) sizes() []int {
	result := make([]int, 0)
	for _, c := range r.chunks {
		result = append(result, len(c))
	}
	return result
}

func writePatientFile(t *testing.T, dir string, rows ...string) {
	content := header + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "patients.csv"), []byte(content), 0644))
}

func row(id int) string {
	return strings.Join(sampleFields(id), ",")
}

func startPatientJob(t *testing.T, job patientbatch.Job, params string) (*patientbatch.JobExecution, error) {
	require.NoError(t, patientbatch.Register(job))
	defer patientbatch.Unregister(job)
	id, err := patientbatch.Start(context.Background(), JobName, params)
	require.True(t, id > 0, "job execution should be created, err:%v", err)
	execution, e := patientbatch.GetJobExecution(context.Background(), id)
	require.NoError(t, e)
	return execution, err
}

func TestPatientJob_ThreeRows(t *testing.T) {
	dir := t.TempDir()
	writePatientFile(t, dir, row(1), row(2), row(3))
	writer := &chunkRecorder{}
	job := NewJob(DefaultJobConfig(dir), writer)

	execution, err := startPatientJob(t, job, `{"fileName":"patients.csv"}`)
	require.NoError(t, err)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	assert.Equal(t, []int{2, 1}, writer.sizes())
	assert.Equal(t, "1", writer.chunks[0][0].SourceID())
	assert.Equal(t, "3", writer.chunks[1][0].SourceID())
	for _, chunk := range writer.chunks {
		for _, r := range chunk {
			assert.NotEqual(t, "source_id", r.SourceID())
		}
	}
	stepExecution := execution.StepExecutions[0]
	assert.Equal(t, StepName, stepExecution.StepName)
	assert.Equal(t, int64(3), stepExecution.ReadCount)
	assert.Equal(t, int64(2), stepExecution.CommitCount)
}

func TestPatientJob_BracedInputPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "in{box}")
	require.NoError(t, os.Mkdir(dir, 0755))
	writePatientFile(t, dir, row(1), row(2), row(3))
	writer := &chunkRecorder{}

	execution, err := startPatientJob(t, NewJob(DefaultJobConfig(dir), writer), `{"fileName":"patients.csv"}`)
	require.NoError(t, err)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	assert.Equal(t, []int{2, 1}, writer.sizes())
}

func TestPatientJob_FileOutsideInputPath(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "in")
	require.NoError(t, os.Mkdir(dir, 0755))
	writePatientFile(t, root, row(1))
	storage := &countingStorage{}
	cfg := DefaultJobConfig(dir)
	cfg.FileStore = storage

	execution, err := startPatientJob(t, NewJob(cfg, &chunkRecorder{}), `{"fileName":"../patients.csv"}`)
	require.Error(t, err)
	assert.True(t, patientbatch.IsErrorCode(err, patientbatch.ErrCodeParameter))
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, 0, storage.opened)
}

func TestPatientJob_WriterInvocations(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5, 6} {
		for _, c := range []uint{1, 2, 3} {
			dir := t.TempDir()
			rows := make([]string, 0, n)
			for i := 1; i <= n; i++ {
				rows = append(rows, row(i))
			}
			if n == 0 {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "patients.csv"), []byte(header+"\n"), 0644))
			} else {
				writePatientFile(t, dir, rows...)
			}
			cfg := DefaultJobConfig(dir)
			cfg.CommitInterval = c
			writer := &chunkRecorder{}
			execution, err := startPatientJob(t, NewJob(cfg, writer), `{"fileName":"patients.csv"}`)
			require.NoError(t, err)
			assert.Equal(t, status.COMPLETED, execution.JobStatus)

			calls := (n + int(c) - 1) / int(c)
			require.Len(t, writer.chunks, calls, "n:%v c:%v", n, c)
			if calls > 0 {
				last := n % int(c)
				if last == 0 {
					last = int(c)
				}
				assert.Len(t, writer.chunks[calls-1], last, "n:%v c:%v", n, c)
			}
		}
	}
}

func TestPatientJob_ShortRow(t *testing.T) {
	dir := t.TempDir()
	writePatientFile(t, dir, row(1), "2,Jane,Q,Doe,jane@x.io", row(3))
	writer := &chunkRecorder{}
	job := NewJob(DefaultJobConfig(dir), writer)

	execution, err := startPatientJob(t, job, `{"fileName":"patients.csv"}`)
	require.Error(t, err)
	assert.True(t, patientbatch.IsErrorCode(err, patientbatch.ErrCodeDecode))
	assert.Contains(t, err.Error(), "row:2")
	assert.Contains(t, err.Error(), "line:3")
	assert.Contains(t, err.Error(), "patients.csv")
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Empty(t, writer.chunks)
	assert.Equal(t, int64(1), execution.StepExecutions[0].RollbackCount)
}

func TestPatientJob_MissingFileName(t *testing.T) {
	dir := t.TempDir()
	writePatientFile(t, dir, row(1))
	storage := &countingStorage{}
	cfg := DefaultJobConfig(dir)
	cfg.FileStore = storage
	writer := &chunkRecorder{}

	execution, err := startPatientJob(t, NewJob(cfg, writer), `{}`)
	require.Error(t, err)
	assert.True(t, patientbatch.IsErrorCode(err, patientbatch.ErrCodeParameter))
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, 0, storage.opened)
	assert.Empty(t, execution.StepExecutions)
	assert.Empty(t, writer.chunks)
}

func TestPatientJob_MissingFile(t *testing.T) {
	dir := t.TempDir()
	storage := &countingStorage{}
	cfg := DefaultJobConfig(dir)
	cfg.FileStore = storage

	execution, err := startPatientJob(t, NewJob(cfg, &chunkRecorder{}), `{"fileName":"missing.csv"}`)
	require.Error(t, err)
	assert.True(t, patientbatch.IsErrorCode(err, patientbatch.ErrCodeResource))
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, 0, storage.opened)
}

func TestPatientJob_ProcessorSeam(t *testing.T) {
	dir := t.TempDir()
	blank := sampleFields(2)
	blank[LastName] = ""
	writePatientFile(t, dir, row(1), strings.Join(blank, ","), row(3))

	writer := &chunkRecorder{}
	job := NewJob(DefaultJobConfig(dir), writer, WithProcessor(RequiredFields(SourceID, LastName)))
	execution, err := startPatientJob(t, job, `{"fileName":"patients.csv"}`)
	require.Error(t, err)
	assert.True(t, patientbatch.IsErrorCode(err, patientbatch.ErrCodeProcess))
	assert.Contains(t, err.Error(), "last_name")
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Empty(t, writer.chunks)

	//empty fields pass through when no semantic validation is configured
	writer = &chunkRecorder{}
	execution, err = startPatientJob(t, NewJob(DefaultJobConfig(dir), writer), `{"fileName":"patients.csv"}`)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, writer.sizes())
	assert.Equal(t, "", writer.chunks[0][1].LastName())
}

func TestPatientJob_SQLSink(t *testing.T) {
	dir := t.TempDir()
	writePatientFile(t, dir, row(1), row(2), row(3))
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("insert into patient")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	prep = mock.ExpectPrepare("insert into patient")
	prep.ExpectExec().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	job := NewJob(DefaultJobConfig(dir), NewSQLWriter("mysql", ""), WithTransactionManager(patientbatch.NewTransactionManager(db)))
	execution, err := startPatientJob(t, job, `{"fileName":"patients.csv"}`)
	require.Error(t, err)
	assert.True(t, patientbatch.IsErrorCode(err, patientbatch.ErrCodeWrite))
	assert.Equal(t, status.FAILED, execution.JobStatus)
	stepExecution := execution.StepExecutions[0]
	assert.Equal(t, int64(1), stepExecution.CommitCount)
	assert.Equal(t, int64(2), stepExecution.WriteCount)
	assert.Equal(t, int64(1), stepExecution.RollbackCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
