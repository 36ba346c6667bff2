package patientbatch

import (
	"context"
	"database/sql"
	"time"

	"github.com/chararch/patientbatch/status"
	"github.com/chararch/patientbatch/util"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type sqlRepository struct {
	db       *sql.DB
	bindType int
}

// NewSQLRepository a JobRepository persisting executions into the batch_job_execution and batch_step_execution tables.
// driverName selects the placeholder style, e.g. "mysql" or "postgres".
func NewSQLRepository(db *sql.DB, driverName string) JobRepository {
	if db == nil {
		panic("db must not be nil")
	}
	return &sqlRepository{db: db, bindType: sqlx.BindType(driverName)}
}

func (r *sqlRepository) rebind(query string) string {
	return sqlx.Rebind(r.bindType, query)
}

func (r *sqlRepository) SaveJobExecution(ctx context.Context, execution *JobExecution) BatchError {
	params, err := util.JsonString(execution.JobParams)
	if err != nil {
		return NewBatchError(ErrCodeGeneral, "marshal job params of job:%v failed", execution.JobName, err)
	}
	jobCtx, err := util.JsonString(execution.JobContext)
	if err != nil {
		return NewBatchError(ErrCodeGeneral, "marshal job context of job:%v failed", execution.JobName, err)
	}
	if execution.JobExecutionId == 0 {
		id, err := r.insert(ctx, "insert into batch_job_execution(job_name, job_key, job_params, status, create_time, start_time, end_time, exit_message, job_context, version) values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			"job_execution_id", execution.JobName, execution.JobKey, params, string(execution.JobStatus), execution.CreateTime, nullTime(execution.StartTime), nullTime(execution.EndTime), exitMessage(execution.FailError), jobCtx, 1)
		if err != nil {
			return NewBatchError(ErrCodeDbFail, "insert job execution of job:%v failed", execution.JobName, err)
		}
		execution.JobExecutionId = id
		execution.Version = 1
		return nil
	}
	res, err := r.db.ExecContext(ctx, r.rebind("update batch_job_execution set status=?, start_time=?, end_time=?, exit_message=?, job_context=?, version=version+1 where job_execution_id=? and version=?"),
		string(execution.JobStatus), nullTime(execution.StartTime), nullTime(execution.EndTime), exitMessage(execution.FailError), jobCtx, execution.JobExecutionId, execution.Version)
	if err != nil {
		return NewBatchError(ErrCodeDbFail, "update job execution:%v failed", execution.JobExecutionId, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return NewBatchError(ErrCodeDbFail, "update job execution:%v failed", execution.JobExecutionId, err)
	} else if n == 0 {
		return NewBatchError(ErrCodeConcurrency, "update job execution:%v failed, version:%v", execution.JobExecutionId, execution.Version)
	}
	execution.Version++
	return nil
}

func (r *sqlRepository) SaveStepExecution(ctx context.Context, execution *StepExecution) BatchError {
	stepCtx, err := util.JsonString(execution.StepContext)
	if err != nil {
		return NewBatchError(ErrCodeGeneral, "marshal step context of step:%v failed", execution.StepName, err)
	}
	execution.LastUpdated = time.Now()
	if execution.StepExecutionId == 0 {
		id, err := r.insert(ctx, "insert into batch_step_execution(job_execution_id, step_name, status, create_time, start_time, end_time, read_count, write_count, commit_count, filter_count, rollback_count, step_context, exit_message, last_updated, version) values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			"step_execution_id", execution.JobExecution.JobExecutionId, execution.StepName, string(execution.StepStatus), execution.CreateTime, nullTime(execution.StartTime), nullTime(execution.EndTime),
			execution.ReadCount, execution.WriteCount, execution.CommitCount, execution.FilterCount, execution.RollbackCount, stepCtx, exitMessage(execution.FailError), execution.LastUpdated, 1)
		if err != nil {
			return NewBatchError(ErrCodeDbFail, "insert step execution of step:%v failed", execution.StepName, err)
		}
		execution.StepExecutionId = id
		execution.Version = 1
		return nil
	}
	res, err := r.db.ExecContext(ctx, r.rebind("update batch_step_execution set status=?, start_time=?, end_time=?, read_count=?, write_count=?, commit_count=?, filter_count=?, rollback_count=?, step_context=?, exit_message=?, last_updated=?, version=version+1 where step_execution_id=? and version=?"),
		string(execution.StepStatus), nullTime(execution.StartTime), nullTime(execution.EndTime), execution.ReadCount, execution.WriteCount, execution.CommitCount, execution.FilterCount, execution.RollbackCount,
		stepCtx, exitMessage(execution.FailError), execution.LastUpdated, execution.StepExecutionId, execution.Version)
	if err != nil {
		return NewBatchError(ErrCodeDbFail, "update step execution:%v failed", execution.StepExecutionId, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return NewBatchError(ErrCodeDbFail, "update step execution:%v failed", execution.StepExecutionId, err)
	} else if n == 0 {
		return NewBatchError(ErrCodeConcurrency, "update step execution:%v failed, version:%v", execution.StepExecutionId, execution.Version)
	}
	execution.Version++
	return nil
}

//insert runs an insert and returns the generated id, postgres has no LastInsertId so the id is returned by the statement
func (r *sqlRepository) insert(ctx context.Context, query string, idColumn string, args ...interface{}) (int64, error) {
	if r.bindType == sqlx.DOLLAR {
		var id int64
		err := r.db.QueryRowContext(ctx, r.rebind(query+" returning "+idColumn), args...).Scan(&id)
		return id, err
	}
	res, err := r.db.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *sqlRepository) FindJobExecution(ctx context.Context, jobExecutionId int64) (*JobExecution, BatchError) {
	row := r.db.QueryRowContext(ctx, r.rebind("select job_execution_id, job_name, job_key, job_params, status, create_time, start_time, end_time, exit_message, job_context, version from batch_job_execution where job_execution_id=?"), jobExecutionId)
	var (
		execution          = &JobExecution{JobContext: NewBatchContext()}
		params, jobCtx     string
		jobStatus, message string
		startTime, endTime sql.NullTime
	)
	err := row.Scan(&execution.JobExecutionId, &execution.JobName, &execution.JobKey, &params, &jobStatus, &execution.CreateTime, &startTime, &endTime, &message, &jobCtx, &execution.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, NewBatchError(ErrCodeDbFail, "query job execution:%v failed", jobExecutionId, err)
	}
	if execution.JobParams, err = parseJobParams(params); err != nil {
		return nil, NewBatchError(ErrCodeGeneral, "parse job params of job execution:%v failed", jobExecutionId, err)
	}
	if err = util.ParseJson(jobCtx, execution.JobContext); err != nil {
		return nil, NewBatchError(ErrCodeGeneral, "parse job context of job execution:%v failed", jobExecutionId, err)
	}
	execution.JobStatus = status.BatchStatus(jobStatus)
	execution.StartTime, execution.EndTime = startTime.Time, endTime.Time
	execution.FailError = failError(message)
	if execution.StepExecutions, err = r.findStepExecutions(ctx, execution); err != nil {
		return nil, NewBatchError(ErrCodeDbFail, "query step executions of job execution:%v failed", jobExecutionId, err)
	}
	return execution, nil
}

func (r *sqlRepository) findStepExecutions(ctx context.Context, jobExecution *JobExecution) ([]*StepExecution, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind("select step_execution_id, step_name, status, create_time, start_time, end_time, read_count, write_count, commit_count, filter_count, rollback_count, step_context, exit_message, last_updated, version from batch_step_execution where job_execution_id=? order by step_execution_id"), jobExecution.JobExecutionId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]*StepExecution, 0)
	for rows.Next() {
		execution := &StepExecution{
			JobExecution:         jobExecution,
			StepContext:          NewBatchContext(),
			StepExecutionContext: NewBatchContext(),
		}
		var (
			stepStatus, stepCtx, message string
			startTime, endTime           sql.NullTime
		)
		err = rows.Scan(&execution.StepExecutionId, &execution.StepName, &stepStatus, &execution.CreateTime, &startTime, &endTime, &execution.ReadCount, &execution.WriteCount,
			&execution.CommitCount, &execution.FilterCount, &execution.RollbackCount, &stepCtx, &message, &execution.LastUpdated, &execution.Version)
		if err != nil {
			return nil, err
		}
		if err = util.ParseJson(stepCtx, execution.StepContext); err != nil {
			return nil, errors.Wrapf(err, "parse step context of step execution:%v", execution.StepExecutionId)
		}
		execution.StepStatus = status.BatchStatus(stepStatus)
		execution.StartTime, execution.EndTime = startTime.Time, endTime.Time
		execution.FailError = failError(message)
		result = append(result, execution)
	}
	return result, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func exitMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func failError(message string) error {
	if message == "" {
		return nil
	}
	return errors.New(message)
}
