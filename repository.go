package patientbatch

import (
	"context"
	"sync"
	"time"
)

// JobRepository persists job and step executions
type JobRepository interface {
	SaveJobExecution(ctx context.Context, execution *JobExecution) BatchError
	SaveStepExecution(ctx context.Context, execution *StepExecution) BatchError
	FindJobExecution(ctx context.Context, jobExecutionId int64) (*JobExecution, BatchError)
}

type memoryRepository struct {
	mu            sync.RWMutex
	lastJobId     int64
	lastStepId    int64
	jobExecutions map[int64]*JobExecution
	stepVersions  map[int64]int64
}

// NewMemoryRepository a JobRepository keeping executions in memory, used when no database is configured
func NewMemoryRepository() JobRepository {
	return &memoryRepository{
		jobExecutions: make(map[int64]*JobExecution),
		stepVersions:  make(map[int64]int64),
	}
}

func (r *memoryRepository) SaveJobExecution(ctx context.Context, execution *JobExecution) BatchError {
	r.mu.Lock()
	defer r.mu.Unlock()
	if execution.JobExecutionId == 0 {
		r.lastJobId++
		execution.JobExecutionId = r.lastJobId
		execution.Version = 0
	} else if stored, ok := r.jobExecutions[execution.JobExecutionId]; !ok || stored.Version != execution.Version {
		return NewBatchError(ErrCodeConcurrency, "update job execution:%v failed, version:%v", execution.JobExecutionId, execution.Version)
	}
	execution.Version++
	r.jobExecutions[execution.JobExecutionId] = execution.snapshot()
	return nil
}

func (r *memoryRepository) SaveStepExecution(ctx context.Context, execution *StepExecution) BatchError {
	r.mu.Lock()
	defer r.mu.Unlock()
	if execution.StepExecutionId == 0 {
		r.lastStepId++
		execution.StepExecutionId = r.lastStepId
		execution.Version = 0
	} else if r.stepVersions[execution.StepExecutionId] != execution.Version {
		return NewBatchError(ErrCodeConcurrency, "update step execution:%v failed, version:%v", execution.StepExecutionId, execution.Version)
	}
	execution.Version++
	execution.LastUpdated = time.Now()
	r.stepVersions[execution.StepExecutionId] = execution.Version
	if stored, ok := r.jobExecutions[execution.JobExecution.JobExecutionId]; ok {
		snap := execution.snapshot(stored)
		replaced := false
		for i, se := range stored.StepExecutions {
			if se.StepExecutionId == execution.StepExecutionId {
				stored.StepExecutions[i] = snap
				replaced = true
			}
		}
		if !replaced {
			stored.StepExecutions = append(stored.StepExecutions, snap)
		}
	}
	return nil
}

func (r *memoryRepository) FindJobExecution(ctx context.Context, jobExecutionId int64) (*JobExecution, BatchError) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.jobExecutions[jobExecutionId]
	if !ok {
		return nil, nil
	}
	return stored.snapshot(), nil
}

func saveJobExecution(ctx context.Context, execution *JobExecution) BatchError {
	return repository.SaveJobExecution(ctx, execution)
}

func saveStepExecution(ctx context.Context, execution *StepExecution) BatchError {
	return repository.SaveStepExecution(ctx, execution)
}

func findJobExecution(ctx context.Context, jobExecutionId int64) (*JobExecution, BatchError) {
	execution, err := repository.FindJobExecution(ctx, jobExecutionId)
	if err != nil {
		return nil, err
	}
	if execution == nil {
		return nil, NewBatchError(ErrCodeGeneral, "can not find job execution with execution id:%v", jobExecutionId)
	}
	return execution, nil
}
