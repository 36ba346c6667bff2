package patientbatch

import (
	"context"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/chararch/patientbatch/status"
)

//Job job interface
type Job interface {
	Name() string
	Start(ctx context.Context, execution *JobExecution) BatchError
	GetSteps() []Step
}

type simpleJob struct {
	name      string
	steps     []Step
	validator JobParametersValidator
	listeners []JobListener
}

func newSimpleJob(name string, steps []Step, validator JobParametersValidator, listeners []JobListener) *simpleJob {
	return &simpleJob{
		name:      name,
		steps:     steps,
		validator: validator,
		listeners: listeners,
	}
}

func (job *simpleJob) Name() string {
	return job.name
}

// Start runs the job: parameters are validated first, a validation failure ends the execution before any step opens a resource.
// The returned error is the cause of a FAILED execution, if any.
func (job *simpleJob) Start(ctx context.Context, execution *JobExecution) (err BatchError) {
	defer func() {
		if er := recover(); er != nil {
			logger.Error(ctx, "panic in job executing, jobName:%v, jobExecutionId:%v, err:%v, stack:%v", job.name, execution.JobExecutionId, er, string(debug.Stack()))
			err = NewBatchError(ErrCodeGeneral, "panic in job execution: %v", er)
		}
		if err != nil && execution.JobStatus != status.FAILED {
			execution.fail(err)
		}
		if e := saveJobExecution(ctx, execution); e != nil {
			logger.Error(ctx, "save job execution failed, jobName:%v, JobExecution:%+v, err:%v", job.name, execution, e)
			if err == nil {
				err = e
			}
		}
	}()
	logger.Info(ctx, "start running job, jobName:%v, jobExecutionId:%v", job.name, execution.JobExecutionId)
	execution.JobStatus = status.VALIDATING
	if err = saveJobExecution(ctx, execution); err != nil {
		logger.Error(ctx, "save job execution failed, jobName:%v, JobExecution:%+v, err:%v", job.name, execution, err)
		return err
	}
	if job.validator != nil {
		if err = job.validator.Validate(execution.JobParams); err != nil {
			logger.Error(ctx, "job parameters invalid, jobName:%v, jobExecutionId:%v, params:%v, err:%v", job.name, execution.JobExecutionId, execution.JobParams, err)
			return err
		}
	}
	for _, listener := range job.listeners {
		if err = listener.BeforeJob(execution); err != nil {
			logger.Error(ctx, "job listener execute err, jobName:%v, jobExecutionId:%+v, listener:%v, err:%v", job.name, execution.JobExecutionId, reflect.TypeOf(listener).String(), err)
			return err
		}
	}
	execution.JobStatus = status.STARTED
	execution.StartTime = time.Now()
	if err = saveJobExecution(ctx, execution); err != nil {
		logger.Error(ctx, "save job execution failed, jobName:%v, JobExecution:%+v, err:%v", job.name, execution, err)
		return err
	}
	for _, step := range job.steps {
		if err = execStep(ctx, step, execution); err != nil {
			logger.Error(ctx, "execute step failed, jobExecutionId:%v, step:%v, err:%v", execution.JobExecutionId, step.Name(), err)
			break
		}
	}
	if err != nil {
		execution.fail(err)
	} else {
		execution.JobStatus = status.COMPLETED
		execution.EndTime = time.Now()
	}
	for _, listener := range job.listeners {
		if e := listener.AfterJob(execution); e != nil {
			logger.Error(ctx, "job listener execute err, jobName:%v, jobExecutionId:%+v, listener:%v, err:%v", job.name, execution.JobExecutionId, reflect.TypeOf(listener).String(), e)
			if err == nil {
				err = e
				execution.fail(e)
			}
			break
		}
	}
	logger.Info(ctx, "finish job execution, jobName:%v, jobExecutionId:%v, jobStatus:%v", job.name, execution.JobExecutionId, execution.JobStatus)
	return err
}

func execStep(ctx context.Context, step Step, execution *JobExecution) BatchError {
	stepExecution := &StepExecution{
		StepName:             step.Name(),
		StepStatus:           status.STARTING,
		StepContext:          NewBatchContext(),
		StepExecutionContext: NewBatchContext(),
		JobExecution:         execution,
		CreateTime:           time.Now(),
	}
	if e := saveStepExecution(ctx, stepExecution); e != nil {
		logger.Error(ctx, "save step execution failed, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecutionId, step.Name(), e)
		return e
	}
	execution.AddStepExecution(stepExecution)
	err := step.Exec(ctx, stepExecution)
	if err == nil && stepExecution.StepStatus != status.COMPLETED {
		err = NewBatchError(ErrCodeGeneral, "step:%v ended with status:%v", step.Name(), stepExecution.StepStatus)
	}
	if err != nil {
		logger.Error(ctx, "step executing failed, jobExecutionId:%v, stepName:%v, stepStatus:%v, err:%v", execution.JobExecutionId, step.Name(), stepExecution.StepStatus, err)
		return err
	}
	return nil
}

func (job *simpleJob) GetSteps() []Step {
	return job.steps
}
