package patientbatch

import (
	"context"
	"sync"
	"time"

	"github.com/chararch/patientbatch/status"
	"github.com/chararch/patientbatch/util"
	"github.com/pkg/errors"
)

var (
	registryMu  sync.RWMutex
	jobRegistry = make(map[string]Job)
)

// Register register job to the batch engine
func Register(job Job) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := jobRegistry[job.Name()]; ok {
		return errors.Errorf("job with name:%v has already been registered", job.Name())
	}
	jobRegistry[job.Name()] = job
	return nil
}

// Unregister unregister job from the batch engine
func Unregister(job Job) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(jobRegistry, job.Name())
}

func getJob(jobName string) (Job, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	job, ok := jobRegistry[jobName]
	return job, ok
}

// Start start job by job name and json params, returns the job execution id and, when the run failed, its cause
func Start(ctx context.Context, jobName string, params string) (int64, error) {
	return doStart(ctx, jobName, params, false)
}

// StartAsync start job by job name and json params asynchronously, use GetJobExecution to follow the run
func StartAsync(ctx context.Context, jobName string, params string) (int64, error) {
	return doStart(ctx, jobName, params, true)
}

func doStart(ctx context.Context, jobName string, params string, async bool) (int64, error) {
	job, ok := getJob(jobName)
	if !ok {
		logger.Error(ctx, "can not find job with name:%v", jobName)
		return -1, errors.Errorf("can not find job with name:%v", jobName)
	}
	jobParams, err := parseJobParams(params)
	if err != nil {
		logger.Error(ctx, "parse job params error, jobName:%v, params:%v, err:%v", jobName, params, err)
		return -1, NewBatchError(ErrCodeParameter, "job params is not a json object: %v", params, err)
	}
	execution := &JobExecution{
		JobName:        jobName,
		JobKey:         util.MD5(jobName + params),
		JobParams:      jobParams,
		JobStatus:      status.STARTING,
		StepExecutions: make([]*StepExecution, 0),
		JobContext:     NewBatchContext(),
		CreateTime:     time.Now(),
	}
	if e := saveJobExecution(ctx, execution); e != nil {
		logger.Error(ctx, "save job execution failed, jobName:%v, JobExecution:%+v, err:%v", jobName, execution, e)
		return -1, e
	}
	future := jobPool.Submit(ctx, func() (interface{}, error) {
		if er := job.Start(ctx, execution); er != nil {
			return nil, er
		}
		return nil, nil
	})
	logger.Info(ctx, "job started, jobName:%v, jobExecutionId:%v", jobName, execution.JobExecutionId)
	if async {
		return execution.JobExecutionId, nil
	}
	if _, er := future.Get(); er != nil {
		return execution.JobExecutionId, er
	}
	return execution.JobExecutionId, nil
}

func parseJobParams(params string) (map[string]interface{}, error) {
	ret := make(map[string]interface{})
	if len(params) == 0 {
		return ret, nil
	}
	err := util.ParseJson(params, &ret)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// GetJobExecution returns a snapshot of the job execution with the id
func GetJobExecution(ctx context.Context, jobExecutionId int64) (*JobExecution, error) {
	execution, err := findJobExecution(ctx, jobExecutionId)
	if err != nil {
		return nil, err
	}
	return execution, nil
}
