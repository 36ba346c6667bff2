package patientbatch

import (
	"time"

	"github.com/chararch/patientbatch/status"
)

//JobExecution one run of a job against one set of job parameters
type JobExecution struct {
	JobExecutionId int64
	JobName        string
	JobKey         string
	JobParams      map[string]interface{}
	JobStatus      status.BatchStatus
	StepExecutions []*StepExecution
	JobContext     *BatchContext
	CreateTime     time.Time
	StartTime      time.Time
	EndTime        time.Time
	FailError      error
	Version        int64
}

func (e *JobExecution) AddStepExecution(execution *StepExecution) {
	e.StepExecutions = append(e.StepExecutions, execution)
}

func (e *JobExecution) fail(err error) {
	e.JobStatus = status.FAILED
	e.FailError = err
	e.EndTime = time.Now()
}

// snapshot copies the execution so it can be handed out while the run goes on
func (e *JobExecution) snapshot() *JobExecution {
	result := *e
	result.JobContext = e.JobContext.DeepCopy()
	result.StepExecutions = make([]*StepExecution, 0, len(e.StepExecutions))
	for _, se := range e.StepExecutions {
		result.StepExecutions = append(result.StepExecutions, se.snapshot(&result))
	}
	return &result
}

//StepExecution one run of a step within a JobExecution
type StepExecution struct {
	StepExecutionId      int64
	StepName             string
	StepStatus           status.BatchStatus
	StepContext          *BatchContext
	StepExecutionContext *BatchContext
	JobExecution         *JobExecution
	CreateTime           time.Time
	StartTime            time.Time
	EndTime              time.Time
	ReadCount            int64
	WriteCount           int64
	CommitCount          int64
	FilterCount          int64
	RollbackCount        int64
	FailError            error
	LastUpdated          time.Time
	Version              int64
}

func (execution *StepExecution) finish(err error) {
	if err != nil {
		execution.StepStatus = status.FAILED
		execution.FailError = err
		execution.EndTime = time.Now()
	} else {
		execution.StepStatus = status.COMPLETED
		execution.EndTime = time.Now()
	}
}

func (execution *StepExecution) start() {
	execution.StartTime = time.Now()
	execution.StepStatus = status.STARTED
}

func (execution *StepExecution) snapshot(jobExecution *JobExecution) *StepExecution {
	result := *execution
	result.StepContext = execution.StepContext.DeepCopy()
	result.StepExecutionContext = execution.StepExecutionContext.DeepCopy()
	result.JobExecution = jobExecution
	return &result
}
