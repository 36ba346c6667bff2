package patientbatch

//JobListener job listener
type JobListener interface {
	//BeforeJob execute before job start, after job parameters have been validated
	BeforeJob(execution *JobExecution) BatchError
	//AfterJob execute after job end either normally or abnormally
	AfterJob(execution *JobExecution) BatchError
}

//StepListener step listener
type StepListener interface {
	//BeforeStep execute before step start
	BeforeStep(execution *StepExecution) BatchError
	//AfterStep execute after step end either normally or abnormally
	AfterStep(execution *StepExecution) BatchError
}

//ChunkListener chunk listener
type ChunkListener interface {
	//BeforeChunk execute before start of a chunk in a chunkStep
	BeforeChunk(context *ChunkContext) BatchError
	//AfterChunk execute after the chunk has been written, before its transaction commits
	AfterChunk(context *ChunkContext) BatchError
	//OnError execute when an error occured during a chunk in a chunkStep
	OnError(context *ChunkContext, err BatchError)
}
