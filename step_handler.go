package patientbatch

// Reader reads one item per call, a nil item marks the end of input
type Reader interface {
	Read(chunkCtx *ChunkContext) (interface{}, BatchError)
}

// Processor transforms an item, returning a nil item filters it out of the chunk
type Processor interface {
	Process(item interface{}, chunkCtx *ChunkContext) (interface{}, BatchError)
}

// ProcessorFunc adapts a plain function to Processor
type ProcessorFunc func(item interface{}, chunkCtx *ChunkContext) (interface{}, BatchError)

func (f ProcessorFunc) Process(item interface{}, chunkCtx *ChunkContext) (interface{}, BatchError) {
	return f(item, chunkCtx)
}

// Writer writes all items of a chunk, the items are either all persisted or none of them
type Writer interface {
	Write(items []interface{}, chunkCtx *ChunkContext) BatchError
}

// WriterFunc adapts a plain function to Writer
type WriterFunc func(items []interface{}, chunkCtx *ChunkContext) BatchError

func (f WriterFunc) Write(items []interface{}, chunkCtx *ChunkContext) BatchError {
	return f(items, chunkCtx)
}

// OpenCloser is implemented by readers and writers holding resources for the duration of a step
type OpenCloser interface {
	Open(execution *StepExecution) BatchError
	Close(execution *StepExecution) BatchError
}

// JobParametersValidator checks job parameters before any step of the job is executed
type JobParametersValidator interface {
	Validate(params map[string]interface{}) BatchError
}

// JobParametersValidatorFunc adapts a plain function to JobParametersValidator
type JobParametersValidatorFunc func(params map[string]interface{}) BatchError

func (f JobParametersValidatorFunc) Validate(params map[string]interface{}) BatchError {
	return f(params)
}
