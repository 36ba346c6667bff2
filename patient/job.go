package patient

import (
	"github.com/chararch/patientbatch"
	"github.com/chararch/patientbatch/file"
)

const (
	JobName       = "patient-batch-loader-job"
	StepName      = "patient-batch-loader-step"
	ParamFileName = "fileName"
)

const (
	DefaultCommitInterval = 2
	DefaultDelimiter      = ","
	DefaultLinesToSkip    = 1
)

// JobConfig settings of the patient loading job, InputPath is the directory fileName is resolved in
type JobConfig struct {
	InputPath      string
	CommitInterval uint
	Delimiter      string
	QuoteCharacter rune
	LinesToSkip    int
	Checksum       string
	FileStore      file.FileStorage
}

// DefaultJobConfig comma separated file with one header line, committed every 2 records
func DefaultJobConfig(inputPath string) JobConfig {
	return JobConfig{
		InputPath:      inputPath,
		CommitInterval: DefaultCommitInterval,
		Delimiter:      DefaultDelimiter,
		LinesToSkip:    DefaultLinesToSkip,
		FileStore:      &file.LocalFileSystem{},
	}
}

type jobOptions struct {
	processor patientbatch.Processor
	txManager patientbatch.TransactionManager
	listeners []interface{}
}

type Option func(*jobOptions)

// WithProcessor sets the processor records pass through before being written, identity by default
func WithProcessor(processor patientbatch.Processor) Option {
	return func(o *jobOptions) {
		o.processor = processor
	}
}

// WithTransactionManager commits chunks with txManager instead of the engine default
func WithTransactionManager(txManager patientbatch.TransactionManager) Option {
	return func(o *jobOptions) {
		o.txManager = txManager
	}
}

// WithListener adds job, step or chunk listeners
func WithListener(listener ...interface{}) Option {
	return func(o *jobOptions) {
		o.listeners = append(o.listeners, listener...)
	}
}

// NewJob builds the patient loading job: parameters are validated first, then the file bound from the fileName parameter is
// read, decoded and written in chunks of cfg.CommitInterval records
func NewJob(cfg JobConfig, writer patientbatch.Writer, opts ...Option) patientbatch.Job {
	options := &jobOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if cfg.CommitInterval == 0 {
		cfg.CommitInterval = DefaultCommitInterval
	}
	if cfg.FileStore == nil {
		cfg.FileStore = &file.LocalFileSystem{}
	}
	fd := file.FileObjectModel{
		FileStore:   cfg.FileStore,
		Directory:   cfg.InputPath,
		FileName:    InputFileName,
		Type:        file.CSV,
		LinesToSkip: cfg.LinesToSkip,
		LineMapper:  NewLineDecoder(cfg.Delimiter, cfg.QuoteCharacter),
	}
	step := patientbatch.NewStep(StepName).
		ReadFile(fd).
		Processor(options.processor).
		Writer(writer).
		ChunkSize(cfg.CommitInterval)
	if options.txManager != nil {
		step.TransactionManager(options.txManager)
	}
	return patientbatch.NewJob(JobName, step.Build()).
		Validator(&FileParameterValidator{InputPath: cfg.InputPath, FileStore: cfg.FileStore, Checksum: cfg.Checksum}).
		Listener(options.listeners...).
		Build()
}
