package patientbatch

import (
	"fmt"

	"github.com/chararch/patientbatch/file"
)

const (
	//DefaultChunkSize default number of record per chunk to read
	DefaultChunkSize = 10
)

type stepBuilder struct {
	name           string
	reader         Reader
	processor      Processor
	writer         Writer
	chunkSize      uint
	txManager      TransactionManager
	stepListeners  []StepListener
	chunkListeners []ChunkListener
}

//NewStep initialize a chunk step builder, handlers may be any of Reader, Processor, Writer, StepListener or ChunkListener
func NewStep(name string, handler ...interface{}) *stepBuilder {
	if name == "" {
		panic("step name must not be empty")
	}
	builder := &stepBuilder{
		name:           name,
		processor:      &nilProcessor{},
		chunkSize:      DefaultChunkSize,
		stepListeners:  make([]StepListener, 0),
		chunkListeners: make([]ChunkListener, 0),
	}
	for _, h := range handler {
		builder.Handler(h)
	}
	return builder
}

func (builder *stepBuilder) Handler(handler interface{}) *stepBuilder {
	valid := false
	if val, ok := handler.(Reader); ok {
		builder.Reader(val)
		valid = true
	}
	if val, ok := handler.(Processor); ok {
		builder.Processor(val)
		valid = true
	}
	if val, ok := handler.(Writer); ok {
		builder.Writer(val)
		valid = true
	}
	if val, ok := handler.(StepListener); ok {
		builder.stepListeners = append(builder.stepListeners, val)
		valid = true
	}
	if val, ok := handler.(ChunkListener); ok {
		builder.chunkListeners = append(builder.chunkListeners, val)
		valid = true
	}
	if !valid {
		panic(fmt.Sprintf("invalid handler type:%T for step:%v", handler, builder.name))
	}
	return builder
}

func (builder *stepBuilder) Reader(reader Reader) *stepBuilder {
	builder.reader = reader
	return builder
}

func (builder *stepBuilder) Processor(processor Processor) *stepBuilder {
	if processor == nil {
		processor = &nilProcessor{}
	}
	builder.processor = processor
	return builder
}

func (builder *stepBuilder) Writer(writer Writer) *stepBuilder {
	builder.writer = writer
	return builder
}

// ReadFile reads items from the file described by fd, the file name may contain {param} placeholders bound from job parameters when the step starts
func (builder *stepBuilder) ReadFile(fd file.FileObjectModel, readers ...file.FileItemReader) *stepBuilder {
	fr := &fileReader{fd: fd}
	if len(readers) > 0 {
		fr.reader = readers[0]
	}
	if fr.reader == nil && fr.fd.Type != "" {
		fr.reader = file.GetFileItemReader(fr.fd.Type)
	}
	if fr.reader == nil {
		panic("file type is non-standard and no FileItemReader specified")
	}
	builder.reader = fr
	return builder
}

// ChunkSize number of items committed together, also known as commit interval
func (builder *stepBuilder) ChunkSize(chunkSize uint) *stepBuilder {
	if chunkSize == 0 {
		panic(fmt.Sprintf("chunk size of step:%v must be positive", builder.name))
	}
	builder.chunkSize = chunkSize
	return builder
}

// TransactionManager overrides the global TransactionManager for this step
func (builder *stepBuilder) TransactionManager(txMgr TransactionManager) *stepBuilder {
	builder.txManager = txMgr
	return builder
}

func (builder *stepBuilder) Listener(listener ...interface{}) *stepBuilder {
	for _, l := range listener {
		switch ll := l.(type) {
		case StepListener:
			builder.stepListeners = append(builder.stepListeners, ll)
		case ChunkListener:
			builder.chunkListeners = append(builder.chunkListeners, ll)
		default:
			panic(fmt.Sprintf("not supported listener:%+v for step:%v", ll, builder.name))
		}
	}
	return builder
}

func (builder *stepBuilder) Build() Step {
	if builder.reader == nil {
		panic(fmt.Sprintf("no reader specified for step: %s", builder.name))
	}
	if builder.writer == nil {
		panic(fmt.Sprintf("no writer specified for step: %s", builder.name))
	}
	txMgr := builder.txManager
	if txMgr == nil {
		txMgr = txManager
	}
	return newChunkStep(builder.name, builder.reader, builder.processor, builder.writer, builder.chunkSize, txMgr, builder.stepListeners, builder.chunkListeners)
}

type nilProcessor struct {
}

func (p *nilProcessor) Process(item interface{}, chunkCtx *ChunkContext) (interface{}, BatchError) {
	return item, nil
}
