package patientbatch

import (
	"context"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/chararch/patientbatch/status"
)

// Step step interface
type Step interface {
	Name() string
	Exec(ctx context.Context, execution *StepExecution) BatchError
	addListener(listener StepListener)
}

// chunkStep step implementation that process data in chunk, each chunk is read, processed and written in one transaction
type chunkStep struct {
	name           string
	reader         Reader
	processor      Processor
	writer         Writer
	chunkSize      uint
	txManager      TransactionManager
	listeners      []StepListener
	chunkListeners []ChunkListener
}

type chunk struct {
	items    []interface{}
	written  int
	filtered int
	end      bool
}

func newChunkStep(name string, reader Reader, processor Processor, writer Writer, chunkSize uint, txManager TransactionManager, listeners []StepListener, chunkListeners []ChunkListener) *chunkStep {
	return &chunkStep{
		name:           name,
		reader:         reader,
		processor:      processor,
		writer:         writer,
		chunkSize:      chunkSize,
		txManager:      txManager,
		listeners:      listeners,
		chunkListeners: chunkListeners,
	}
}

func (step *chunkStep) Name() string {
	return step.name
}

func (step *chunkStep) Exec(ctx context.Context, execution *StepExecution) (err BatchError) {
	defer func() {
		err = execEnd(ctx, execution, err, recover())
	}()
	logger.Info(ctx, "step execute start, jobExecutionId:%v, stepName:%v", execution.JobExecution.JobExecutionId, execution.StepName)
	for _, listener := range step.listeners {
		err = listener.BeforeStep(execution)
		if err != nil {
			logger.Error(ctx, "step listener executing error, jobExecutionId:%v, stepName:%v, listener:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, reflect.TypeOf(listener).String(), err)
			return err
		}
	}
	execution.start()
	if err = saveStepExecution(ctx, execution); err != nil {
		logger.Error(ctx, "save step execution failed, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, err)
		return err
	}
	if err = step.doOpenIfNecessary(execution); err != nil {
		logger.Error(ctx, "open resource failed, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, err)
		execution.finish(err)
		return err
	}
	err = step.doChunks(ctx, execution)
	if closeErr := step.doCloseIfNecessary(execution); closeErr != nil {
		logger.Error(ctx, "close resource failed, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, closeErr)
		if err == nil {
			err = closeErr
		}
	}
	execution.finish(err)
	for _, listener := range step.listeners {
		if e := listener.AfterStep(execution); e != nil {
			logger.Error(ctx, "step listener executing error, jobExecutionId:%v, stepName:%v, listener:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, reflect.TypeOf(listener).String(), e)
			if err == nil {
				err = e
				execution.finish(e)
			}
			break
		}
	}
	logger.Info(ctx, "step execute finish, jobExecutionId:%v, stepName:%v, stepStatus:%v, read:%v, write:%v, filter:%v, commit:%v, rollback:%v", execution.JobExecution.JobExecutionId, execution.StepName, execution.StepStatus,
		execution.ReadCount, execution.WriteCount, execution.FilterCount, execution.CommitCount, execution.RollbackCount)
	return err
}

func execEnd(ctx context.Context, execution *StepExecution, err BatchError, recoverErr interface{}) BatchError {
	if recoverErr != nil {
		logger.Error(ctx, "panic in step executing, jobExecutionId:%v, stepName:%v, err:%v, stack:%v", execution.JobExecution.JobExecutionId, execution.StepName, recoverErr, string(debug.Stack()))
		err = NewBatchError(ErrCodeGeneral, "panic in step execution: %v", recoverErr)
		execution.StepStatus = status.FAILED
		execution.FailError = err
		execution.EndTime = time.Now()
	}
	if err != nil && execution.StepStatus != status.FAILED && execution.StepStatus != status.UNKNOWN {
		logger.Error(ctx, "step executing error, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, err)
		execution.StepStatus = status.FAILED
		execution.FailError = err
		execution.EndTime = time.Now()
	}
	for i := 0; i < 3; i++ {
		e := saveStepExecution(ctx, execution)
		if e != nil && e.Code() == ErrCodeDbFail { //retry
			logger.Error(ctx, "save step execution failed and retry for recoverable err, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, e)
			continue
		}
		if e != nil {
			logger.Error(ctx, "save step execution failed, jobExecutionId:%v, stepName:%v, StepExecution:%+v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, execution, e)
			if err == nil {
				err = e
			}
		}
		break
	}
	return err
}

// doChunks runs chunks until the reader is exhausted or a chunk fails. A failed chunk is rolled back,
// chunks committed before it stay committed.
func (step *chunkStep) doChunks(ctx context.Context, execution *StepExecution) BatchError {
	for index := int64(1); ; index++ {
		tx, err := step.txManager.BeginTx()
		if err != nil {
			logger.Error(ctx, "start transaction err, jobExecutionId:%v, stepName:%v, chunk:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, index, err)
			return err
		}
		chunkCtx := &ChunkContext{
			StepExecution: execution,
			Tx:            tx,
			Index:         index,
		}
		ch, err := step.doChunk(ctx, chunkCtx)
		if err != nil {
			logger.Error(ctx, "doChunk err, jobExecutionId:%v, stepName:%v, chunk:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, index, err)
			if txErr := step.txManager.Rollback(tx); txErr != nil {
				logger.Error(ctx, "rollback transaction err, jobExecutionId:%v, stepName:%v, chunk:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, index, txErr)
			}
			execution.RollbackCount++
			return err
		}
		if txErr := step.txManager.Commit(tx); txErr != nil {
			logger.Error(ctx, "commit transaction err, jobExecutionId:%v, stepName:%v, chunk:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, index, txErr)
			execution.RollbackCount++
			return NewBatchError(ErrCodeWrite, "commit chunk:%v of step:%v failed", index, execution.StepName, txErr)
		}
		if len(ch.items) > 0 {
			execution.ReadCount += int64(len(ch.items))
			execution.WriteCount += int64(ch.written)
			execution.FilterCount += int64(ch.filtered)
			execution.CommitCount++
			if e := saveStepExecution(ctx, execution); e != nil {
				logger.Error(ctx, "save step execution failed, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, e)
				return e
			}
		}
		if ch.end {
			return nil
		}
	}
}

func (step *chunkStep) doOpenIfNecessary(execution *StepExecution) BatchError {
	rc, readerOpened := step.reader.(OpenCloser)
	if readerOpened {
		if err := rc.Open(execution); err != nil {
			return err
		}
	}
	if wc, ok := step.writer.(OpenCloser); ok {
		if err := wc.Open(execution); err != nil {
			if readerOpened {
				if e := rc.Close(execution); e != nil {
					logger.Error(context.Background(), "close reader after writer open failure err, stepName:%v, err:%v", execution.StepName, e)
				}
			}
			return err
		}
	}
	return nil
}

func (step *chunkStep) doCloseIfNecessary(execution *StepExecution) BatchError {
	var err BatchError
	if rc, ok := step.reader.(OpenCloser); ok {
		err = rc.Close(execution)
	}
	if wc, ok := step.writer.(OpenCloser); ok {
		if e := wc.Close(execution); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (step *chunkStep) doChunk(ctx context.Context, chunkCtx *ChunkContext) (ch *chunk, err BatchError) {
	execution := chunkCtx.StepExecution
	defer func() {
		if er := recover(); er != nil {
			logger.Error(ctx, "panic on chunk executing, jobExecutionId:%v, stepName:%v, chunk:%v, err:%v, stack:%v", execution.JobExecution.JobExecutionId, execution.StepName, chunkCtx.Index, er, string(debug.Stack()))
			err = NewBatchError(ErrCodeGeneral, "panic on chunk:%v executing, stepName:%v, err:%v", chunkCtx.Index, execution.StepName, er)
		}
		if err != nil {
			for _, listener := range step.chunkListeners {
				listener.OnError(chunkCtx, err)
			}
		}
	}()
	logger.Debug(ctx, "doChunk start, jobExecutionId:%v, stepName:%v, chunk:%v", execution.JobExecution.JobExecutionId, execution.StepName, chunkCtx.Index)
	for _, listener := range step.chunkListeners {
		if err = listener.BeforeChunk(chunkCtx); err != nil {
			logger.Error(ctx, "chunk listener executing error, jobExecutionId:%v, stepName:%v, listener:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, reflect.TypeOf(listener).String(), err)
			return nil, err
		}
	}
	execution.StepStatus = status.READING
	ch, err = readChunk(step.reader, chunkCtx, step.chunkSize)
	if err != nil {
		logger.Error(ctx, "read chunk data error, jobExecutionId:%v, stepName:%v, chunk:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, chunkCtx.Index, err)
		return nil, err
	}
	logger.Debug(ctx, "read chunk data success, jobExecutionId:%v, stepName:%v, chunk:%v, read count:%v", execution.JobExecution.JobExecutionId, execution.StepName, chunkCtx.Index, len(ch.items))

	execution.StepStatus = status.PROCESSING
	output := make([]interface{}, 0, len(ch.items))
	for index, item := range ch.items {
		outItem, e := step.processor.Process(item, chunkCtx)
		if e != nil {
			logger.Error(ctx, "process chunk item error, jobExecutionId:%v, stepName:%v, chunk:%v, position:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, chunkCtx.Index, index, e)
			return nil, e
		}
		if outItem == nil {
			ch.filtered++
			continue
		}
		output = append(output, outItem)
	}
	if len(output) > 0 {
		execution.StepStatus = status.WRITING
		if err = step.writer.Write(output, chunkCtx); err != nil {
			logger.Error(ctx, "write chunk data error, jobExecutionId:%v, stepName:%v, chunk:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, chunkCtx.Index, err)
			return nil, err
		}
		ch.written = len(output)
		logger.Debug(ctx, "write chunk data success, jobExecutionId:%v, stepName:%v, chunk:%v, write count:%v", execution.JobExecution.JobExecutionId, execution.StepName, chunkCtx.Index, len(output))
	}
	for _, listener := range step.chunkListeners {
		if err = listener.AfterChunk(chunkCtx); err != nil {
			logger.Error(ctx, "chunk listener executing error, jobExecutionId:%v, stepName:%v, listener:%v, err:%v", execution.JobExecution.JobExecutionId, execution.StepName, reflect.TypeOf(listener).String(), err)
			return nil, err
		}
	}
	return ch, nil
}

func readChunk(reader Reader, chunkCtx *ChunkContext, chunkSize uint) (*chunk, BatchError) {
	ch := &chunk{items: make([]interface{}, 0, chunkSize)}
	for i := uint(0); i < chunkSize; i++ {
		item, err := reader.Read(chunkCtx)
		if err != nil {
			return nil, err
		}
		if item == nil {
			ch.end = true
			break
		}
		ch.items = append(ch.items, item)
	}
	chunkCtx.End = ch.end
	return ch, nil
}

func (step *chunkStep) addListener(listener StepListener) {
	step.listeners = append(step.listeners, listener)
}

func (step *chunkStep) addChunkListener(listener ChunkListener) {
	step.chunkListeners = append(step.chunkListeners, listener)
}
