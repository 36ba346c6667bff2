package patientbatch

import (
	"context"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/chararch/patientbatch/status"
)

type sliceReader struct {
	items    []interface{}
	pos      int
	failAt   int
	opened   int
	closed   int
	openErr  BatchError
	statuses []status.BatchStatus
}

func newSliceReader(n int) *sliceReader {
	items := make([]interface{}, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, i)
	}
	return &sliceReader{items: items}
}

func (r *sliceReader) Open(execution *StepExecution) BatchError {
	r.opened++
	return r.openErr
}

func (r *sliceReader) Close(execution *StepExecution) BatchError {
	r.closed++
	return nil
}

func (r *sliceReader) Read(chunkCtx *ChunkContext) (interface{}, BatchError) {
	r.statuses = append(r.statuses, chunkCtx.StepExecution.StepStatus)
	if r.pos >= len(r.items) {
		return nil, nil
	}
	r.pos++
	if r.failAt == r.pos {
		return nil, NewBatchError(ErrCodeDecode, "row:%v can not be decoded, chunk:%v", r.pos, chunkCtx.Index)
	}
	return r.items[r.pos-1], nil
}

type recordWriter struct {
	chunks       [][]interface{}
	chunkIdx     []int64
	failOnChunk  int64
	panicOnChunk int64
	closed       int
	statuses     []status.BatchStatus
}

func (w *recordWriter) Open(execution *StepExecution) BatchError {
	return nil
}

func (w *recordWriter) Close(execution *StepExecution) BatchError {
	w.closed++
	return nil
}

func (w *recordWriter) Write(items []interface{}, chunkCtx *ChunkContext) BatchError {
	w.statuses = append(w.statuses, chunkCtx.StepExecution.StepStatus)
	if chunkCtx.Index == w.panicOnChunk {
		panic("sink crashed")
	}
	if chunkCtx.Index == w.failOnChunk {
		return NewBatchError(ErrCodeWrite, "write record at position:%v of chunk:%v failed", 0, chunkCtx.Index)
	}
	w.chunks = append(w.chunks, items)
	w.chunkIdx = append(w.chunkIdx, chunkCtx.Index)
	return nil
}

func (w *recordWriter) sizes() []int {
	result := make([]int, 0, len(w.chunks))
	for _, c := range w.chunks {
		result = append(result, len(c))
	}
	return result
}

type countingTxManager struct {
	begins    int
	commits   int
	rollbacks int
}

func (tm *countingTxManager) BeginTx() (interface{}, BatchError) {
	tm.begins++
	return tm.begins, nil
}

func (tm *countingTxManager) Commit(tx interface{}) BatchError {
	tm.commits++
	return nil
}

func (tm *countingTxManager) Rollback(tx interface{}) BatchError {
	tm.rollbacks++
	return nil
}

func runTestStep(t *testing.T, step Step) (*JobExecution, BatchError) {
	job := NewJob("test_job_"+t.Name(), step).Build()
	execution := newTestJobExecution()
	err := job.Start(context.Background(), execution)
	return execution, err
}

func TestChunkStep_ChunkBoundaries(t *testing.T) {
	cases := []struct {
		items     int
		chunkSize uint
		sizes     []int
		commits   int
	}{
		{3, 2, []int{2, 1}, 2},
		{4, 2, []int{2, 2}, 3},
		{1, 2, []int{1}, 1},
		{0, 2, []int{}, 1},
		{5, 10, []int{5}, 1},
	}
	for _, c := range cases {
		reader := newSliceReader(c.items)
		writer := &recordWriter{}
		tm := &countingTxManager{}
		step := NewStep("chunk_step", reader, writer).ChunkSize(c.chunkSize).TransactionManager(tm).Build()
		execution, err := runTestStep(t, step)
		assert.Equal(t, nil, err)
		assert.Equal(t, status.COMPLETED, execution.JobStatus)
		assert.Equal(t, c.sizes, writer.sizes())
		assert.Equal(t, c.commits, tm.commits)
		assert.Equal(t, 0, tm.rollbacks)
		stepExecution := execution.StepExecutions[0]
		assert.Equal(t, status.COMPLETED, stepExecution.StepStatus)
		assert.Equal(t, int64(c.items), stepExecution.ReadCount)
		assert.Equal(t, int64(c.items), stepExecution.WriteCount)
		assert.Equal(t, int64(len(c.sizes)), stepExecution.CommitCount)
		assert.Equal(t, 1, reader.opened)
		assert.Equal(t, 1, reader.closed)
		assert.Equal(t, 1, writer.closed)
	}
}

func TestChunkStep_WriteFailureRollsBackChunk(t *testing.T) {
	reader := newSliceReader(5)
	writer := &recordWriter{failOnChunk: 2}
	tm := &countingTxManager{}
	step := NewStep("chunk_step", reader, writer).ChunkSize(2).TransactionManager(tm).Build()
	execution, err := runTestStep(t, step)
	assert.NotEqual(t, nil, err)
	assert.T(t, IsErrorCode(err, ErrCodeWrite))
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, []int{2}, writer.sizes())
	assert.Equal(t, 1, tm.commits)
	assert.Equal(t, 1, tm.rollbacks)
	stepExecution := execution.StepExecutions[0]
	assert.Equal(t, status.FAILED, stepExecution.StepStatus)
	assert.Equal(t, int64(1), stepExecution.CommitCount)
	assert.Equal(t, int64(1), stepExecution.RollbackCount)
	assert.Equal(t, int64(2), stepExecution.WriteCount)
	assert.Equal(t, 1, reader.closed)
	assert.Equal(t, 1, writer.closed)
}

func TestChunkStep_ReadFailure(t *testing.T) {
	reader := newSliceReader(5)
	reader.failAt = 2
	writer := &recordWriter{}
	tm := &countingTxManager{}
	step := NewStep("chunk_step", reader, writer).ChunkSize(2).TransactionManager(tm).Build()
	execution, err := runTestStep(t, step)
	assert.T(t, IsErrorCode(err, ErrCodeDecode))
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, 0, len(writer.chunks))
	assert.Equal(t, 0, tm.commits)
	assert.Equal(t, 1, tm.rollbacks)
	assert.Equal(t, 1, reader.closed)
}

func TestChunkStep_ProcessFailure(t *testing.T) {
	reader := newSliceReader(4)
	writer := &recordWriter{}
	processor := ProcessorFunc(func(item interface{}, chunkCtx *ChunkContext) (interface{}, BatchError) {
		if item.(int) == 3 {
			return nil, NewBatchError(ErrCodeProcess, "item:%v rejected", item)
		}
		return item, nil
	})
	step := NewStep("chunk_step", reader, processor, writer).ChunkSize(2).Build()
	execution, err := runTestStep(t, step)
	assert.T(t, IsErrorCode(err, ErrCodeProcess))
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, []int{2}, writer.sizes())
	assert.Equal(t, 1, writer.closed)
}

func TestChunkStep_Filter(t *testing.T) {
	reader := newSliceReader(5)
	writer := &recordWriter{}
	processor := ProcessorFunc(func(item interface{}, chunkCtx *ChunkContext) (interface{}, BatchError) {
		if item.(int)%2 == 0 {
			return nil, nil
		}
		return item, nil
	})
	step := NewStep("chunk_step", reader, processor, writer).ChunkSize(2).Build()
	execution, err := runTestStep(t, step)
	assert.Equal(t, nil, err)
	assert.Equal(t, []int{1, 1, 1}, writer.sizes())
	stepExecution := execution.StepExecutions[0]
	assert.Equal(t, int64(5), stepExecution.ReadCount)
	assert.Equal(t, int64(3), stepExecution.WriteCount)
	assert.Equal(t, int64(2), stepExecution.FilterCount)

	//a chunk whose items are all filtered does not reach the writer
	reader = newSliceReader(2)
	writer = &recordWriter{}
	dropAll := ProcessorFunc(func(item interface{}, chunkCtx *ChunkContext) (interface{}, BatchError) {
		return nil, nil
	})
	step = NewStep("chunk_step", reader, dropAll, writer).ChunkSize(2).Build()
	_, err = runTestStep(t, step)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(writer.statuses))
}

func TestChunkStep_StatusTransitions(t *testing.T) {
	reader := newSliceReader(3)
	writer := &recordWriter{}
	processed := make([]status.BatchStatus, 0)
	processor := ProcessorFunc(func(item interface{}, chunkCtx *ChunkContext) (interface{}, BatchError) {
		processed = append(processed, chunkCtx.StepExecution.StepStatus)
		return item, nil
	})
	step := NewStep("chunk_step", reader, processor, writer).ChunkSize(2).Build()
	_, err := runTestStep(t, step)
	assert.Equal(t, nil, err)
	for _, s := range reader.statuses {
		assert.Equal(t, status.READING, s)
	}
	for _, s := range processed {
		assert.Equal(t, status.PROCESSING, s)
	}
	assert.Equal(t, []status.BatchStatus{status.WRITING, status.WRITING}, writer.statuses)
	assert.Equal(t, []int64{1, 2}, writer.chunkIdx)
}

func TestChunkStep_OpenFailure(t *testing.T) {
	reader := newSliceReader(3)
	reader.openErr = NewBatchError(ErrCodeResource, "file missing")
	writer := &recordWriter{}
	step := NewStep("chunk_step", reader, writer).Build()
	execution, err := runTestStep(t, step)
	assert.T(t, IsErrorCode(err, ErrCodeResource))
	assert.Equal(t, status.FAILED, execution.StepExecutions[0].StepStatus)
	assert.Equal(t, 0, len(reader.statuses))
	assert.Equal(t, 0, len(writer.statuses))
}

func TestChunkStep_WriterPanic(t *testing.T) {
	reader := newSliceReader(3)
	writer := &recordWriter{panicOnChunk: 1}
	tm := &countingTxManager{}
	step := NewStep("chunk_step", reader, writer).ChunkSize(2).TransactionManager(tm).Build()
	execution, err := runTestStep(t, step)
	assert.T(t, IsErrorCode(err, ErrCodeGeneral))
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, 1, tm.rollbacks)
	assert.Equal(t, 1, reader.closed)
}

type chunkRecorder struct {
	before, after int
	errs          []BatchError
}

func (l *chunkRecorder) BeforeChunk(chunkCtx *ChunkContext) BatchError {
	l.before++
	return nil
}

func (l *chunkRecorder) AfterChunk(chunkCtx *ChunkContext) BatchError {
	l.after++
	return nil
}

func (l *chunkRecorder) OnError(chunkCtx *ChunkContext, err BatchError) {
	l.errs = append(l.errs, err)
}

func TestChunkStep_ChunkListener(t *testing.T) {
	reader := newSliceReader(3)
	writer := &recordWriter{failOnChunk: 2}
	listener := &chunkRecorder{}
	step := NewStep("chunk_step", reader, writer, listener).ChunkSize(2).Build()
	_, err := runTestStep(t, step)
	assert.NotEqual(t, nil, err)
	assert.Equal(t, 2, listener.before)
	assert.Equal(t, 1, listener.after)
	assert.Equal(t, 1, len(listener.errs))
}

func TestStepBuilder_Panics(t *testing.T) {
	assertPanic := func(f func()) {
		defer func() {
			assert.NotEqual(t, nil, recover())
		}()
		f()
	}
	assertPanic(func() { NewStep("") })
	assertPanic(func() { NewStep("s").ChunkSize(0) })
	assertPanic(func() { NewStep("s", &recordWriter{}).Build() })
	assertPanic(func() { NewStep("s", newSliceReader(1)).Build() })
	assertPanic(func() { NewStep("s", "not a handler") })
}
