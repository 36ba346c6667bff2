package patientbatch

import (
	"github.com/chararch/patientbatch/file"
	"github.com/pkg/errors"
)

const (
	fileItemReaderHandleKey   = "patientbatch.FileItemReader.handle"
	fileItemReaderFileNameKey = "patientbatch.FileItemReader.fileName"
)

//fileReader adapts a file.FileItemReader to Reader, the file name is bound from job parameters when the step opens
type fileReader struct {
	fd     file.FileObjectModel
	reader file.FileItemReader
}

func (r *fileReader) Open(execution *StepExecution) BatchError {
	fd := r.fd //copy fd
	fp := &FilePath{fd.FileName}
	boundName, err := fp.Format(execution)
	if err != nil {
		return NewBatchError(ErrCodeParameter, "bind file path:%v failed", fd.FileName, err)
	}
	fileName, err := file.ResolvePath(fd.Directory, boundName)
	if err != nil {
		return NewBatchError(ErrCodeParameter, "resolve file:%v failed", boundName, err)
	}
	fd.FileName = fileName
	fd.Directory = ""
	if fd.Checksum != "" {
		verifier := file.GetChecksumVerifier(fd.Checksum)
		if verifier == nil {
			return NewBatchError(ErrCodeResource, "unsupported checksum algorithm:%v for file:%v", fd.Checksum, fileName)
		}
		ok, err := verifier.Verify(fd)
		if err != nil {
			return NewBatchError(ErrCodeResource, "verify %v checksum of file:%v failed", fd.Checksum, fileName, err)
		}
		if !ok {
			return NewBatchError(ErrCodeResource, "%v checksum of file:%v does not match", fd.Checksum, fileName)
		}
	}
	handle, err := r.reader.Open(fd)
	if err != nil {
		return NewBatchError(ErrCodeResource, "open file:%v failed", fileName, err)
	}
	execution.StepExecutionContext.Put(fileItemReaderHandleKey, handle)
	execution.StepExecutionContext.Put(fileItemReaderFileNameKey, fileName)
	return nil
}

func (r *fileReader) Read(chunkCtx *ChunkContext) (interface{}, BatchError) {
	executionCtx := chunkCtx.StepExecution.StepExecutionContext
	handle := executionCtx.Get(fileItemReaderHandleKey)
	fileName, _ := executionCtx.GetString(fileItemReaderFileNameKey)
	if handle == nil {
		return nil, NewBatchError(ErrCodeResource, "file reader of step:%v is not opened", chunkCtx.StepExecution.StepName)
	}
	item, err := r.reader.ReadItem(handle)
	if err != nil {
		var lineErr *file.LineError
		if errors.As(err, &lineErr) {
			return nil, NewBatchError(ErrCodeDecode, "decode file:%v failed at line:%v, row:%v, chunk:%v", fileName, lineErr.Line, lineErr.Row, chunkCtx.Index, err)
		}
		return nil, NewBatchError(ErrCodeResource, "read item from file:%v failed, chunk:%v", fileName, chunkCtx.Index, err)
	}
	return item, nil
}

func (r *fileReader) Close(execution *StepExecution) BatchError {
	executionCtx := execution.StepExecutionContext
	handle := executionCtx.Get(fileItemReaderHandleKey)
	if handle == nil {
		return nil
	}
	fileName, _ := executionCtx.GetString(fileItemReaderFileNameKey)
	executionCtx.Remove(fileItemReaderHandleKey)
	if e := r.reader.Close(handle); e != nil {
		return NewBatchError(ErrCodeResource, "close file:%v failed", fileName, e)
	}
	return nil
}
