package file

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

type delimitedReader struct {
	fd        FileObjectModel
	reader    io.ReadCloser
	bufReader *bufio.Reader
	line      int64
	row       int64
	eof       bool
}

//delimitedFileItemReader reads a line oriented file, skipping fd.LinesToSkip header lines and mapping every other line through fd.LineMapper
type delimitedFileItemReader struct {
}

func (r *delimitedFileItemReader) Open(fd FileObjectModel) (interface{}, error) {
	if fd.LineMapper == nil {
		return nil, errors.Errorf("no LineMapper specified for file:%v", fd.FileName)
	}
	if fd.FileStore == nil {
		return nil, errors.Errorf("no FileStorage specified for file:%v", fd.FileName)
	}
	reader, err := fd.FileStore.Open(fd.FileName)
	if err != nil {
		return nil, err
	}
	handle := &delimitedReader{fd: fd, reader: reader, bufReader: bufio.NewReader(reader)}
	for i := 0; i < fd.LinesToSkip && !handle.eof; i++ {
		if _, err = handle.nextLine(); err != nil {
			if er := reader.Close(); er != nil {
				err = errors.Wrapf(err, "close file:%v also failed: %v", fd.FileName, er)
			}
			return nil, err
		}
	}
	return handle, nil
}

func (r *delimitedFileItemReader) Close(handle interface{}) error {
	dr, ok := handle.(*delimitedReader)
	if !ok || dr == nil {
		return nil
	}
	return dr.reader.Close()
}

func (r *delimitedFileItemReader) ReadItem(handle interface{}) (interface{}, error) {
	dr, ok := handle.(*delimitedReader)
	if !ok || dr == nil {
		return nil, errors.Errorf("invalid file reader handle:%T", handle)
	}
	if dr.eof {
		return nil, nil
	}
	line, err := dr.nextLine()
	if err != nil {
		return nil, err
	}
	if dr.eof && line == "" {
		return nil, nil
	}
	dr.row++
	item, err := dr.fd.LineMapper.MapLine(line, dr.line)
	if err != nil {
		return nil, &LineError{FileName: dr.fd.FileName, Line: dr.line, Row: dr.row, Err: err}
	}
	return item, nil
}

//nextLine reads the next physical line without its terminator, a final line without terminator is returned with eof set
func (dr *delimitedReader) nextLine() (string, error) {
	line, err := dr.bufReader.ReadString('\n')
	if err == io.EOF {
		dr.eof = true
		if line == "" {
			return "", nil
		}
	} else if err != nil {
		return "", errors.Wrapf(err, "read line:%v of file:%v", dr.line+1, dr.fd.FileName)
	}
	dr.line++
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
