package file

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	LocalFileStorage = "LocalFile"
	FTPFileStorage   = "FTP"
)

const (
	CSV = "csv"
)

const (
	OKFlag = "OK"
	MD5    = "MD5"
	SHA1   = "SHA1"
	SHA256 = "SHA256"
	SHA512 = "SHA512"
)

//FileObjectModel describes a flat file to read: where it is stored, how it is laid out and how a line becomes an item
type FileObjectModel struct {
	FileStore   FileStorage
	//Directory root FileName is resolved in, used literally: placeholders are bound in FileName only
	Directory   string
	FileName    string
	Type        string
	LinesToSkip int
	Checksum    string
	LineMapper  LineMapper
}

func (fd *FileObjectModel) String() string {
	return fmt.Sprintf("%v://%s", fd.FileStore, filepath.Join(fd.Directory, fd.FileName))
}

//ErrOutsideDirectory a file name resolves outside the directory it must be read from
var ErrOutsideDirectory = errors.New("file is outside the input directory")

//ResolvePath joins fileName under dir; names such as ../x that leave dir are rejected with ErrOutsideDirectory
func ResolvePath(dir, fileName string) (string, error) {
	if dir == "" {
		return fileName, nil
	}
	path := filepath.Join(dir, fileName)
	rel, err := filepath.Rel(filepath.Clean(dir), path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrOutsideDirectory, "file:%v, directory:%v", fileName, dir)
	}
	return path, nil
}

type FileStorage interface {
	Exists(fileName string) (ok bool, err error)
	//Readable reports whether fileName is a regular file the process can open for reading
	Readable(fileName string) (ok bool, err error)
	Open(fileName string) (reader io.ReadCloser, err error)
}

type FileItemReader interface {
	Open(fd FileObjectModel) (handle interface{}, err error)
	Close(handle interface{}) error
	//ReadItem returns a nil item at end of file
	ReadItem(handle interface{}) (interface{}, error)
}

//LineMapper maps one data line to an item, lineNumber is the 1-based physical line in the file
type LineMapper interface {
	MapLine(line string, lineNumber int64) (interface{}, error)
}

type LineMapperFunc func(line string, lineNumber int64) (interface{}, error)

func (f LineMapperFunc) MapLine(line string, lineNumber int64) (interface{}, error) {
	return f(line, lineNumber)
}

type ChecksumVerifier interface {
	Verify(fd FileObjectModel) (bool, error)
}

//LineError a line of the file could not be mapped to an item
type LineError struct {
	FileName string
	//Line physical line number, header lines included
	Line int64
	//Row data row number, header lines excluded
	Row int64
	Err error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("parsing error at line: %d (row: %d) in file: %s, err: %v", e.Line, e.Row, e.FileName, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
