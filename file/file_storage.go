package file

import (
	"fmt"
	"io"
	"net/textproto"
	"os"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
)

type LocalFileSystem struct {
}

func (fs *LocalFileSystem) Exists(fileName string) (bool, error) {
	_, err := os.Stat(fileName)
	if err != nil && os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (fs *LocalFileSystem) Readable(fileName string) (bool, error) {
	info, err := os.Stat(fileName)
	if err != nil && os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, nil
	}
	f, err := os.Open(fileName)
	if err != nil {
		if os.IsPermission(err) {
			return false, nil
		}
		return false, err
	}
	return true, f.Close()
}

func (fs *LocalFileSystem) Open(fileName string) (io.ReadCloser, error) {
	return os.Open(fileName)
}

func (fs *LocalFileSystem) String() string {
	return LocalFileStorage
}

type FTPFileSystem struct {
	Host        string
	Port        int
	User        string
	Password    string
	ConnTimeout time.Duration
	//dial replaces the network connection in tests
	dial        func() (ftpClient, error)
}

//ftpClient the subset of *ftp.ServerConn the storage uses
type ftpClient interface {
	FileSize(path string) (int64, error)
	List(path string) ([]*ftp.Entry, error)
	Retr(path string) (*ftp.Response, error)
	Quit() error
}

func (fs *FTPFileSystem) connect() (ftpClient, error) {
	if fs.dial != nil {
		return fs.dial()
	}
	c, err := ftp.Dial(fmt.Sprintf("%s:%d", fs.Host, fs.Port), ftp.DialWithTimeout(fs.ConnTimeout))
	if err != nil {
		return nil, err
	}
	if err = c.Login(fs.User, fs.Password); err != nil {
		c.Quit()
		return nil, err
	}
	return c, nil
}

func isFileUnavailable(err error) bool {
	e, ok := err.(*textproto.Error)
	return ok && e.Code == ftp.StatusFileUnavailable
}

func (fs *FTPFileSystem) Exists(fileName string) (bool, error) {
	c, err := fs.connect()
	if err != nil {
		return false, err
	}
	defer c.Quit()
	_, err = c.FileSize(fileName)
	if err == nil {
		return true, nil
	}
	if isFileUnavailable(err) {
		return false, nil
	}
	return false, err
}

//Readable checks fileName lists as a single regular file; FTP exposes no permission bits reliably so a listed file is considered readable
func (fs *FTPFileSystem) Readable(fileName string) (bool, error) {
	c, err := fs.connect()
	if err != nil {
		return false, err
	}
	defer c.Quit()
	entries, err := c.List(fileName)
	if err != nil {
		if isFileUnavailable(err) {
			return false, nil
		}
		return false, err
	}
	if len(entries) != 1 || entries[0].Type != ftp.EntryTypeFile {
		return false, nil
	}
	//listing a directory holding one file also yields a single entry
	name := entries[0].Name
	return name == fileName || name == path.Base(fileName), nil
}

//Open retrieves fileName, the control connection stays open until the returned reader is closed
func (fs *FTPFileSystem) Open(fileName string) (io.ReadCloser, error) {
	c, err := fs.connect()
	if err != nil {
		return nil, err
	}
	r, err := c.Retr(fileName)
	if err != nil {
		c.Quit()
		return nil, err
	}
	return &ftpReadCloser{conn: c, resp: r}, nil
}

func (fs *FTPFileSystem) String() string {
	return fmt.Sprintf("%s(%s:%d)", FTPFileStorage, fs.Host, fs.Port)
}

type ftpReadCloser struct {
	conn ftpClient
	resp *ftp.Response
}

func (r *ftpReadCloser) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpReadCloser) Close() error {
	err := r.resp.Close()
	if e := r.conn.Quit(); e != nil && err == nil {
		err = errors.Wrap(e, "quit ftp connection")
	}
	return err
}
