package patientbatch

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// BatchError error raised by jobs, steps and their components, the code classifies the failure
type BatchError interface {
	Code() string
	Message() string
	Error() string
	StackTrace() string
}

type batchErr struct {
	code  string
	msg   string
	cause error
	stack error
}

func (err *batchErr) Code() string {
	return err.code
}

func (err *batchErr) Message() string {
	return err.msg
}

func (err *batchErr) Error() string {
	if err.cause != nil {
		return fmt.Sprintf("batch err, code:%v, message:%v, cause:%v", err.code, err.msg, err.cause)
	}
	return fmt.Sprintf("batch err, code:%v, message:%v", err.code, err.msg)
}

func (err *batchErr) Unwrap() error {
	return err.cause
}

func (err *batchErr) StackTrace() string {
	return fmt.Sprintf("%+v", err.stack)
}

func (err *batchErr) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s\n%s", err.Error(), err.StackTrace())
		return
	}
	fmt.Fprint(s, err.Error())
}

// NewBatchError create a BatchError with the code, msg is formatted with args.
// An error passed as the last arg without a matching verb in msg becomes the cause.
func NewBatchError(code string, msg string, args ...interface{}) BatchError {
	var cause error
	if n := len(args); n > 0 && n > countVerbs(msg) {
		if e, ok := args[n-1].(error); ok {
			cause = e
			args = args[:n-1]
		}
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	var stack error
	if cause == nil {
		stack = errors.New(msg)
	} else {
		stack = errors.WithStack(cause)
	}
	return &batchErr{code: code, msg: msg, cause: cause, stack: stack}
}

func countVerbs(format string) int {
	return strings.Count(format, "%") - 2*strings.Count(format, "%%")
}

// IsErrorCode reports whether err or any error in its cause chain is a BatchError with the code
func IsErrorCode(err error, code string) bool {
	for err != nil {
		if be, ok := err.(BatchError); ok && be.Code() == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// ErrorCode returns the code of the first BatchError in the cause chain of err, or def
func ErrorCode(err error, def string) string {
	for err != nil {
		if be, ok := err.(BatchError); ok {
			return be.Code()
		}
		err = errors.Unwrap(err)
	}
	return def
}

const (
	// ErrCodeParameter a required job parameter is missing or blank
	ErrCodeParameter = "parameter"
	// ErrCodeResource an input resource does not exist, is not readable or failed on I/O
	ErrCodeResource = "resource"
	// ErrCodeDecode a line could not be decoded into an item
	ErrCodeDecode = "decode"
	// ErrCodeProcess the processor rejected an item
	ErrCodeProcess = "process"
	// ErrCodeWrite the sink rejected a chunk
	ErrCodeWrite       = "write"
	ErrCodeConcurrency = "concurrency"
	ErrCodeDbFail      = "db_fail"
	ErrCodeGeneral     = "general"
)

