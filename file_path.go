package patientbatch

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

//FilePath an abstract file path whose {param} placeholders are bound when a job runs.
//A placeholder is {name}, {job:name} or {step:name}, optionally followed by a format: {date,yyyyMMdd}, {seq,#4}.
type FilePath struct {
	NamePattern string
}

var paramRegexp = regexp.MustCompile("\\{[^\\}]+\\}")

//Format generate a real file path by formatting FilePath according to *StepExecution instance
func (f *FilePath) Format(execution *StepExecution) (string, error) {
	return f.format(func(category, param string) (interface{}, error) {
		switch category {
		case "":
			if v, ok := execution.JobExecution.JobParams[param]; ok {
				return v, nil
			} else if execution.StepContext.Exists(param) {
				return execution.StepContext.Get(param), nil
			} else if execution.JobExecution.JobContext.Exists(param) {
				return execution.JobExecution.JobContext.Get(param), nil
			}
			return nil, errors.Errorf("can not find param:%v", param)
		case "job":
			if execution.JobExecution.JobContext.Exists(param) {
				return execution.JobExecution.JobContext.Get(param), nil
			}
			return nil, errors.Errorf("can not find param:%v in JobExecution", param)
		case "step":
			if execution.StepContext.Exists(param) {
				return execution.StepContext.Get(param), nil
			}
			return nil, errors.Errorf("can not find param:%v in StepExecution", param)
		}
		return nil, errors.Errorf("unsupported param category: %v", category)
	})
}

//FormatParams generate a real file path from job parameters only, used before any execution context exists
func (f *FilePath) FormatParams(params map[string]interface{}) (string, error) {
	return f.format(func(category, param string) (interface{}, error) {
		if category != "" {
			return nil, errors.Errorf("param category:%v is not available in job parameters", category)
		}
		if v, ok := params[param]; ok {
			return v, nil
		}
		return nil, errors.Errorf("can not find param:%v", param)
	})
}

func (f *FilePath) format(lookup func(category, param string) (interface{}, error)) (string, error) {
	var err error
	factPath := paramRegexp.ReplaceAllStringFunc(f.NamePattern, func(s string) string {
		if err != nil {
			return s
		}
		s = s[1 : len(s)-1]
		category, param, format := "", s, ""
		idx := strings.Index(s, ":")
		if idx > 0 {
			category, param = s[0:idx], s[idx+1:]
		}
		idx2 := strings.Index(param, ",")
		if idx2 > 0 {
			param, format = param[0:idx2], param[idx2+1:]
		}
		var paramVal interface{}
		paramVal, err = lookup(category, param)
		if err != nil {
			return s
		}
		var str string
		str, err = formatParam(paramVal, format)
		return str
	})
	if err != nil {
		return "", err
	}
	return factPath, nil
}

var dateFmtRegexp = regexp.MustCompile("yyyy|MM|dd|HH|mm|SS")

func formatParam(val interface{}, format string) (string, error) {
	if val == nil {
		return "", nil
	}
	if format == "" {
		return fmt.Sprintf("%v", val), nil
	} else if dateFmtRegexp.MatchString(format) {
		//format date
		format = strings.ReplaceAll(format, "yyyy", "2006")
		format = strings.ReplaceAll(format, "MM", "01")
		format = strings.ReplaceAll(format, "dd", "02")
		format = strings.ReplaceAll(format, "HH", "15")
		format = strings.ReplaceAll(format, "mm", "04")
		format = strings.ReplaceAll(format, "SS", "05")
		dt, err := parseDate(val)
		if err != nil {
			return "", err
		}
		return dt.Format(format), nil
	} else if idx := strings.Index(format, "#"); idx >= 0 {
		//format number
		digit := 0
		var err error
		if idx == 0 {
			digit, err = strconv.Atoi(format[1:])
		} else if idx > 0 {
			digit, err = strconv.Atoi(format[0:idx])
		}
		if err != nil {
			return "", errors.Errorf("unsupported format:%v", format)
		}
		val, err = parseInteger(val)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(fmt.Sprintf("%%0%vd", digit), val), nil
	}
	return "", errors.Errorf("unsupported format:%v", format)
}

func parseDate(val interface{}) (time.Time, error) {
	refVal := reflect.ValueOf(val)
	if refVal.Kind() == reflect.Struct && refVal.Type().String() == "time.Time" {
		return val.(time.Time), nil
	}
	if refVal.Kind() == reflect.String {
		strVal := val.(string)
		if len(strVal) == 8 {
			return time.ParseInLocation("20060102", strVal, time.Local)
		} else if len(strVal) == 10 {
			dt, err := time.ParseInLocation("2006-01-02", strVal, time.Local)
			return dt, err
		} else if len(strVal) == 19 {
			return time.ParseInLocation("2006-01-02 15:04:05", strVal, time.Local)
		}
	}
	return time.Time{}, errors.Errorf("can not parse to date:%v", val)
}

func parseInteger(val interface{}) (interface{}, error) {
	switch v := val.(type) {
	case int, int8, int32, int64, uint, uint8, uint32, uint64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.Atoi(v)
	}
	return -1, errors.Errorf("can not parse to integer:%v", val)
}
