package patient

import (
	"strings"

	"github.com/chararch/patientbatch"
	"github.com/chararch/patientbatch/file"
)

// FileParameterValidator checks the fileName job parameter names a readable file under InputPath.
// It runs before the step opens the file.
type FileParameterValidator struct {
	InputPath string
	FileStore file.FileStorage
	//Checksum optional sidecar algorithm the file must verify against, see file.GetChecksumVerifier
	Checksum string
}

func (v *FileParameterValidator) Validate(params map[string]interface{}) patientbatch.BatchError {
	fileName, ok := params[ParamFileName].(string)
	if !ok || strings.TrimSpace(fileName) == "" {
		return patientbatch.NewBatchError(patientbatch.ErrCodeParameter, "The %v job parameter is required", ParamFileName)
	}
	path, err := file.ResolvePath(v.InputPath, fileName)
	if err != nil {
		return patientbatch.NewBatchError(patientbatch.ErrCodeParameter, "The %v job parameter must name a file inside the input path: %v", ParamFileName, fileName, err)
	}
	fs := v.FileStore
	if fs == nil {
		fs = &file.LocalFileSystem{}
	}
	readable, err := fs.Readable(path)
	if err != nil {
		return patientbatch.NewBatchError(patientbatch.ErrCodeResource, "The input path + %v parameter needs to be a valid file location: %v", ParamFileName, path, err)
	}
	if !readable {
		return patientbatch.NewBatchError(patientbatch.ErrCodeResource, "The input path + %v parameter needs to be a valid file location: %v", ParamFileName, path)
	}
	if v.Checksum != "" {
		verifier := file.GetChecksumVerifier(v.Checksum)
		if verifier == nil {
			return patientbatch.NewBatchError(patientbatch.ErrCodeResource, "unsupported checksum algorithm:%v", v.Checksum)
		}
		ok, err := verifier.Verify(file.FileObjectModel{FileStore: fs, FileName: path})
		if err != nil {
			return patientbatch.NewBatchError(patientbatch.ErrCodeResource, "verify %v checksum of file:%v failed", v.Checksum, path, err)
		}
		if !ok {
			return patientbatch.NewBatchError(patientbatch.ErrCodeResource, "%v checksum of file:%v does not match", v.Checksum, path)
		}
	}
	return nil
}

// InputFileName the reader's file name, bound from the fileName job parameter when the step opens
const InputFileName = "{" + ParamFileName + "}"
