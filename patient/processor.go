package patient

import (
	"strings"

	"github.com/chararch/patientbatch"
)

// RequiredFields a processor failing the chunk when any of the given field positions is blank
func RequiredFields(positions ...int) patientbatch.Processor {
	return patientbatch.ProcessorFunc(func(item interface{}, chunkCtx *patientbatch.ChunkContext) (interface{}, patientbatch.BatchError) {
		record, ok := item.(PatientRecord)
		if !ok {
			return nil, patientbatch.NewBatchError(patientbatch.ErrCodeProcess, "unexpected item type:%T in chunk:%v", item, chunkCtx.Index)
		}
		for _, p := range positions {
			if p < 0 || p >= FieldCount {
				return nil, patientbatch.NewBatchError(patientbatch.ErrCodeProcess, "field position:%v out of range", p)
			}
			if strings.TrimSpace(record.Field(p)) == "" {
				return nil, patientbatch.NewBatchError(patientbatch.ErrCodeProcess, "field %v of record sourceId:%v is blank, chunk:%v", FieldNames[p], record.SourceID(), chunkCtx.Index)
			}
		}
		return record, nil
	})
}
