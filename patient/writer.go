package patient

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/chararch/patientbatch"
	"github.com/jmoiron/sqlx"
)

// DefaultTable sink table of patient records
const DefaultTable = "patient"

// SQLWriter appends the records of a chunk to a table inside the chunk transaction.
// It needs a step committing through patientbatch.NewTransactionManager.
type SQLWriter struct {
	table string
	query string
}

// NewSQLWriter writer inserting into table, driverName selects the placeholder style
func NewSQLWriter(driverName string, table string) *SQLWriter {
	if table == "" {
		table = DefaultTable
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", FieldCount), ", ")
	query := fmt.Sprintf("insert into %s(%s) values(%s)", table, strings.Join(FieldNames[:], ", "), placeholders)
	return &SQLWriter{
		table: table,
		query: sqlx.Rebind(sqlx.BindType(driverName), query),
	}
}

func (w *SQLWriter) Write(items []interface{}, chunkCtx *patientbatch.ChunkContext) patientbatch.BatchError {
	tx, ok := chunkCtx.Tx.(*sql.Tx)
	if !ok {
		return patientbatch.NewBatchError(patientbatch.ErrCodeWrite, "chunk:%v has no sql transaction, got:%T", chunkCtx.Index, chunkCtx.Tx)
	}
	stmt, err := tx.Prepare(w.query)
	if err != nil {
		return patientbatch.NewBatchError(patientbatch.ErrCodeWrite, "prepare insert into %v failed, chunk:%v", w.table, chunkCtx.Index, err)
	}
	defer stmt.Close()
	for position, item := range items {
		record, ok := item.(PatientRecord)
		if !ok {
			return patientbatch.NewBatchError(patientbatch.ErrCodeWrite, "item at position:%v of chunk:%v is not a PatientRecord: %T", position, chunkCtx.Index, item)
		}
		args := make([]interface{}, FieldCount)
		for i := range args {
			args[i] = record.Field(i)
		}
		if _, err = stmt.Exec(args...); err != nil {
			return patientbatch.NewBatchError(patientbatch.ErrCodeWrite, "write record at position:%v of chunk:%v into %v failed, sourceId:%v", position, chunkCtx.Index, w.table, record.SourceID(), err)
		}
	}
	return nil
}
