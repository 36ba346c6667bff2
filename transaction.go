package patientbatch

import (
	"database/sql"
)

// TransactionManager used by chunk step to execute chunk process in a transaction.
type TransactionManager interface {
	BeginTx() (tx interface{}, err BatchError)
	Commit(tx interface{}) BatchError
	Rollback(tx interface{}) BatchError
}

// DefaultTxManager default TransactionManager implementation
type DefaultTxManager struct {
	db *sql.DB
}

// NewTransactionManager create a TransactionManager committing chunks in transactions of db, the tx handed to writers is a *sql.Tx
func NewTransactionManager(db *sql.DB) TransactionManager {
	return &DefaultTxManager{
		db: db,
	}
}

// BeginTx begin a transaction
func (tm *DefaultTxManager) BeginTx() (interface{}, BatchError) {
	tx, err := tm.db.Begin()
	if err != nil {
		return nil, NewBatchError(ErrCodeDbFail, "start transaction failed", err)
	}
	return tx, nil
}

// Commit commit a transaction
func (tm *DefaultTxManager) Commit(tx interface{}) BatchError {
	tx1, ok := tx.(*sql.Tx)
	if !ok {
		return NewBatchError(ErrCodeGeneral, "unexpected transaction type:%T", tx)
	}
	err := tx1.Commit()
	if err != nil {
		return NewBatchError(ErrCodeDbFail, "transaction commit failed", err)
	}
	return nil
}

// Rollback rollback a transaction
func (tm *DefaultTxManager) Rollback(tx interface{}) BatchError {
	tx1, ok := tx.(*sql.Tx)
	if !ok {
		return NewBatchError(ErrCodeGeneral, "unexpected transaction type:%T", tx)
	}
	err := tx1.Rollback()
	if err != nil {
		return NewBatchError(ErrCodeDbFail, "transaction rollback failed", err)
	}
	return nil
}

// ResourcelessTxManager TransactionManager for writers that do not take part in a database transaction,
// such writers must buffer a chunk themselves to keep it all-or-none
type ResourcelessTxManager struct {
}

type resourcelessTx struct {
	done bool
}

// BeginTx begin a transaction
func (tm *ResourcelessTxManager) BeginTx() (interface{}, BatchError) {
	return &resourcelessTx{}, nil
}

// Commit commit a transaction
func (tm *ResourcelessTxManager) Commit(tx interface{}) BatchError {
	return tm.complete(tx)
}

// Rollback rollback a transaction
func (tm *ResourcelessTxManager) Rollback(tx interface{}) BatchError {
	return tm.complete(tx)
}

func (tm *ResourcelessTxManager) complete(tx interface{}) BatchError {
	t, ok := tx.(*resourcelessTx)
	if !ok {
		return NewBatchError(ErrCodeGeneral, "unexpected transaction type:%T", tx)
	}
	if t.done {
		return NewBatchError(ErrCodeGeneral, "transaction already completed")
	}
	t.done = true
	return nil
}
