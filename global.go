package patientbatch

import "github.com/chararch/patientbatch/internal/logs"

//log
var logger = logs.NewDefaultLogger()

//SetLogger set a logger instance for the batch engine
func SetLogger(l logs.Logger) {
	if l == nil {
		panic("logger must not be nil")
	}
	logger = l
}

//task pool
const (
	DefaultJobPoolSize = 10
)

var jobPool = newTaskPool(DefaultJobPoolSize)

//SetMaxRunningJobs set max number of jobs running in parallel, size must be positive
func SetMaxRunningJobs(size int) {
	jobPool.SetMaxSize(size)
}

//transaction manager
var txManager TransactionManager = &ResourcelessTxManager{}

//SetTransactionManager register a TransactionManager instance used by chunk steps built afterwards
func SetTransactionManager(txMgr TransactionManager) {
	if txMgr == nil {
		panic("transaction manager must not be nil")
	}
	txManager = txMgr
}

//repository
var repository = NewMemoryRepository()

//SetRepository register the JobRepository keeping job and step executions
func SetRepository(repo JobRepository) {
	if repo == nil {
		panic("repository must not be nil")
	}
	repository = repo
}
