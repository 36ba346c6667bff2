package status

//BatchStatus status of job or step execution
type BatchStatus string

const (
	//STARTING job execution created but not started yet
	STARTING BatchStatus = "STARTING"
	//VALIDATING job parameters are being validated, no resource is opened in this phase
	VALIDATING BatchStatus = "VALIDATING"
	//STARTED job or step have be started and is running
	STARTED BatchStatus = "STARTED"
	//READING step is reading items of the current chunk
	READING BatchStatus = "READING"
	//PROCESSING step is processing items of the current chunk
	PROCESSING BatchStatus = "PROCESSING"
	//WRITING step is writing the current chunk
	WRITING BatchStatus = "WRITING"
	//COMPLETED job or step have finished successfully
	COMPLETED BatchStatus = "COMPLETED"
	//FAILED job or step have failed
	FAILED BatchStatus = "FAILED"
	//UNKNOWN job or step have aborted due to unknown reason
	UNKNOWN BatchStatus = "UNKNOWN"
)

var statuses = map[BatchStatus]int{
	STARTING:   0,
	VALIDATING: 1,
	STARTED:    2,
	READING:    3,
	PROCESSING: 4,
	WRITING:    5,
	COMPLETED:  6,
	FAILED:     7,
	UNKNOWN:    8,
}

// And combines two statuses, the more severe one wins
func (s BatchStatus) And(other BatchStatus) BatchStatus {
	i1, ok1 := statuses[s]
	i2, ok2 := statuses[other]
	if ok1 && ok2 {
		if i1 < i2 {
			return other
		}
		return s
	} else if ok1 {
		return other
	}
	return s
}

// IsTerminal reports whether no further transition is possible from s
func (s BatchStatus) IsTerminal() bool {
	return s == COMPLETED || s == FAILED || s == UNKNOWN
}

// IsRunning reports whether an execution in status s holds resources
func (s BatchStatus) IsRunning() bool {
	switch s {
	case STARTED, READING, PROCESSING, WRITING:
		return true
	}
	return false
}
