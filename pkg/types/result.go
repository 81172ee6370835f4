package types

// ExecutionResult is returned exactly once per mission run.
type ExecutionResult struct {
	Success    bool     `json:"success"`
	Screenshot *string  `json:"screenshot"`
	Logs       []string `json:"logs"`
}

// SequenceResult reports how a sequence ended.
type SequenceResult struct {
	Title    string
	Success  bool
	Attempts int
	Err      error
}
