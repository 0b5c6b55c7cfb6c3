package result

// Result is the outcome of running one task against one model once.
// Completed is true exactly when Error is nil.
type Result struct {
	TaskName             string   `json:"task_name"`
	ModelID              string   `json:"model_id"`
	ModelName            string   `json:"model_name"`
	RunIndex             int      `json:"run_index"`
	Timestamp            string   `json:"timestamp"`
	Prompt               string   `json:"prompt"`
	ExpectedCapabilities []string `json:"expected_capabilities"`
	Output               string   `json:"output"`
	LatencyMs            int64    `json:"latency_ms"`
	InputTokens          int      `json:"input_tokens"`
	OutputTokens         int      `json:"output_tokens"`
	TotalTokens          int      `json:"total_tokens"`
	CostUSD              float64  `json:"cost_usd"`
	ToolsCalled          []string `json:"tools_called"`
	ToolsSuccessful      int      `json:"tools_successful"`
	ToolsFailed          int      `json:"tools_failed"`
	Error                *string  `json:"error"`
	Completed            bool     `json:"completed"`
	TimeoutExceeded      bool     `json:"timeout_exceeded"`
}

// ErrorMessage returns the error text, or "" for a completed result.
func (r *Result) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// HasError reports whether the result carries a non-empty error message.
// Artifacts written by other tools may hold "" where no error occurred.
func (r *Result) HasError() bool {
	return r.Error != nil && *r.Error != ""
}

// Fail marks the result as failed with msg.
func (r *Result) Fail(msg string) {
	r.Error = &msg
	r.Completed = false
}
