package coordinator

// Code is the machine-readable outcome of a generation request.
type Code string

const (
	CodeIssued              Code = "issued"
	CodeAlreadyIssued       Code = "already_issued"
	CodeNotCompleted        Code = "not_completed"
	CodeNotEntitled         Code = "not_entitled"
	CodeGenerationFailed    Code = "generation_failed"
	CodeCoordinationTimeout Code = "coordination_timeout"
)

// Result is shared by every caller coalesced onto the same key. Treat it as read-only.
type Result struct {
	Success        bool   `json:"success"`
	Code           Code   `json:"code"`
	Message        string `json:"message"`
	CredentialID   string `json:"credential_id,omitempty"`
	ArtifactURL    string `json:"artifact_url,omitempty"`
	NewlyGenerated *bool  `json:"newly_generated,omitempty"`
	IsCompleted    *bool  `json:"is_completed,omitempty"`
	Error          string `json:"error,omitempty"`
}

// cacheable results stay in the cache until the TTL passes. Every other outcome is
// dropped as soon as it settles so the next caller starts fresh.
func (r *Result) cacheable() bool {
	return r != nil && r.Success && (r.Code == CodeIssued || r.Code == CodeAlreadyIssued)
}

func boolPtr(v bool) *bool { return &v }

func notEntitled() *Result {
	return &Result{
		Code:    CodeNotEntitled,
		Message: "learner is not entitled to this achievement",
	}
}

func notCompleted() *Result {
	return &Result{
		Success:     true,
		Code:        CodeNotCompleted,
		Message:     "not yet completed",
		IsCompleted: boolPtr(false),
	}
}

func alreadyIssued(credentialID, url string) *Result {
	return &Result{
		Success:        true,
		Code:           CodeAlreadyIssued,
		Message:        "certificate already issued",
		CredentialID:   credentialID,
		ArtifactURL:    url,
		NewlyGenerated: boolPtr(false),
		IsCompleted:    boolPtr(true),
	}
}

func issued(credentialID, url string) *Result {
	return &Result{
		Success:        true,
		Code:           CodeIssued,
		Message:        "certificate issued",
		CredentialID:   credentialID,
		ArtifactURL:    url,
		NewlyGenerated: boolPtr(true),
		IsCompleted:    boolPtr(true),
	}
}

func generationFailed(credentialID string, err error) *Result {
	return &Result{
		Code:         CodeGenerationFailed,
		Message:      "certificate generation failed",
		CredentialID: credentialID,
		IsCompleted:  boolPtr(true),
		Error:        err.Error(),
	}
}

func coordinationTimeout() *Result {
	return &Result{
		Code:    CodeCoordinationTimeout,
		Message: "certificate generation timed out",
		Error:   "in-flight generation exceeded its time bound",
	}
}
