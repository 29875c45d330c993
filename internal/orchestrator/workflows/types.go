package workflows

const (
	QueryProgress      = "progress"
	DefaultConcurrency = 8
	MaxBatchEntries    = 5000
)

type BatchEntry struct {
	StudentName string
	CourseName  string
	TemplateID  string
	Scale       float64
}

type BatchInput struct {
	BatchID string
	// TemplateID applies to entries that leave theirs empty.
	TemplateID  string
	Entries     []BatchEntry
	Concurrency int
}

type IssuedEntry struct {
	Index            int
	StudentName      string
	CertificateID    string
	SerialNumber     string
	VerificationCode string
	Path             string
}

type FailedEntry struct {
	Index       int
	StudentName string
	Reason      string
	Retryable   bool
}

type BatchResult struct {
	BatchID string
	Issued  []IssuedEntry
	Failed  []FailedEntry
}

type Progress struct {
	Total     int
	Completed int
	Failed    int
}

func WorkflowID(batchID string) string {
	return "certificate-batch:" + batchID
}
