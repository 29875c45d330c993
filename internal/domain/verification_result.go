package domain

type VerificationReason string

const (
	ReasonVerified           VerificationReason = "VERIFIED"
	ReasonNoMetadata         VerificationReason = "NO_METADATA_FOUND"
	ReasonHashMismatch       VerificationReason = "HASH_MISMATCH"
	ReasonNotFoundOrRevoked  VerificationReason = "NOT_FOUND_OR_REVOKED"
	ReasonSignatureMismatch  VerificationReason = "SIGNATURE_MISMATCH"
	ReasonSecurityBelowFloor VerificationReason = "SECURITY_BELOW_THRESHOLD"
)

type CertificateDetails struct {
	CertificateID     string            `json:"certificate_id"`
	CourseCode        string            `json:"course_code"`
	IssueDate         string            `json:"issue_date"`
	SerialNumber      string            `json:"serial_number"`
	Status            CertificateStatus `json:"status"`
	VerificationCount int64             `json:"verification_count"`
}

// HashComparison is surfaced on a hash mismatch. None of it is secret.
type HashComparison struct {
	EmbeddedHash   string `json:"embedded_hash"`
	RecomputedHash string `json:"recomputed_hash"`
	CanonicalJSON  string `json:"canonical_json"`
}

type VerificationResult struct {
	Valid      bool                `json:"valid"`
	Reason     VerificationReason  `json:"reason"`
	Message    string              `json:"message"`
	Details    *CertificateDetails `json:"certificate_details,omitempty"`
	Comparison *HashComparison     `json:"comparison,omitempty"`
}

type SecurityVerificationResult struct {
	VerificationResult
	FeaturesPresent int      `json:"features_present"`
	FeaturesTotal   int      `json:"features_total"`
	MissingFeatures []string `json:"missing_features,omitempty"`
	Score           int      `json:"score"`
	Grade           string   `json:"grade"`
	ChecksumValid   bool     `json:"checksum_valid"`
	PolicyHash      string   `json:"policy_hash,omitempty"`
}
