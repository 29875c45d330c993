package domain

import "time"

type CertificateStatus string

const (
	StatusActive    CertificateStatus = "ACTIVE"
	StatusRevoked   CertificateStatus = "REVOKED"
	StatusSuspended CertificateStatus = "SUSPENDED"
)

func (s CertificateStatus) Valid() bool {
	switch s {
	case StatusActive, StatusRevoked, StatusSuspended:
		return true
	}
	return false
}

// Protocol constants baked into every canonical payload. Changing any of them
// changes every hash, so they move together with ProtocolVersion.
const (
	ProtocolVersion   = "2.0"
	ProtocolIssuer    = "VERITAS-CERTIFICATE-AUTHORITY"
	ProtocolIntegrity = "SHA512-HMAC"
)

// CertificateRecord is the persisted verification record. It carries no
// personal data: the recipient name and full course name only live inside the
// issued document.
type CertificateRecord struct {
	ID                string
	Hash              string
	CertificateID     string
	SerialNumber      string
	VerificationCode  string
	DigitalSignature  string
	CourseCode        string
	TemplateID        string
	SecuritySeed      string
	IssuedAt          time.Time
	Status            CertificateStatus
	VerificationCount int64
	LastVerified      *time.Time
	CreatedAt         time.Time
}

// IssuedAtMillis is the timestamp that went into the canonical payload,
// the certificate ID and the signature.
func (r CertificateRecord) IssuedAtMillis() int64 {
	return r.IssuedAt.UnixMilli()
}

type CanonicalPayload struct {
	User      string `json:"user"`
	Exam      string `json:"exam"`
	Timestamp int64  `json:"timestamp"`
	Nonce     string `json:"nonce"`
	Version   string `json:"version"`
	Issuer    string `json:"issuer"`
	Integrity string `json:"integrity"`
}

const (
	FeatureGuilloche     = "guillochePattern"
	FeatureBorder        = "securityBorder"
	FeatureRainbow       = "rainbowGradient"
	FeatureMicrotext     = "microtext"
	FeatureFingerprint   = "securityFingerprint"
	FeatureCornerMotifs  = "cornerOrnaments"
	SecurityFeatureCount = 6
)

func SecurityFeatureNames() []string {
	return []string{
		FeatureGuilloche,
		FeatureBorder,
		FeatureRainbow,
		FeatureMicrotext,
		FeatureFingerprint,
		FeatureCornerMotifs,
	}
}

// EmbeddedMetadata travels inside the rendered document. It is untrusted until
// the verifier has recomputed the hash from CanonicalJSON.
type EmbeddedMetadata struct {
	User             string          `json:"user"`
	Exam             string          `json:"exam"`
	Timestamp        int64           `json:"timestamp"`
	Nonce            string          `json:"nonce"`
	Version          string          `json:"version"`
	Issuer           string          `json:"issuer"`
	Integrity        string          `json:"integrity"`
	Hash             string          `json:"hash"`
	CanonicalJSON    string          `json:"canonicalJson"`
	CertificateID    string          `json:"certificateId"`
	SerialNumber     string          `json:"serialNumber"`
	DigitalSignature string          `json:"digitalSignature"`
	SecuritySeed     string          `json:"securitySeed"`
	TemplateID       string          `json:"templateId"`
	SecurityFeatures map[string]bool `json:"securityFeatures"`
	SecurityChecksum string          `json:"securityChecksum"`
}

// CertificateData is everything the renderer needs to lay out one document.
type CertificateData struct {
	StudentName   string
	CourseName    string
	IssuedAt      time.Time
	CertificateID string
	SerialNumber  string
	Hash          string
	SecuritySeed  string
	Metadata      EmbeddedMetadata
}
