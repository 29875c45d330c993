package domain

type SecurityPolicyInput struct {
	HashValid       bool     `json:"hash_valid"`
	RecordActive    bool     `json:"record_active"`
	ChecksumValid   bool     `json:"checksum_valid"`
	FeaturesPresent int      `json:"features_present"`
	FeaturesTotal   int      `json:"features_total"`
	MissingFeatures []string `json:"missing_features"`
	MinFeatures     int      `json:"min_features"`
}

type PolicyDeny struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type SecurityPolicyResult struct {
	Allow bool         `json:"allow"`
	Score int          `json:"score"`
	Grade string       `json:"grade"`
	Deny  []PolicyDeny `json:"deny,omitempty"`
}

type SecurityPolicyEvaluation struct {
	BundleHash string               `json:"bundle_hash"`
	Result     SecurityPolicyResult `json:"result"`
}
