package usecase

import (
	"context"
	"fmt"

	"veritas/internal/domain"
)

const DefaultMinSecurityFeatures = 4

// VerifySecurity runs the document check and grades the embedded security
// features. A valid verdict additionally needs the policy's approval.
type VerifySecurity struct {
	Document    *VerifyCertificate
	Policy      SecurityPolicy
	MinFeatures int
}

func (uc *VerifySecurity) Execute(ctx context.Context, doc []byte) (*domain.SecurityVerificationResult, error) {
	check, err := uc.Document.check(ctx, doc)
	if err != nil {
		return nil, err
	}
	out := &domain.SecurityVerificationResult{
		VerificationResult: check.result,
		FeaturesTotal:      domain.SecurityFeatureCount,
		Grade:              "F",
	}
	if check.meta == nil {
		out.MissingFeatures = domain.SecurityFeatureNames()
		metricsOrNoop(uc.Document.Metrics).VerificationCompleted("security", out.Reason)
		return out, nil
	}

	for _, name := range domain.SecurityFeatureNames() {
		if check.meta.SecurityFeatures[name] {
			out.FeaturesPresent++
		} else {
			out.MissingFeatures = append(out.MissingFeatures, name)
		}
	}
	out.ChecksumValid = uc.checksumValid(check)

	minFeatures := uc.MinFeatures
	if minFeatures <= 0 {
		minFeatures = DefaultMinSecurityFeatures
	}
	eval, err := uc.Policy.Evaluate(ctx, domain.SecurityPolicyInput{
		HashValid:       check.result.Reason != domain.ReasonHashMismatch,
		RecordActive:    check.result.Valid,
		ChecksumValid:   out.ChecksumValid,
		FeaturesPresent: out.FeaturesPresent,
		FeaturesTotal:   out.FeaturesTotal,
		MissingFeatures: out.MissingFeatures,
		MinFeatures:     minFeatures,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPolicyFailed, err)
	}
	out.Score = eval.Result.Score
	out.Grade = eval.Result.Grade
	out.PolicyHash = eval.BundleHash
	if out.Valid && !eval.Result.Allow {
		out.Valid = false
		out.Reason = domain.ReasonSecurityBelowFloor
		out.Message = fmt.Sprintf("Security features below threshold: %d of %d present", out.FeaturesPresent, out.FeaturesTotal)
		if !out.ChecksumValid {
			out.Message = "Security checksum does not match the certificate"
		}
	}
	metricsOrNoop(uc.Document.Metrics).VerificationCompleted("security", out.Reason)
	return out, nil
}

// checksumValid recomputes the checksum from the persisted record when one
// was found and from the embedded metadata otherwise.
func (uc *VerifySecurity) checksumValid(check *documentCheck) bool {
	meta := check.meta
	if meta.SecurityChecksum == "" {
		return false
	}
	certID, hash, seed := meta.CertificateID, meta.Hash, meta.SecuritySeed
	if rec := check.record; rec != nil {
		certID, hash, seed = rec.CertificateID, rec.Hash, rec.SecuritySeed
	}
	return uc.Document.Crypto.SecurityChecksum(certID, hash, seed, meta.TemplateID) == meta.SecurityChecksum
}
