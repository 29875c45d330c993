// Package app wires the certificate use cases from configuration. The
// server, the batch worker and the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"veritas/internal/config"
	"veritas/internal/infra/certmem"
	"veritas/internal/infra/crypto"
	"veritas/internal/infra/db"
	"veritas/internal/infra/metrics"
	"veritas/internal/infra/pdftext"
	"veritas/internal/infra/policyopa"
	"veritas/internal/infra/render"
	"veritas/internal/infra/templates"
	"veritas/internal/infra/vaultclient"
	"veritas/internal/usecase"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Issue      *usecase.IssueCertificate
	Verify     *usecase.VerifyCertificate
	VerifyByID *usecase.VerifyByID
	Security   *usecase.VerifySecurity
	Status     *usecase.StatusService

	Store     *db.Store
	Renderer  *render.Renderer
	Templates *templates.Registry
	Metrics   *metrics.Recorder
	Policy    *policyopa.Engine
}

// Build connects the store, loads the signing secret and the security
// policy, and assembles the use cases. Without POSTGRES_DSN records live in
// memory for the lifetime of the process.
func Build(ctx context.Context, cfg config.Config, log logrus.FieldLogger, reg prometheus.Registerer) (*Services, error) {
	secret, err := LoadSigningSecret(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.PostgresDSN != "" && cfg.MigrateOnStart {
		if err := db.Migrate(ctx, cfg.PostgresDSN, log); err != nil {
			return nil, err
		}
	}
	store, err := db.NewStore(cfg, log)
	if err != nil {
		return nil, err
	}

	var (
		certificates usecase.CertificateRepository
		templateRepo templates.Store
	)
	if store.Enabled() {
		certificates = db.NewCertificateRepository(store.DB)
		templateRepo = db.NewTemplateRepository(store.DB, log)
	} else {
		certificates = certmem.New()
	}

	policy, err := loadPolicy(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"bundle_id":   policy.BundleID(),
		"bundle_hash": policy.BundleHash(),
	}).Info("security policy loaded")

	var recorder *metrics.Recorder
	if reg != nil {
		recorder = metrics.New(reg)
	}

	cryptoSvc := &crypto.Service{}
	registry := templates.NewRegistry(templateRepo, cfg.TemplateCacheTTL(), log)
	renderer := render.NewRenderer(registry, cfg.BaseURL, log)
	extractor := pdftext.New(log)

	svc := &Services{
		Store:     store,
		Renderer:  renderer,
		Templates: registry,
		Metrics:   recorder,
		Policy:    policy,
		Status:    usecase.NewStatusService(certificates),
	}
	var m usecase.Metrics
	if recorder != nil {
		m = recorder
	}
	svc.Issue = &usecase.IssueCertificate{
		Certificates: certificates,
		Crypto:       cryptoSvc,
		Templates:    registry,
		Renderer:     renderer,
		Assets:       render.ImageSniffer{},
		Metrics:      m,
		Secret:       secret,
	}
	svc.Verify = &usecase.VerifyCertificate{
		Certificates:    certificates,
		Crypto:          cryptoSvc,
		Extractor:       extractor,
		Metadata:        renderer.Embedder,
		Metrics:         m,
		Secret:          secret,
		VerifySignature: cfg.VerifySignature,
	}
	svc.VerifyByID = &usecase.VerifyByID{
		Certificates: certificates,
		Crypto:       cryptoSvc,
		Metrics:      m,
	}
	svc.Security = &usecase.VerifySecurity{
		Document:    svc.Verify,
		Policy:      policy,
		MinFeatures: cfg.MinSecurityFeatures,
	}
	return svc, nil
}

func (s *Services) Close() error {
	if s == nil {
		return nil
	}
	return s.Store.Close()
}

// LoadSigningSecret prefers SIGNING_SECRET and falls back to Vault when
// SIGNING_SECRET_VAULT_PATH ("mount/path#field") is set. Production refuses
// to start without one.
func LoadSigningSecret(ctx context.Context, cfg config.Config) ([]byte, error) {
	if cfg.SigningSecret != "" {
		return []byte(cfg.SigningSecret), nil
	}
	if cfg.SigningSecretVaultPath != "" {
		ref, err := vaultclient.ParseSecretRef(cfg.SigningSecretVaultPath)
		if err != nil {
			return nil, err
		}
		secret, err := vaultclient.New(cfg.VaultAddr, cfg.VaultToken, vaultclient.WithNamespace(cfg.VaultNamespace)).Secret(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("load signing secret from vault: %w", err)
		}
		return secret, nil
	}
	if strings.EqualFold(cfg.VeritasEnv, "production") {
		return nil, errors.New("SIGNING_SECRET or SIGNING_SECRET_VAULT_PATH is required in production")
	}
	return []byte(devSigningSecret), nil
}

const devSigningSecret = "veritas-development-secret"

func loadPolicy(ctx context.Context, cfg config.Config) (*policyopa.Engine, error) {
	if cfg.PolicyBundlePath == "" {
		return policyopa.NewDefaultEngine(ctx)
	}
	engine, err := policyopa.NewEngineFromBundlePath(ctx, cfg.PolicyBundlePath, "custom")
	if err != nil {
		return nil, fmt.Errorf("load security policy %s: %w", cfg.PolicyBundlePath, err)
	}
	return engine, nil
}
