package db

import "time"

type CertificateModel struct {
	ID                string    `gorm:"type:uuid;primaryKey"`
	Hash              string    `gorm:"type:char(128);uniqueIndex;not null"`
	CertificateID     string    `gorm:"uniqueIndex;not null"`
	SerialNumber      string    `gorm:"uniqueIndex;not null"`
	VerificationCode  string    `gorm:"uniqueIndex;not null"`
	DigitalSignature  string    `gorm:"not null"`
	CourseCode        string    `gorm:"not null"`
	TemplateID        string    `gorm:"not null"`
	SecuritySeed      string    `gorm:"not null"`
	IssuedAt          time.Time `gorm:"not null"`
	Status            string    `gorm:"not null"`
	VerificationCount int64     `gorm:"not null"`
	LastVerified      *time.Time
	CreatedAt         time.Time `gorm:"not null"`
}

func (CertificateModel) TableName() string {
	return "certificates"
}

// TemplateModel is an admin-managed template. Fonts is stored as written by
// the admin tooling and normalized on read.
type TemplateModel struct {
	ID              string `gorm:"primaryKey"`
	Name            string `gorm:"not null"`
	Industry        string
	CertTitle       string
	Subtitle        string
	Authority       string
	PrimaryColor    string
	SecondaryColor  string
	AccentColor     string
	TextColor       string
	BackgroundColor *string
	Fonts           []byte `gorm:"type:jsonb"`
	Logo            []byte `gorm:"type:bytea"`
	Signature       []byte `gorm:"type:bytea"`
	Background      []byte `gorm:"type:bytea"`
	Active          bool   `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (TemplateModel) TableName() string {
	return "certificate_templates"
}
