package http

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"veritas/internal/domain"
	"veritas/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type issueRequest struct {
	StudentName string       `json:"student_name"`
	CourseName  string       `json:"course_name"`
	TemplateID  string       `json:"template_id"`
	Scale       float64      `json:"scale"`
	Assets      *assetsInput `json:"assets,omitempty"`
}

type assetsInput struct {
	LogoBase64       string `json:"logo_base64,omitempty"`
	SignatureBase64  string `json:"signature_base64,omitempty"`
	BackgroundBase64 string `json:"background_base64,omitempty"`
}

type statusResponse struct {
	CertificateID string                   `json:"certificate_id"`
	Status        domain.CertificateStatus `json:"status"`
}

var statusActions = map[string]domain.CertificateStatus{
	"revoke":    domain.StatusRevoked,
	"suspend":   domain.StatusSuspended,
	"reinstate": domain.StatusActive,
}

func (s *Server) handleNoRoute(c *gin.Context) {
	if c.Request.Method == http.MethodPost {
		switch c.Request.URL.Path {
		case "/v1/certificates:verify":
			s.handleVerify(c)
			return
		case "/v1/certificates:verify-security":
			s.handleVerifySecurity(c)
			return
		}
	}
	writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
}

func (s *Server) handleIssue(c *gin.Context) {
	if s.issueUC == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "NOT_CONFIGURED", "issuance is not configured")
		return
	}
	if !s.enforceRateLimit(c, routeCertificatesIssue) {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)

	req, err := parseIssueRequest(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	issued, err := s.issueUC.Execute(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	rec := issued.Record
	s.log.WithFields(logrus.Fields{
		"certificate_id": rec.CertificateID,
		"template_id":    rec.TemplateID,
	}).Info("certificate issued")
	c.Header("X-Certificate-Id", rec.CertificateID)
	c.Header("X-Serial-Number", rec.SerialNumber)
	c.Header("X-Verification-Code", rec.VerificationCode)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, rec.CertificateID))
	c.Data(http.StatusCreated, "application/pdf", issued.PDF)
}

func (s *Server) handleVerify(c *gin.Context) {
	if s.verifyUC == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "NOT_CONFIGURED", "verification is not configured")
		return
	}
	if !s.enforceRateLimit(c, routeCertificatesVerify) {
		return
	}
	doc, err := s.readDocument(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	result, err := s.verifyUC.Execute(c.Request.Context(), doc)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleVerifySecurity(c *gin.Context) {
	if s.securityUC == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "NOT_CONFIGURED", "security verification is not configured")
		return
	}
	if !s.enforceRateLimit(c, routeCertificatesVerifySecurity) {
		return
	}
	doc, err := s.readDocument(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	result, err := s.securityUC.Execute(c.Request.Context(), doc)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleVerifyByID(c *gin.Context) {
	if s.byIDUC == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "NOT_CONFIGURED", "verification is not configured")
		return
	}
	if !s.enforceRateLimit(c, routeCertificatesLookup) {
		return
	}
	result, err := s.byIDUC.Execute(c.Request.Context(), c.Param("certificate_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleAdminStatusAction serves POST /v1/certificates/{id}:{action}.
func (s *Server) handleAdminStatusAction(c *gin.Context) {
	segment := c.Param("certificate_id")
	idx := strings.LastIndex(segment, ":")
	if idx <= 0 {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "unknown action")
		return
	}
	status, ok := statusActions[segment[idx+1:]]
	if !ok {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "unknown action")
		return
	}
	if !s.requireAdmin(c) {
		return
	}
	if s.status == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "NOT_CONFIGURED", "status changes are not configured")
		return
	}
	rec, err := s.status.Transition(c.Request.Context(), segment[:idx], status)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"certificate_id": rec.CertificateID,
		"status":         rec.Status,
	}).Info("certificate status changed")
	c.JSON(http.StatusOK, statusResponse{CertificateID: rec.CertificateID, Status: rec.Status})
}

func (s *Server) requireAdmin(c *gin.Context) bool {
	if s.adminAPIKey == "" {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
		return false
	}
	key := c.GetHeader("X-Admin-Key")
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) != 1 {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin key")
		return false
	}
	return true
}

// readDocument accepts a multipart upload in the "file" field or the raw
// document as the request body.
func (s *Server) readDocument(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, uploadError(err, "file field is required")
		}
		return readFormFile(fh)
	}
	doc, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, uploadError(err, "read body")
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: empty upload", domain.ErrInvalidDocument)
	}
	return doc, nil
}

func parseIssueRequest(c *gin.Context) (usecase.IssueCertificateRequest, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return parseIssueForm(c)
	}
	var body issueRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return usecase.IssueCertificateRequest{}, uploadError(err, "invalid JSON body")
	}
	req := usecase.IssueCertificateRequest{
		StudentName: body.StudentName,
		CourseName:  body.CourseName,
		TemplateID:  body.TemplateID,
		Scale:       body.Scale,
	}
	if body.Assets != nil {
		assets := &domain.UploadedAssets{}
		var err error
		if assets.Logo, err = decodeAsset("logo", body.Assets.LogoBase64); err != nil {
			return req, err
		}
		if assets.Signature, err = decodeAsset("signature", body.Assets.SignatureBase64); err != nil {
			return req, err
		}
		if assets.Background, err = decodeAsset("background", body.Assets.BackgroundBase64); err != nil {
			return req, err
		}
		req.Assets = assets
	}
	return req, nil
}

func parseIssueForm(c *gin.Context) (usecase.IssueCertificateRequest, error) {
	req := usecase.IssueCertificateRequest{
		StudentName: c.PostForm("student_name"),
		CourseName:  c.PostForm("course_name"),
		TemplateID:  c.PostForm("template_id"),
	}
	if raw := strings.TrimSpace(c.PostForm("scale")); raw != "" {
		scale, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("%w: scale must be a number", domain.ErrInvalidInput)
		}
		req.Scale = scale
	}
	assets := &domain.UploadedAssets{}
	for field, dst := range map[string]**domain.Asset{
		"logo":       &assets.Logo,
		"signature":  &assets.Signature,
		"background": &assets.Background,
	} {
		fh, err := c.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return req, uploadError(err, field)
		}
		data, err := readFormFile(fh)
		if err != nil {
			return req, err
		}
		*dst = &domain.Asset{Data: data}
	}
	if assets.Logo != nil || assets.Signature != nil || assets.Background != nil {
		req.Assets = assets
	}
	return req, nil
}

func decodeAsset(name, encoded string) (*domain.Asset, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not valid base64", domain.ErrInvalidInput, name)
	}
	return &domain.Asset{Data: data}, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, uploadError(err, "open upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, uploadError(err, "read upload")
	}
	return data, nil
}

var errPayloadTooLarge = errors.New("payload too large")

func uploadError(err error, msg string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errPayloadTooLarge
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, code, message := http.StatusInternalServerError, "INTERNAL", "internal error"
	switch {
	case errors.Is(err, errPayloadTooLarge):
		status, code, message = http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		status, code, message = http.StatusBadRequest, "INVALID_INPUT", err.Error()
	case errors.Is(err, domain.ErrInvalidDocument):
		status, code, message = http.StatusBadRequest, "INVALID_DOCUMENT", err.Error()
	case errors.Is(err, domain.ErrInvalidAsset):
		status, code, message = http.StatusBadRequest, "INVALID_ASSET", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", "not found"
	case errors.Is(err, domain.ErrAlreadyExists):
		status, code, message = http.StatusConflict, "ALREADY_EXISTS", "already exists"
	case errors.Is(err, domain.ErrConflict):
		status, code, message = http.StatusConflict, "CONFLICT", "certificate status changed concurrently"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrStoreUnavailable):
		status, code, message = http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "certificate store unavailable"
	case errors.Is(err, domain.ErrRecordCorrupt):
		code, message = "RECORD_CORRUPT", "certificate record is corrupt"
	case errors.Is(err, domain.ErrRenderFailed):
		code, message = "RENDER_FAILED", "certificate rendering failed"
	case errors.Is(err, domain.ErrPolicyFailed):
		code, message = "POLICY_FAILED", "security policy evaluation failed"
	}
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("code", code).Error("request failed")
	}
	writeErrorCode(c, status, code, message)
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
