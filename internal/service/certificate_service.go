package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CertificateIssuer requests certificate issuance from the external
// certificate service. Called fire-and-forget after a passing
// submission; failures never fail the submission itself.
type CertificateIssuer interface {
	Issue(ctx context.Context, studentID int, examID uuid.UUID, percentage int) (bool, error)
}

// HTTPCertificateIssuer posts issuance requests to the certificate
// service's REST endpoint.
type HTTPCertificateIssuer struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewHTTPCertificateIssuer creates an issuer against the given base URL.
func NewHTTPCertificateIssuer(baseURL string, log zerolog.Logger) *HTTPCertificateIssuer {
	return &HTTPCertificateIssuer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("component", "certificate_issuer").Logger(),
	}
}

type issueRequest struct {
	StudentID  int    `json:"student_id"`
	ExamID     string `json:"exam_id"`
	Percentage int    `json:"percentage"`
}

type issueResponse struct {
	Issued bool   `json:"issued"`
	Reason string `json:"reason,omitempty"`
}

// Issue requests a certificate for a passing result.
func (i *HTTPCertificateIssuer) Issue(ctx context.Context, studentID int, examID uuid.UUID, percentage int) (bool, error) {
	payload, err := json.Marshal(issueRequest{
		StudentID:  studentID,
		ExamID:     examID.String(),
		Percentage: percentage,
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/certificates", bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return false, fmt.Errorf("certificate service returned %d", resp.StatusCode)
	}

	var body issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}

	if !body.Issued {
		i.log.Warn().
			Int("student_id", studentID).
			Str("exam_id", examID.String()).
			Str("reason", body.Reason).
			Msg("Certificate issuance declined")
	}

	return body.Issued, nil
}

// NoopCertificateIssuer is used when no certificate service is
// configured. It never issues anything.
type NoopCertificateIssuer struct{}

// Issue always reports not-issued.
func (NoopCertificateIssuer) Issue(context.Context, int, uuid.UUID, int) (bool, error) {
	return false, nil
}
