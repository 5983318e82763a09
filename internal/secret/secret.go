// Package secret derives the access secrets embedded in report and digest links.
package secret

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const secretLength = 32

// digestNamespace scopes digest identifiers derived from email addresses.
var digestNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sitescripts:reports:digest"))

// Service computes secrets keyed by a site-wide key.
type Service struct {
	key []byte
}

// New creates a Service using key as the HMAC key.
func New(key string) *Service {
	return &Service{key: []byte(key)}
}

// ReportSecret returns the access secret of a single report.
func (s *Service) ReportSecret(guid string) string {
	return s.sign("report:" + guid)
}

// DigestID returns the stable digest identifier of an email address.
// Addresses are compared case-insensitively.
func DigestID(address string) string {
	normalized := strings.ToLower(strings.TrimSpace(address))
	return uuid.NewSHA1(digestNamespace, []byte(normalized)).String()
}

// DigestSecret returns the secret of a digest for one ISO calendar week.
func (s *Service) DigestSecret(id string, year, week int) string {
	return s.sign(fmt.Sprintf("digest:%s:%d:%d", id, year, week))
}

// DigestSecretAt returns the digest secret for the ISO week containing t.
func (s *Service) DigestSecretAt(id string, t time.Time) string {
	year, week := t.ISOWeek()
	return s.DigestSecret(id, year, week)
}

// VerifyDigestSecret checks secret against the week containing t.
func (s *Service) VerifyDigestSecret(id, secret string, t time.Time) bool {
	want := s.DigestSecretAt(id, t)
	return hmac.Equal([]byte(want), []byte(secret))
}

func (s *Service) sign(msg string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))[:secretLength]
}
