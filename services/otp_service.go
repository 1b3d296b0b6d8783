package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	otpKeyPrefix = "otp:"
	otpTTL       = 5 * time.Minute
)

// OTPStore is a keyed store with TTL eviction; Redis in production.
type OTPStore interface {
	Set(key, value string, ttl time.Duration) error
	Get(key string) (string, bool, error)
	Del(key string) error
}

// OTPSender delivers the code to the user. Email delivery is out of scope, so
// the default sender only logs.
type OTPSender interface {
	Send(email, code string) error
}

type logSender struct {
	log *logrus.Logger
}

func NewLogSender(log *logrus.Logger) OTPSender {
	return &logSender{log: log}
}

func (s *logSender) Send(email, code string) error {
	s.log.WithField("email", email).Info("OTP issued: " + code)
	return nil
}

type OTPService struct {
	store  OTPStore
	sender OTPSender
}

func NewOTPService(store OTPStore, sender OTPSender) *OTPService {
	return &OTPService{store: store, sender: sender}
}

// Send issues a fresh 6-digit code with a 5 minute TTL, replacing any
// outstanding code for the address.
func (s *OTPService) Send(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Message: "email required"}
	}

	code, err := GenerateOTP()
	if err != nil {
		return fmt.Errorf("generating otp: %w", err)
	}
	if err := s.store.Set(otpKeyPrefix+email, code, otpTTL); err != nil {
		return fmt.Errorf("storing otp: %w", err)
	}
	return s.sender.Send(email, code)
}

// Verify checks the code and consumes it on success. Expiry is enforced by the
// store's TTL; a missing key reads as expired.
func (s *OTPService) Verify(email, code string) error {
	email = strings.TrimSpace(email)
	if email == "" || code == "" {
		return &ValidationError{Message: "email and otp required"}
	}

	stored, ok, err := s.store.Get(otpKeyPrefix + email)
	if err != nil {
		return fmt.Errorf("reading otp: %w", err)
	}
	if !ok {
		return &ValidationError{Message: "no otp found or otp expired"}
	}
	if stored != code {
		return &ValidationError{Message: "invalid otp"}
	}
	return s.store.Del(otpKeyPrefix + email)
}

// GenerateOTP returns a random 6-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
