package services

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOTPStore struct {
	values map[string]string
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{values: map[string]string{}}
}

func (s *fakeOTPStore) Set(key, value string, _ time.Duration) error {
	s.values[key] = value
	return nil
}

func (s *fakeOTPStore) Get(key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *fakeOTPStore) Del(key string) error {
	delete(s.values, key)
	return nil
}

type captureSender struct {
	email, code string
}

func (c *captureSender) Send(email, code string) error {
	c.email, c.code = email, code
	return nil
}

func TestGenerateOTP_SixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code[0], byte('1'))
	}
}

func TestOTP_SendAndVerify(t *testing.T) {
	store := newFakeOTPStore()
	sender := &captureSender{}
	svc := NewOTPService(store, sender)

	require.NoError(t, svc.Send("member@party.or.ke"))
	assert.Equal(t, "member@party.or.ke", sender.email)
	require.Len(t, sender.code, 6)

	require.NoError(t, svc.Verify("member@party.or.ke", sender.code))

	// Consumed on success; a second verify reads as expired.
	err := svc.Verify("member@party.or.ke", sender.code)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestOTP_VerifyWrongCode(t *testing.T) {
	store := newFakeOTPStore()
	sender := &captureSender{}
	svc := NewOTPService(store, sender)
	require.NoError(t, svc.Send("member@party.or.ke"))

	wrong := "000000"
	if sender.code == wrong {
		wrong = "999999"
	}
	err := svc.Verify("member@party.or.ke", wrong)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "invalid otp", ve.Message)
}

func TestOTP_MissingInput(t *testing.T) {
	svc := NewOTPService(newFakeOTPStore(), NewLogSender(logrus.New()))

	var ve *ValidationError
	require.ErrorAs(t, svc.Send(""), &ve)
	require.ErrorAs(t, svc.Verify("", ""), &ve)
	require.ErrorAs(t, svc.Verify("member@party.or.ke", ""), &ve)
}
