package mpesa

import "testing"

func TestNormalizePhone_AcceptedShapes(t *testing.T) {
	cases := []string{
		"0712345678",
		"+254712345678",
		"254712345678",
		"712345678",
	}
	for _, in := range cases {
		got, err := NormalizePhone(in)
		if err != nil {
			t.Fatalf("NormalizePhone(%q) error: %v", in, err)
		}
		if got != "254712345678" {
			t.Fatalf("NormalizePhone(%q) = %q, want 254712345678", in, got)
		}
	}
}

func TestNormalizePhone_AirtelPrefix(t *testing.T) {
	got, err := NormalizePhone("0110123456")
	if err != nil {
		t.Fatalf("NormalizePhone error: %v", err)
	}
	if got != "254110123456" {
		t.Fatalf("got %q, want 254110123456", got)
	}
}

func TestNormalizePhone_Invalid(t *testing.T) {
	cases := []string{
		"",
		"12345",
		"0812345678",     // unsupported prefix
		"25471234567",    // too short
		"2547123456789",  // too long
		"+255712345678",  // wrong country code
		"07123456789999", // garbage length
	}
	for _, in := range cases {
		if _, err := NormalizePhone(in); err == nil {
			t.Fatalf("NormalizePhone(%q) expected error, got none", in)
		}
	}
}
