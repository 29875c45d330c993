package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewSerialNumber is random and independent of the hash.
func NewSerialNumber(issuedAt time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("serial number: %w", err)
	}
	return fmt.Sprintf("SN-%s-%s", issuedAt.UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(buf))), nil
}

func NewVerificationCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("verification code: %w", err)
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}

// CourseCode keeps ASCII letters and digits, uppercased, at most 20 chars.
func CourseCode(exam string) string {
	var b strings.Builder
	for _, r := range exam {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() == 20 {
				break
			}
		}
	}
	return b.String()
}
