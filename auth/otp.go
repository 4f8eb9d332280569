package auth

import (
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
)

// OTPGenerator produces single use six digit login codes. Each login gets a
// fresh secret so the code is the first HOTP value of that secret.
type OTPGenerator struct {
	issuer string
}

// NewOTPGenerator creates an OTPGenerator
func NewOTPGenerator(issuer string) *OTPGenerator {
	return &OTPGenerator{issuer: issuer}
}

// Generate returns a new secret and the code derived from it
func (g *OTPGenerator) Generate(account string) (secret, code string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      g.issuer,
		AccountName: account,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return "", "", err
	}

	code, err = hotp.GenerateCodeCustom(key.Secret(), 0, hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), code, nil
}

// Validate reports whether code was derived from secret
func (g *OTPGenerator) Validate(code, secret string) bool {
	return hotp.Validate(code, 0, secret)
}
