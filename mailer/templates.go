package mailer

import (
	"fmt"
	"time"
)

// OTPSubject is the subject of login code emails
const OTPSubject = "Your Login OTP Code - Medical Center"

// OTPMessage builds the login code email
func OTPMessage(to, name, code string, ttl time.Duration) Message {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour one-time login code is: %s\n\nThis code expires in %d minutes. If you did not try to sign in, please contact the Medical Center administrator.\n\nMedical Center",
		name, code, int(ttl.Minutes()),
	)
	return Message{To: to, Subject: OTPSubject, Body: body}
}
