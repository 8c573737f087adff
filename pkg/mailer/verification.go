package mailer

import (
	"fmt"
	"time"
)

// VerificationCodeMessage renders the login code email.
func VerificationCodeMessage(to, code string, ttl time.Duration) Message {
	minutes := int(ttl.Minutes())
	plain := fmt.Sprintf("Your Dealboard verification code is %s. It expires in %d minutes.", code, minutes)
	html := fmt.Sprintf(
		`<p>Your Dealboard verification code is:</p><p style="font-size:24px;font-weight:bold;letter-spacing:4px">%s</p><p>It expires in %d minutes. If you did not request it you can ignore this email.</p>`,
		code, minutes,
	)
	return Message{
		To:        to,
		Subject:   "Your Dealboard verification code",
		PlainText: plain,
		HTML:      html,
	}
}
