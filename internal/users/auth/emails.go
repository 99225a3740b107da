// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package auth

import (
	"fmt"

	"github.com/velora/velora/internal/platform/mail"
)

// verificationEmail carries the six-digit code a new account must echo
// back.
func verificationEmail(to, firstName, code string) mail.Message {
	body := fmt.Sprintf(`
		<html><body>
		<h2>Welcome to Velora, %s!</h2>
		<p>Your verification code is:</p>
		<h1 style="letter-spacing: 4px;">%s</h1>
		<p>This code expires in 10 minutes.</p>
		<p>If you did not create an account, you can ignore this email.</p>
		</body></html>`, firstName, code)

	return mail.Message{
		To:       to,
		Subject:  "Verify your Velora account",
		HTMLBody: body,
	}
}

// passwordResetEmail carries the forgot-password link.
func passwordResetEmail(to, firstName, baseURL, token string) mail.Message {
	link := fmt.Sprintf("%s/auth/reset-password?token=%s", baseURL, token)
	body := fmt.Sprintf(`
		<html><body>
		<h2>Password reset</h2>
		<p>Hi %s,</p>
		<p>We received a request to reset your password. Click the link below to choose a new one:</p>
		<p><a href="%s">Reset my password</a></p>
		<p>This link expires in 15 minutes. If you did not request a reset, you can ignore this email.</p>
		</body></html>`, firstName, link)

	return mail.Message{
		To:       to,
		Subject:  "Reset your Velora password",
		HTMLBody: body,
	}
}
