// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package account

import (
	"fmt"

	"github.com/velora/velora/internal/platform/mail"
)

// passwordChangeEmail carries the confirm and deny links for a staged
// password change.
func passwordChangeEmail(to, firstName, baseURL, token string) mail.Message {
	confirmLink := fmt.Sprintf("%s/users/confirm-password-change?token=%s", baseURL, token)
	denyLink := fmt.Sprintf("%s/users/deny-password-change?token=%s", baseURL, token)
	body := fmt.Sprintf(`
		<html><body>
		<h2>Confirm your password change</h2>
		<p>Hi %s,</p>
		<p>A password change was requested for your account. If this was you, confirm it here:</p>
		<p><a href="%s">Confirm password change</a></p>
		<p>The confirmation link expires in 15 minutes.</p>
		<p>If this was <strong>not</strong> you, deny the request immediately:</p>
		<p><a href="%s">This wasn't me</a></p>
		</body></html>`, firstName, confirmLink, denyLink)

	return mail.Message{
		To:       to,
		Subject:  "Confirm your Velora password change",
		HTMLBody: body,
	}
}

// securityAlertEmail goes out when a staged change is denied: someone who
// knew the current password asked for a change the owner rejected.
func securityAlertEmail(to, firstName string) mail.Message {
	body := fmt.Sprintf(`
		<html><body>
		<h2>Security alert</h2>
		<p>Hi %s,</p>
		<p>A password change request on your account was just denied. The pending change has been discarded and your password is unchanged.</p>
		<p>All active sessions have been logged out as a precaution.</p>
		<p>Because the request was made with your current password, we strongly recommend resetting your password now.</p>
		</body></html>`, firstName)

	return mail.Message{
		To:       to,
		Subject:  "Security alert: password change denied",
		HTMLBody: body,
	}
}
