package email

import "fmt"

// VerificationMessage builds the mail sent after signup. The link carries the
// one-time token consumed by the verify-email endpoint.
func VerificationMessage(to, baseURL, token string) Message {
	link := fmt.Sprintf("%s/api/auth/verify-email?token=%s", baseURL, token)
	body := fmt.Sprintf(
		"Welcome!\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nIf you did not create this account, you can ignore this message.\n",
		link,
	)
	return Message{
		To:      []string{to},
		Subject: "Verify your email address",
		Body:    body,
	}
}

// ContactNotification builds the internal notification for a new contact
// form submission.
func ContactNotification(to, name, fromEmail, subject, body string) Message {
	text := fmt.Sprintf(
		"New contact form submission\n\nName: %s\nEmail: %s\nSubject: %s\n\n%s\n",
		name, fromEmail, subject, body,
	)
	return Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Contact form: %s", subject),
		Body:    text,
	}
}
