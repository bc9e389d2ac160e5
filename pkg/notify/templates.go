package notify

import (
	"fmt"
	"html"

	"applicant-api-io/api/pkg/models"
)

const emailStyle = `font-family: Arial, sans-serif; font-size: 14px;`

func OTPMessage(code string, validMinutes int) string {
	return fmt.Sprintf("Your verification code is %s. It will expire in %d minutes.", code, validMinutes)
}

// ReviewSMS is the text sent to an applicant once their application is
// decided.
func ReviewSMS(name, applicationNumber string, status models.ApplicationStatus) string {
	if status == models.ApplicationStatusApproved {
		return fmt.Sprintf("Congratulations %s! Your application (%s) has been approved.", name, applicationNumber)
	}
	return fmt.Sprintf("Dear %s, Your application (%s) has been rejected. Please contact admin for more details.", name, applicationNumber)
}

func ReviewEmail(name, applicationNumber string, status models.ApplicationStatus, reason string) (subject, body string) {
	name = html.EscapeString(name)
	if status == models.ApplicationStatusApproved {
		subject = "Your application has been approved"
		body = fmt.Sprintf(`<body style="%s"><p>Dear %s,</p><p>Congratulations! Your application <b>%s</b> has been approved.</p><p>Please sign in to complete the remaining documents.</p><p>Best regards,</p><p>The Recruitment Team</p></body>`,
			emailStyle, name, applicationNumber)
		return
	}
	subject = "Update on your application"
	extra := ""
	if reason != "" {
		extra = fmt.Sprintf("<p>Reason: %s</p>", html.EscapeString(reason))
	}
	body = fmt.Sprintf(`<body style="%s"><p>Dear %s,</p><p>Your application <b>%s</b> has been rejected.</p>%s<p>Please contact admin for more details.</p><p>Best regards,</p><p>The Recruitment Team</p></body>`,
		emailStyle, name, applicationNumber, extra)
	return
}

func AdminVerifyEmail(name, link string) (subject, body string) {
	subject = "Verify your admin email"
	body = fmt.Sprintf(`<body style="%s"><p>Dear %s,</p><p>Please click the following link to verify your email address:</p><p><a href="%s" style="color: #0B6E4F; text-decoration: none;">%s</a></p><p>The link is valid for 24 hours.</p><p>Best regards,</p><p>The Recruitment Team</p></body>`,
		emailStyle, html.EscapeString(name), link, link)
	return
}

func AdminResetEmail(name, link string) (subject, body string) {
	subject = "Admin password reset request"
	body = fmt.Sprintf(`<body style="%s"><p>Dear %s,</p><p>We received a request to reset your admin password. To reset it, click the link below:</p><p><a href="%s" style="color: #0B6E4F; text-decoration: none;">Reset Password</a></p><p>The link is valid for 1 hour. If you did not request a reset, ignore this message.</p><p>Best regards,</p><p>The Recruitment Team</p></body>`,
		emailStyle, html.EscapeString(name), link)
	return
}
