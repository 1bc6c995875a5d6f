package memberauth

import "fmt"

// Subjects for the transactional notifications
const (
	ActivationEmailSubject = "Please Verify Your Email"
	ResetEmailSubject      = "Reset Your Password"
	FactEmailSubject       = "Your Daily AI Fact"
)

// DailyFacts is the rotation pool for the broadcast mail. One entry is picked
// at random per run and sent to every member.
var DailyFacts = []string{
	"The phrase 'artificial intelligence' dates back to a 1956 workshop at Dartmouth College.",
	"IBM's Deep Blue beat the reigning world chess champion in 1997.",
	"A portrait generated by a learning algorithm sold at auction for over four hundred thousand dollars in 2018.",
	"ELIZA, built at MIT in 1966, was the first program to hold a text conversation by imitating a therapist.",
	"Automated bots generate a large share of all traffic on the public internet.",
	"Vision models can flag early signs of disease in medical scans that are easy for people to miss.",
}

// ActivationLink builds the link embedded in the activation email. The token
// is an opaque value, safe to place in a query string.
func ActivationLink(activationURL, token string) string {
	return fmt.Sprintf("%s/activate?token=%s", activationURL, token)
}

// ResetLink points at the frontend reset form with the one-time token
func ResetLink(frontendURL, token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", frontendURL, token)
}

// ActivationEmailBody renders the welcome email with the activation link
func ActivationEmailBody(fullName, activationLink string) string {
	return fmt.Sprintf(`<html>
<body style='font-family: Arial, sans-serif; line-height: 1.6;'>
<h2>Welcome!</h2>
<p>Hi %s,</p>
<p>Thank you for joining. Please click the link below to activate your account:</p>
<p><a href='%s'>Activate Your Account</a></p>
<p>If the link above does not work, please copy and paste this URL into your browser:</p>
<p>%s</p>
<br>
<p>If you did not sign up for an account, you can safely ignore this email.</p>
</body>
</html>`, fullName, activationLink, activationLink)
}

// FactEmailBody renders the daily broadcast mail around a single fact
func FactEmailBody(fullName, fact, frontendURL string) string {
	return fmt.Sprintf(`<html>
<body style='font-family: Arial, sans-serif; line-height: 1.6;'>
<p>Hi %s,</p>
<p>Here is something to spark your curiosity today:</p>
<blockquote style='border-left: 4px solid #8b5cf6; padding-left: 12px; color: #475569;'><i>%s</i></blockquote>
<p><a href='%s'>Visit the club</a></p>
</body>
</html>`, fullName, fact, frontendURL)
}

// ResetEmailBody renders the password reset email. Kept deliberately plain,
// the reset link expires shortly after issuance.
func ResetEmailBody(fullName, resetLink string) string {
	return fmt.Sprintf(`<html>
<body style='font-family: Arial, sans-serif; line-height: 1.6;'>
<p>Hi %s,</p>
<p>You (or someone else) requested a password reset. Click here to reset:</p>
<p><a href='%s'>Reset Your Password</a></p>
<p>If you did not request this, just ignore this email.</p>
</body>
</html>`, fullName, resetLink)
}
