package mailer

import (
	"bytes"
	"html/template"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`<div style="font-family: Arial, sans-serif; font-size: 20px; color: #333;">
<h3 style="color: rgb(8, 56, 188)">Please verify your email address</h3>
<hr>
<h4>Hi {{.Name}},</h4>
<p>Please verify your email address so we can know that it's really you.
<br>This link <b>expires in {{.TTL}}</b></p>
<br>
<a href="{{.Link}}" style="color: #fff; padding: 14px; text-decoration: none; background-color: #000;">Verify Email Address</a>
</div>`))

var resetTmpl = template.Must(template.New("reset").Parse(`<p style="font-family: Arial, sans-serif; font-size: 16px; color: #333;">
Password reset link. Please click the link below to reset password.
<br>
<p style="font-size: 18px;"><b>This link expires in {{.TTL}}</b></p>
<br>
<a href="{{.Link}}" style="color: #fff; padding: 10px; text-decoration: none; background-color: #000;">Reset Password</a>
</p>`))

type templateData struct {
	Name string
	Link string
	TTL  string
}

// VerificationEmail builds the mail sent after registration.
func VerificationEmail(to, name, link, ttl string) (Message, error) {
	var buf bytes.Buffer
	if err := verificationTmpl.Execute(&buf, templateData{Name: name, Link: link, TTL: ttl}); err != nil {
		return Message{}, err
	}
	return Message{Kind: KindVerification, To: to, Subject: "Email Verification", HTML: buf.String()}, nil
}

// PasswordResetEmail builds the mail sent for a reset request.
func PasswordResetEmail(to, link, ttl string) (Message, error) {
	var buf bytes.Buffer
	if err := resetTmpl.Execute(&buf, templateData{Link: link, TTL: ttl}); err != nil {
		return Message{}, err
	}
	return Message{Kind: KindPasswordReset, To: to, Subject: "Password Reset", HTML: buf.String()}, nil
}
