package smtp

import "html/template"

var (
	verificationTmpl = template.Must(template.New("verification").Parse(verificationHTML))
	welcomeTmpl      = template.Must(template.New("welcome").Parse(welcomeHTML))
	resetRequestTmpl = template.Must(template.New("reset_request").Parse(resetRequestHTML))
	resetSuccessTmpl = template.Must(template.New("reset_success").Parse(resetSuccessHTML))
)

const verificationHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="background: linear-gradient(to right, #4CAF50, #45a049); padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">Verify Your Email</h1>
  </div>
  <div style="background-color: #f9f9f9; padding: 20px;">
    <p>Hello {{.Name}},</p>
    <p>Thank you for signing up! Your verification code is:</p>
    <div style="text-align: center; margin: 30px 0;">
      <span style="font-size: 32px; font-weight: bold; letter-spacing: 5px; color: #4CAF50;">{{.Code}}</span>
    </div>
    <p>Enter this code on the verification page to complete your registration.</p>
    <p>This code will expire in 24 hours for security reasons.</p>
    <p>If you didn't create an account with us, please ignore this email.</p>
  </div>
</body>
</html>`

const welcomeHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="background: linear-gradient(to right, #4CAF50, #45a049); padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">Welcome Aboard!</h1>
  </div>
  <div style="background-color: #f9f9f9; padding: 20px;">
    <p>Hello {{.Name}},</p>
    <p>Your email has been verified and your account is ready to use.</p>
    <p>We're glad to have you with us.</p>
  </div>
</body>
</html>`

const resetRequestHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="background: linear-gradient(to right, #4CAF50, #45a049); padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">Password Reset</h1>
  </div>
  <div style="background-color: #f9f9f9; padding: 20px;">
    <p>Hello,</p>
    <p>We received a request to reset your password. If you didn't make this request, please ignore this email.</p>
    <p>To reset your password, click the button below:</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.ResetURL}}" style="background-color: #4CAF50; color: white; padding: 12px 20px; text-decoration: none; border-radius: 5px;">Reset Password</a>
    </div>
    <p>This link will expire in 1 hour for security reasons.</p>
  </div>
</body>
</html>`

const resetSuccessHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="background: linear-gradient(to right, #4CAF50, #45a049); padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">Password Reset Successful</h1>
  </div>
  <div style="background-color: #f9f9f9; padding: 20px;">
    <p>Hello {{.Name}},</p>
    <p>Your password has been successfully reset.</p>
    <p>If you did not perform this change, contact support immediately.</p>
  </div>
</body>
</html>`
