package http

import (
	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/infrastructure/jwt"
	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo *dynamo.AccountRepo
	Mailer      smtp.Mailer
	JWTProvider *jwtinfra.Provider
}
