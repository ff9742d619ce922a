package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/domain"
	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/infrastructure/smtp"
	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/pkg/id"
	pkgtoken "github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// Code and token windows are absolute expiries stamped at issuance.
const (
	verificationWindow = 24 * time.Hour
	resetWindow        = 1 * time.Hour
)

// Service is the account lifecycle engine: it owns every state transition of
// an account between unverified, verified and reset-pending.
type Service interface {
	// Signup creates an unverified account, issues a session token and
	// requests a verification email.
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.Account, string, error)
	// VerifyEmail consumes an outstanding verification code exactly once.
	VerifyEmail(ctx context.Context, code string) (*domain.Account, error)
	// Login authenticates by email and password and issues a session token.
	Login(ctx context.Context, req domain.LoginRequest) (*domain.Account, string, error)
	// ForgotPassword issues a time-boxed reset token and emails a reset URL.
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword consumes an outstanding reset token exactly once and
	// installs the new password.
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	// CheckAuth resolves an authenticated account id to its account.
	CheckAuth(ctx context.Context, accountID string) (*domain.Account, error)
}

// accountStore is the slice of the credential store the service needs.
// The Consume* operations must be atomic conditional writes: they re-check
// the secret and its expiry at write time and clear both fields together, so
// a code or token is consumed at most once under concurrency.
type accountStore interface {
	Put(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByVerificationCode(ctx context.Context, code string) (*domain.Account, error)
	GetByResetToken(ctx context.Context, token string) (*domain.Account, error)
	ConsumeVerificationCode(ctx context.Context, accountID, code string, now time.Time) error
	SetResetToken(ctx context.Context, accountID, token string, expiresAt int64) error
	ConsumeResetToken(ctx context.Context, accountID, token, newPasswordHash string, now time.Time) error
	SetLastLogin(ctx context.Context, accountID string, t time.Time) error
}

type tokenSigner interface {
	Sign(accountID string) (string, time.Time, error)
}

type service struct {
	repo         accountStore
	mailer       smtp.Mailer
	signer       tokenSigner
	clientOrigin string
	now          func() time.Time
}

type ServiceDeps struct {
	AccountRepo  accountStore
	Mailer       smtp.Mailer
	TokenSigner  tokenSigner
	ClientOrigin string
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         deps.AccountRepo,
		mailer:       deps.Mailer,
		signer:       deps.TokenSigner,
		clientOrigin: deps.ClientOrigin,
		now:          now,
	}
}

func (s *service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.Account, string, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, "", domain.ErrInvalidInput
	}
	_, err := s.repo.GetByEmail(ctx, req.Email)
	if err == nil {
		return nil, "", domain.ErrDuplicateAccount
	}
	// Only a confirmed miss clears the email for use; a failed lookup must not
	// let a taken email gain a second account.
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	code, err := pkgtoken.NewVerificationCode()
	if err != nil {
		return nil, "", err
	}
	now := s.now().UTC()
	a := &domain.Account{
		AccountID:             id.New(),
		Email:                 req.Email,
		Name:                  req.Name,
		PasswordHash:          string(hash),
		VerificationCode:      code,
		VerificationExpiresAt: now.Add(verificationWindow).Unix(),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, "", err
	}
	token, _, err := s.signer.Sign(a.AccountID)
	if err != nil {
		return nil, "", err
	}
	// The account is already persisted; a failed send surfaces as a server
	// error without rolling the write back.
	if err := s.mailer.SendVerificationEmail(a.Email, a.Name, code); err != nil {
		return nil, "", fmt.Errorf("send verification email: %w", err)
	}
	return a, token, nil
}

func (s *service) VerifyEmail(ctx context.Context, code string) (*domain.Account, error) {
	a, err := s.repo.GetByVerificationCode(ctx, code)
	if errors.Is(err, domain.ErrAccountNotFound) {
		// A consumed code was cleared from its record, so "already used",
		// "expired and purged" and "never issued" all land here.
		return nil, domain.ErrInvalidOrExpiredCode
	}
	if err != nil {
		return nil, err
	}
	now := s.now()
	if a.VerificationExpiresAt <= now.Unix() {
		return nil, domain.ErrInvalidOrExpiredCode
	}
	if err := s.repo.ConsumeVerificationCode(ctx, a.AccountID, code, now); err != nil {
		return nil, err
	}
	a.IsVerified = true
	a.VerificationCode = ""
	a.VerificationExpiresAt = 0
	if err := s.mailer.SendWelcomeEmail(a.Email, a.Name); err != nil {
		return nil, fmt.Errorf("send welcome email: %w", err)
	}
	return a, nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.Account, string, error) {
	a, err := s.repo.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		// Same sentinel as a wrong password so a caller cannot probe which
		// emails are registered.
		return nil, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	now := s.now().UTC()
	if err := s.repo.SetLastLogin(ctx, a.AccountID, now); err != nil {
		return nil, "", err
	}
	a.LastLoginAt = &now
	token, _, err := s.signer.Sign(a.AccountID)
	if err != nil {
		return nil, "", err
	}
	return a, token, nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrAccountNotFound
		}
		return err
	}
	token, err := pkgtoken.NewResetToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(resetWindow).Unix()
	if err := s.repo.SetResetToken(ctx, a.AccountID, token, expiresAt); err != nil {
		return err
	}
	resetURL := s.clientOrigin + "/reset-password/" + token
	if err := s.mailer.SendPasswordResetEmail(a.Email, resetURL); err != nil {
		return fmt.Errorf("send password reset email: %w", err)
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if newPassword == "" {
		return domain.ErrInvalidInput
	}
	a, err := s.repo.GetByResetToken(ctx, resetToken)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.ErrInvalidOrExpiredToken
	}
	if err != nil {
		return err
	}
	now := s.now()
	if a.ResetExpiresAt <= now.Unix() {
		return domain.ErrInvalidOrExpiredToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.ConsumeResetToken(ctx, a.AccountID, resetToken, string(hash), now); err != nil {
		return err
	}
	if err := s.mailer.SendPasswordResetSuccessEmail(a.Email, a.Name); err != nil {
		return fmt.Errorf("send password reset success email: %w", err)
	}
	return nil
}

func (s *service) CheckAuth(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.repo.Get(ctx, accountID)
}
