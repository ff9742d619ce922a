package account

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Put(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAccountStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) GetByVerificationCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) GetByResetToken(ctx context.Context, token string) (*domain.Account, error) {
	args := m.Called(ctx, token)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) ConsumeVerificationCode(ctx context.Context, accountID, code string, now time.Time) error {
	return m.Called(ctx, accountID, code, now).Error(0)
}
func (m *mockAccountStore) SetResetToken(ctx context.Context, accountID, token string, expiresAt int64) error {
	return m.Called(ctx, accountID, token, expiresAt).Error(0)
}
func (m *mockAccountStore) ConsumeResetToken(ctx context.Context, accountID, token, newPasswordHash string, now time.Time) error {
	return m.Called(ctx, accountID, token, newPasswordHash, now).Error(0)
}
func (m *mockAccountStore) SetLastLogin(ctx context.Context, accountID string, t time.Time) error {
	return m.Called(ctx, accountID, t).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendVerificationEmail(to, name, code string) error {
	return m.Called(to, name, code).Error(0)
}
func (m *mockMailer) SendWelcomeEmail(to, name string) error {
	return m.Called(to, name).Error(0)
}
func (m *mockMailer) SendPasswordResetEmail(to, resetURL string) error {
	return m.Called(to, resetURL).Error(0)
}
func (m *mockMailer) SendPasswordResetSuccessEmail(to, name string) error {
	return m.Called(to, name).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(accountID string) (string, time.Time, error) {
	args := m.Called(accountID)
	return args.String(0), time.Time{}, args.Error(1)
}

// --- builder ---

func newTestService(repo *mockAccountStore, ml *mockMailer, signer *mockSigner, now func() time.Time) Service {
	return NewService(ServiceDeps{
		AccountRepo:  repo,
		Mailer:       ml,
		TokenSigner:  signer,
		ClientOrigin: "http://localhost:5173",
		Now:          now,
	})
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- Signup ---

func TestSignup_HappyPath(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	signer := &mockSigner{}

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrAccountNotFound)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)
	signer.On("Sign", mock.AnythingOfType("string")).Return("jwt-token", nil)
	ml.On("SendVerificationEmail", "a@x.com", "A", mock.AnythingOfType("string")).Return(nil)

	svc := newTestService(repo, ml, signer, func() time.Time { return issued })
	a, token, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email: "a@x.com", Password: "pw1secret", Name: "A",
	})

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.False(t, a.IsVerified)
	assert.Len(t, a.VerificationCode, 6)
	assert.Equal(t, issued.Add(24*time.Hour).Unix(), a.VerificationExpiresAt)
	assert.NotEqual(t, "pw1secret", a.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("pw1secret")))
	repo.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.Account{AccountID: "acc1"}, nil)

	svc := newTestService(repo, nil, nil, nil)
	_, _, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email: "a@x.com", Password: "pw2", Name: "A",
	})

	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSignup_EmptyField(t *testing.T) {
	svc := newTestService(&mockAccountStore{}, nil, nil, nil)
	_, _, err := svc.Signup(context.Background(), domain.SignupRequest{Email: "a@x.com", Name: "A"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSignup_MailerFailure_SurfacesErrorAfterPersist(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}
	signer := &mockSigner{}

	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, domain.ErrAccountNotFound)
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)
	signer.On("Sign", mock.Anything).Return("jwt-token", nil)
	ml.On("SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	svc := newTestService(repo, ml, signer, nil)
	_, _, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email: "a@x.com", Password: "pw1secret", Name: "A",
	})

	// The account write already committed; the failed send still fails the request.
	require.Error(t, err)
	repo.AssertCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSignup_StoreLookupFailure_DoesNotCreateAccount(t *testing.T) {
	repo := &mockAccountStore{}
	storeErr := errors.New("dynamodb: connection reset")
	// The lookup failed, so the email may well be taken; treating the failure
	// as "email free" would let a taken email gain a second account.
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, storeErr)

	svc := newTestService(repo, nil, nil, nil)
	_, _, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email: "a@x.com", Password: "pw1secret", Name: "A",
	})

	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domain.ErrDuplicateAccount)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- VerifyEmail ---

func TestVerifyEmail_HappyPath(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	acct := &domain.Account{
		AccountID:             "acc1",
		Email:                 "a@x.com",
		Name:                  "A",
		VerificationCode:      "123456",
		VerificationExpiresAt: now.Add(time.Hour).Unix(),
	}
	repo.On("GetByVerificationCode", mock.Anything, "123456").Return(acct, nil)
	repo.On("ConsumeVerificationCode", mock.Anything, "acc1", "123456", now).Return(nil)
	ml.On("SendWelcomeEmail", "a@x.com", "A").Return(nil)

	svc := newTestService(repo, ml, nil, func() time.Time { return now })
	a, err := svc.VerifyEmail(context.Background(), "123456")

	require.NoError(t, err)
	assert.True(t, a.IsVerified)
	assert.Empty(t, a.VerificationCode)
	assert.Zero(t, a.VerificationExpiresAt)
	repo.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestVerifyEmail_UnknownOrConsumedCode(t *testing.T) {
	repo := &mockAccountStore{}
	// A consumed code was cleared from its record, so the lookup misses.
	repo.On("GetByVerificationCode", mock.Anything, "123456").Return(nil, domain.ErrAccountNotFound)

	svc := newTestService(repo, nil, nil, nil)
	_, err := svc.VerifyEmail(context.Background(), "123456")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
}

func TestVerifyEmail_StoreLookupFailure(t *testing.T) {
	repo := &mockAccountStore{}
	storeErr := errors.New("dynamodb: connection reset")
	repo.On("GetByVerificationCode", mock.Anything, "123456").Return(nil, storeErr)

	svc := newTestService(repo, nil, nil, nil)
	_, err := svc.VerifyEmail(context.Background(), "123456")

	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
}

func TestVerifyEmail_ExpiredCode(t *testing.T) {
	repo := &mockAccountStore{}

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	acct := &domain.Account{
		AccountID:             "acc1",
		VerificationCode:      "123456",
		VerificationExpiresAt: issued.Add(24 * time.Hour).Unix(),
	}
	repo.On("GetByVerificationCode", mock.Anything, "123456").Return(acct, nil)

	// 25h after issuance: one hour past the window.
	svc := newTestService(repo, nil, nil, func() time.Time { return issued.Add(25 * time.Hour) })
	_, err := svc.VerifyEmail(context.Background(), "123456")

	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
	repo.AssertNotCalled(t, "ConsumeVerificationCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyEmail_LostConsumptionRace(t *testing.T) {
	repo := &mockAccountStore{}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	acct := &domain.Account{
		AccountID:             "acc1",
		VerificationCode:      "123456",
		VerificationExpiresAt: now.Add(time.Hour).Unix(),
	}
	repo.On("GetByVerificationCode", mock.Anything, "123456").Return(acct, nil)
	// Another request consumed the code between the read and the conditional write.
	repo.On("ConsumeVerificationCode", mock.Anything, "acc1", "123456", now).
		Return(domain.ErrInvalidOrExpiredCode)

	svc := newTestService(repo, nil, nil, func() time.Time { return now })
	_, err := svc.VerifyEmail(context.Background(), "123456")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
}

// --- Login ---

func TestLogin_UnknownEmailAndWrongPassword_IdenticalError(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("GetByEmail", mock.Anything, "nobody@x.com").Return(nil, domain.ErrAccountNotFound)
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.Account{
		AccountID:    "acc1",
		PasswordHash: hashOf(t, "right-password"),
	}, nil)

	svc := newTestService(repo, nil, nil, nil)

	_, _, errUnknown := svc.Login(context.Background(), domain.LoginRequest{Email: "nobody@x.com", Password: "whatever"})
	_, _, errWrongPw := svc.Login(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "wrong-password"})

	require.Error(t, errUnknown)
	require.Error(t, errWrongPw)
	assert.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, domain.ErrInvalidCredentials)
	// No enumeration signal: byte-identical messages.
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestLogin_HappyPath(t *testing.T) {
	repo := &mockAccountStore{}
	signer := &mockSigner{}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.Account{
		AccountID:    "acc1",
		Email:        "a@x.com",
		PasswordHash: hashOf(t, "pw1secret"),
	}, nil)
	repo.On("SetLastLogin", mock.Anything, "acc1", now).Return(nil)
	signer.On("Sign", "acc1").Return("jwt-token", nil)

	svc := newTestService(repo, nil, signer, func() time.Time { return now })
	a, token, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "pw1secret"})

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	require.NotNil(t, a.LastLoginAt)
	assert.Equal(t, now, *a.LastLoginAt)
	repo.AssertExpectations(t)
}

func TestLogin_StoreLookupFailure_NotACredentialsError(t *testing.T) {
	repo := &mockAccountStore{}
	storeErr := errors.New("dynamodb: connection reset")
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, storeErr)

	svc := newTestService(repo, nil, nil, nil)
	_, _, err := svc.Login(context.Background(), domain.LoginRequest{Email: "a@x.com", Password: "pw1secret"})

	// An unreachable store is a server failure, not a rejected credential.
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

// --- ForgotPassword ---

func TestForgotPassword_UnknownEmail(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("GetByEmail", mock.Anything, "nobody@x.com").Return(nil, domain.ErrAccountNotFound)

	svc := newTestService(repo, nil, nil, nil)
	err := svc.ForgotPassword(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestForgotPassword_StoreLookupFailure(t *testing.T) {
	repo := &mockAccountStore{}
	storeErr := errors.New("dynamodb: connection reset")
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, storeErr)

	svc := newTestService(repo, nil, nil, nil)
	err := svc.ForgotPassword(context.Background(), "a@x.com")

	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domain.ErrAccountNotFound)
	repo.AssertNotCalled(t, "SetResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestForgotPassword_HappyPath(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.Account{
		AccountID: "acc1", Email: "a@x.com", Name: "A",
	}, nil)

	var issuedToken string
	repo.On("SetResetToken", mock.Anything, "acc1", mock.AnythingOfType("string"), now.Add(time.Hour).Unix()).
		Run(func(args mock.Arguments) { issuedToken = args.String(2) }).
		Return(nil)
	ml.On("SendPasswordResetEmail", "a@x.com", mock.MatchedBy(func(url string) bool {
		return strings.HasPrefix(url, "http://localhost:5173/reset-password/")
	})).Return(nil)

	svc := newTestService(repo, ml, nil, func() time.Time { return now })
	err := svc.ForgotPassword(context.Background(), "a@x.com")

	require.NoError(t, err)
	assert.Len(t, issuedToken, 40)
	repo.AssertExpectations(t)
	ml.AssertExpectations(t)
}

// --- ResetPassword ---

func TestResetPassword_HappyPath(t *testing.T) {
	repo := &mockAccountStore{}
	ml := &mockMailer{}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	acct := &domain.Account{
		AccountID:      "acc1",
		Email:          "a@x.com",
		Name:           "A",
		PasswordHash:   hashOf(t, "old-password"),
		ResetToken:     "tok123",
		ResetExpiresAt: now.Add(30 * time.Minute).Unix(),
	}
	repo.On("GetByResetToken", mock.Anything, "tok123").Return(acct, nil)

	var newHash string
	repo.On("ConsumeResetToken", mock.Anything, "acc1", "tok123", mock.AnythingOfType("string"), now).
		Run(func(args mock.Arguments) { newHash = args.String(3) }).
		Return(nil)
	ml.On("SendPasswordResetSuccessEmail", "a@x.com", "A").Return(nil)

	svc := newTestService(repo, ml, nil, func() time.Time { return now })
	err := svc.ResetPassword(context.Background(), "tok123", "new-password")

	require.NoError(t, err)
	// Old password no longer authenticates against the new hash, the new one does.
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("old-password")))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("new-password")))
	repo.AssertExpectations(t)
}

func TestResetPassword_ExpiredToken_SimulatedClock(t *testing.T) {
	repo := &mockAccountStore{}

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	acct := &domain.Account{
		AccountID:      "acc1",
		ResetToken:     "tok123",
		ResetExpiresAt: issued.Add(time.Hour).Unix(),
	}
	repo.On("GetByResetToken", mock.Anything, "tok123").Return(acct, nil)

	// 61 minutes after issuance: one minute past the 1h window.
	svc := newTestService(repo, nil, nil, func() time.Time { return issued.Add(61 * time.Minute) })
	err := svc.ResetPassword(context.Background(), "tok123", "new-password")

	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
	repo.AssertNotCalled(t, "ConsumeResetToken",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword_ConsumedToken(t *testing.T) {
	repo := &mockAccountStore{}
	// Already-consumed tokens are cleared from the record, so the lookup misses.
	repo.On("GetByResetToken", mock.Anything, "tok123").Return(nil, domain.ErrAccountNotFound)

	svc := newTestService(repo, nil, nil, nil)
	err := svc.ResetPassword(context.Background(), "tok123", "new-password")
	assert.ErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

func TestResetPassword_StoreLookupFailure(t *testing.T) {
	repo := &mockAccountStore{}
	storeErr := errors.New("dynamodb: connection reset")
	repo.On("GetByResetToken", mock.Anything, "tok123").Return(nil, storeErr)

	svc := newTestService(repo, nil, nil, nil)
	err := svc.ResetPassword(context.Background(), "tok123", "new-password")

	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domain.ErrInvalidOrExpiredToken)
}

// --- CheckAuth ---

func TestCheckAuth_NotFound(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrAccountNotFound)

	svc := newTestService(repo, nil, nil, nil)
	_, err := svc.CheckAuth(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestCheckAuth_HappyPath(t *testing.T) {
	repo := &mockAccountStore{}
	repo.On("Get", mock.Anything, "acc1").Return(&domain.Account{AccountID: "acc1", Email: "a@x.com"}, nil)

	svc := newTestService(repo, nil, nil, nil)
	a, err := svc.CheckAuth(context.Background(), "acc1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", a.Email)
}
