package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sellerhub/identity-service/internal/core/domain"
	"github.com/sellerhub/identity-service/internal/core/ports"
	"github.com/sellerhub/identity-service/pkg/logger"
)

type registrationFixture struct {
	pending  *stubPendingRepo
	accounts *stubAccountRepo
	notifier *stubNotifier
	throttle *stubThrottle
	clock    *stubClock
	svc      ports.RegistrationService
}

func newRegistrationFixture(t *testing.T) *registrationFixture {
	t.Helper()
	f := &registrationFixture{
		pending:  newStubPendingRepo(),
		accounts: newStubAccountRepo(),
		notifier: &stubNotifier{},
		throttle: &stubThrottle{allow: true},
		clock:    newStubClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)),
	}
	f.svc = NewRegistrationService(
		f.pending, f.accounts, stubHasher{}, stubTokenHasher{},
		f.notifier, f.throttle, stubTxRunner{}, f.clock,
		RegistrationConfig{}, logger.Nop(),
	)
	return f
}

func validRegisterInput() ports.RegisterInput {
	return ports.RegisterInput{
		Email:       "New.Seller@Example.com",
		PhoneNumber: "+14155550111",
		Password:    "hunter2hunter2",
		FirstName:   "Nora",
		LastName:    "Marchand",
	}
}

func TestSubmitStagesRegistration(t *testing.T) {
	f := newRegistrationFixture(t)

	staged, err := f.svc.Submit(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if staged.Email != "new.seller@example.com" {
		t.Fatalf("expected lowercased email, got %q", staged.Email)
	}
	if len(staged.VerificationCode) != 6 || strings.Trim(staged.VerificationCode, "0123456789") != "" {
		t.Fatalf("expected a 6-digit numeric code, got %q", staged.VerificationCode)
	}
	if want := f.clock.Now().Add(5 * time.Minute); !staged.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, staged.ExpiresAt)
	}
	if staged.PasswordHash == "hunter2hunter2" || staged.PasswordHash == "" {
		t.Fatal("expected the password to be hashed before staging")
	}

	sent := f.notifier.all()
	if len(sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sent))
	}
	if sent[0].Kind != ports.NotificationVerificationCode {
		t.Fatalf("unexpected notification kind %q", sent[0].Kind)
	}
	if sent[0].Data["code"] != staged.VerificationCode {
		t.Fatal("notification should carry the verification code")
	}
}

func TestSubmitDuplicateEmail(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, validRegisterInput()); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	in := validRegisterInput()
	in.PhoneNumber = "+14155550199"
	if _, err := f.svc.Submit(ctx, in); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSubmitPhoneTakenByAccount(t *testing.T) {
	f := newRegistrationFixture(t)
	f.accounts.put(&domain.Account{
		ID:          "acc-1",
		Email:       "other@example.com",
		PhoneNumber: "+14155550111",
	})

	if _, err := f.svc.Submit(context.Background(), validRegisterInput()); !errors.Is(err, domain.ErrPhoneTaken) {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}
}

func TestSubmitMissingFields(t *testing.T) {
	f := newRegistrationFixture(t)

	in := validRegisterInput()
	in.Password = ""
	if _, err := f.svc.Submit(context.Background(), in); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSubmitSurvivesNotifierFailure(t *testing.T) {
	f := newRegistrationFixture(t)
	f.notifier.failWith = errStoreDown

	if _, err := f.svc.Submit(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("Submit should not fail on a notification error, got %v", err)
	}
	if f.pending.count() != 1 {
		t.Fatal("expected the registration to be staged despite the send failure")
	}
}

func TestVerifyPromotesToAccount(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	staged, err := f.svc.Submit(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	account, err := f.svc.Verify(ctx, "NEW.SELLER@example.com", staged.VerificationCode)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if account.Status != domain.StatusApproved {
		t.Fatalf("expected approved status, got %q", account.Status)
	}
	if !account.IsEmailVerified || account.EmailVerifiedAt == nil {
		t.Fatal("expected the account to be born email-verified")
	}
	if account.Role != domain.RoleSeller {
		t.Fatalf("expected seller role, got %q", account.Role)
	}
	if account.PasswordHash != staged.PasswordHash {
		t.Fatal("expected the staged password hash to carry over")
	}
	if f.pending.count() != 0 {
		t.Fatal("expected the staged record to be consumed")
	}
}

func TestVerifyWrongCode(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Submit(ctx, validRegisterInput()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := f.svc.Verify(ctx, "new.seller@example.com", "000000"); !errors.Is(err, domain.ErrPendingNotFound) {
		t.Fatalf("expected ErrPendingNotFound, got %v", err)
	}
}

func TestVerifyExpiredCodeConsumesRecord(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	staged, err := f.svc.Submit(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	f.clock.Advance(6 * time.Minute)

	if _, err := f.svc.Verify(ctx, "new.seller@example.com", staged.VerificationCode); !errors.Is(err, domain.ErrVerificationCodeExpired) {
		t.Fatalf("expected ErrVerificationCodeExpired, got %v", err)
	}

	// The expired attempt burned the record; the retry sees nothing.
	if _, err := f.svc.Verify(ctx, "new.seller@example.com", staged.VerificationCode); !errors.Is(err, domain.ErrPendingNotFound) {
		t.Fatalf("expected ErrPendingNotFound on retry, got %v", err)
	}
}

func TestVerifyResolvesToExistingAccount(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	staged, err := f.svc.Submit(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// An earlier, partially-applied promotion left the account behind.
	f.accounts.put(&domain.Account{
		ID:              "acc-existing",
		Email:           staged.Email,
		PhoneNumber:     "+14155550190",
		Status:          domain.StatusApproved,
		IsEmailVerified: true,
	})

	account, err := f.svc.Verify(ctx, staged.Email, staged.VerificationCode)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if account.ID != "acc-existing" {
		t.Fatalf("expected the existing account, got %q", account.ID)
	}
	if f.pending.count() != 0 {
		t.Fatal("expected the staged record to be consumed either way")
	}
}

func TestResendVerificationAlreadyVerified(t *testing.T) {
	f := newRegistrationFixture(t)
	f.accounts.put(&domain.Account{
		ID:              "acc-1",
		Email:           "seller@example.com",
		IsEmailVerified: true,
	})

	if err := f.svc.ResendVerification(context.Background(), "seller@example.com"); !errors.Is(err, domain.ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestResendVerificationThrottled(t *testing.T) {
	f := newRegistrationFixture(t)
	f.throttle.allow = false
	f.accounts.put(&domain.Account{
		ID:    "acc-1",
		Email: "seller@example.com",
	})

	if err := f.svc.ResendVerification(context.Background(), "seller@example.com"); err != nil {
		t.Fatalf("throttled resend should be silent, got %v", err)
	}
	if len(f.notifier.all()) != 0 {
		t.Fatal("expected no notification while throttled")
	}
}

func TestResendVerificationStoresToken(t *testing.T) {
	f := newRegistrationFixture(t)
	f.accounts.put(&domain.Account{
		ID:    "acc-1",
		Email: "seller@example.com",
	})

	if err := f.svc.ResendVerification(context.Background(), "seller@example.com"); err != nil {
		t.Fatalf("ResendVerification: %v", err)
	}

	stored := f.accounts.get("acc-1")
	if stored.VerificationToken == "" || stored.VerificationTokenExpires == nil {
		t.Fatal("expected a fresh verification token on the account")
	}
	sent := f.notifier.all()
	if len(sent) != 1 || sent[0].Data["token"] != stored.VerificationToken {
		t.Fatal("expected the notification to carry the new token")
	}
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	f := newRegistrationFixture(t)

	if err := f.svc.ForgotPassword(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("expected nil for an unknown email, got %v", err)
	}
	if len(f.notifier.all()) != 0 {
		t.Fatal("expected no notification for an unknown email")
	}
}

func TestForgotPasswordStoresHashedToken(t *testing.T) {
	f := newRegistrationFixture(t)
	f.accounts.put(&domain.Account{
		ID:    "acc-1",
		Email: "seller@example.com",
	})

	if err := f.svc.ForgotPassword(context.Background(), "seller@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}

	sent := f.notifier.all()
	if len(sent) != 1 || sent[0].Kind != ports.NotificationPasswordReset {
		t.Fatalf("expected one password-reset notification, got %+v", sent)
	}
	raw := sent[0].Data["token"]
	if raw == "" {
		t.Fatal("expected the raw token in the notification")
	}

	stored := f.accounts.get("acc-1")
	if stored.PasswordResetToken == raw {
		t.Fatal("the stored token must be a hash, not the raw value")
	}
	if stored.PasswordResetToken != (stubTokenHasher{}).Hash(raw) {
		t.Fatal("the stored hash must match the raw token")
	}
	if stored.PasswordResetTokenExpires == nil {
		t.Fatal("expected a reset-token expiry")
	}
	if want := f.clock.Now().Add(time.Hour); !stored.PasswordResetTokenExpires.Equal(want) {
		t.Fatalf("expected reset expiry %v, got %v", want, stored.PasswordResetTokenExpires)
	}
}

func TestResetPasswordHappyPath(t *testing.T) {
	f := newRegistrationFixture(t)
	f.accounts.put(&domain.Account{
		ID:    "acc-1",
		Email: "seller@example.com",
	})
	ctx := context.Background()

	if err := f.svc.ForgotPassword(ctx, "seller@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	raw := f.notifier.all()[0].Data["token"]

	if err := f.svc.ResetPassword(ctx, raw, "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	stored := f.accounts.get("acc-1")
	if stored.PasswordHash != "hashed:brand-new-pass" {
		t.Fatalf("expected the new password hash, got %q", stored.PasswordHash)
	}
	if stored.PasswordResetToken != "" || stored.PasswordResetTokenExpires != nil {
		t.Fatal("expected the reset token to be cleared")
	}
	if stored.PasswordChangedAt == nil {
		t.Fatal("expected PasswordChangedAt to be stamped")
	}

	// One reset notification followed by a password-changed confirmation.
	sent := f.notifier.all()
	if len(sent) != 2 || sent[1].Kind != ports.NotificationPasswordChanged {
		t.Fatalf("expected a password-changed notification, got %+v", sent)
	}

	// The token is single-use.
	if err := f.svc.ResetPassword(ctx, raw, "another-pass"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid on reuse, got %v", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	f := newRegistrationFixture(t)
	f.accounts.put(&domain.Account{
		ID:    "acc-1",
		Email: "seller@example.com",
	})
	ctx := context.Background()

	if err := f.svc.ForgotPassword(ctx, "seller@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	raw := f.notifier.all()[0].Data["token"]

	f.clock.Advance(2 * time.Hour)

	if err := f.svc.ResetPassword(ctx, raw, "brand-new-pass"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
}

func TestResetPasswordUnknownToken(t *testing.T) {
	f := newRegistrationFixture(t)

	if err := f.svc.ResetPassword(context.Background(), "deadbeef", "whatever"); !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
}
