package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sellerhub/identity-service/internal/core/domain"
	"github.com/sellerhub/identity-service/internal/core/ports"
)

// --- account repository stub ---

type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == account.Email {
			return nil, domain.ErrEmailTaken
		}
		if account.PhoneNumber != "" && a.PhoneNumber == account.PhoneNumber {
			return nil, domain.ErrPhoneTaken
		}
	}
	r.accounts[account.ID] = cloneAccount(account)
	return cloneAccount(account), nil
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return cloneAccount(a), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.findBy(func(a *domain.Account) bool { return a.Email == email })
}

func (r *stubAccountRepo) FindByPhone(_ context.Context, phone string) (*domain.Account, error) {
	return r.findBy(func(a *domain.Account) bool { return a.PhoneNumber == phone && phone != "" })
}

func (r *stubAccountRepo) FindByFederatedID(_ context.Context, federatedID string) (*domain.Account, error) {
	return r.findBy(func(a *domain.Account) bool { return a.FederatedID == federatedID && federatedID != "" })
}

func (r *stubAccountRepo) FindByResetTokenHash(_ context.Context, tokenHash string) (*domain.Account, error) {
	return r.findBy(func(a *domain.Account) bool { return a.PasswordResetToken == tokenHash && tokenHash != "" })
}

func (r *stubAccountRepo) findBy(match func(*domain.Account) bool) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if match(a) {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (r *stubAccountRepo) IncrementFailedLogins(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.FailedLoginAttempts++
	return nil
}

func (r *stubAccountRepo) RecordLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.FailedLoginAttempts = 0
	t := at.UTC()
	a.LastLoginAt = &t
	return nil
}

func (r *stubAccountRepo) get(id string) *domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAccount(r.accounts[id])
}

func (r *stubAccountRepo) put(a *domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.ID] = cloneAccount(a)
}

// --- pending repository stub ---

type stubPendingRepo struct {
	mu       sync.Mutex
	pendings map[string]*domain.PendingRegistration
	failWith error
}

func newStubPendingRepo() *stubPendingRepo {
	return &stubPendingRepo{pendings: make(map[string]*domain.PendingRegistration)}
}

func clonePending(p *domain.PendingRegistration) *domain.PendingRegistration {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (r *stubPendingRepo) Create(_ context.Context, p *domain.PendingRegistration) (*domain.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.pendings {
		if existing.Email == p.Email {
			return nil, domain.ErrEmailTaken
		}
		if existing.PhoneNumber == p.PhoneNumber {
			return nil, domain.ErrPhoneTaken
		}
	}
	r.pendings[p.ID] = clonePending(p)
	return clonePending(p), nil
}

func (r *stubPendingRepo) FindByEmail(_ context.Context, email string) (*domain.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pendings {
		if p.Email == email {
			return clonePending(p), nil
		}
	}
	return nil, domain.ErrPendingNotFound
}

func (r *stubPendingRepo) FindByEmailAndCode(_ context.Context, email, code string) (*domain.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pendings {
		if p.Email == email && p.VerificationCode == code {
			return clonePending(p), nil
		}
	}
	return nil, domain.ErrPendingNotFound
}

func (r *stubPendingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pendings, id)
	return nil
}

func (r *stubPendingRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	if r.failWith != nil {
		return 0, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.pendings {
		if now.After(p.ExpiresAt) {
			delete(r.pendings, id)
			n++
		}
	}
	return n, nil
}

func (r *stubPendingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pendings)
}

// --- token repository stub ---

type stubTokenRepo struct {
	mu       sync.Mutex
	records  map[string]*domain.RefreshTokenRecord
	failWith error
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{records: make(map[string]*domain.RefreshTokenRecord)}
}

func cloneRecord(rec *domain.RefreshTokenRecord) *domain.RefreshTokenRecord {
	if rec == nil {
		return nil
	}
	clone := *rec
	return &clone
}

func (r *stubTokenRepo) Create(_ context.Context, record *domain.RefreshTokenRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = cloneRecord(record)
	return nil
}

func (r *stubTokenRepo) FindByTokenAndAccount(_ context.Context, token, accountID string) (*domain.RefreshTokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Token == token && rec.AccountID == accountID {
			return cloneRecord(rec), nil
		}
	}
	return nil, domain.ErrInvalidRefreshToken
}

func (r *stubTokenRepo) Revoke(_ context.Context, id string, at time.Time, replacedBy string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.IsRevoked {
		return false, nil
	}
	rec.IsRevoked = true
	t := at.UTC()
	rec.RevokedAt = &t
	rec.ReplacedByToken = replacedBy
	return true, nil
}

func (r *stubTokenRepo) RevokeAllForAccount(_ context.Context, accountID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.AccountID == accountID && !rec.IsRevoked {
			rec.IsRevoked = true
			t := at.UTC()
			rec.RevokedAt = &t
		}
	}
	return nil
}

func (r *stubTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	if r.failWith != nil {
		return 0, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rec := range r.records {
		if now.After(rec.ExpiresAt) {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}

func (r *stubTokenRepo) live(accountID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.AccountID == accountID && !rec.IsRevoked {
			n++
		}
	}
	return n
}

func (r *stubTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// --- collaborators ---

type stubTxRunner struct{}

func (stubTxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// stubHasher is a fast stand-in for argon2; the real hasher has its own tests.
type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (stubHasher) Verify(password, encodedHash string) (bool, error) {
	return encodedHash == "hashed:"+password, nil
}

type stubTokenHasher struct{}

func (stubTokenHasher) Hash(raw string) string { return "h(" + raw + ")" }

type sentNotification struct {
	To   string
	Kind ports.NotificationKind
	Data map[string]string
}

type stubNotifier struct {
	mu       sync.Mutex
	sent     []sentNotification
	failWith error
}

func (n *stubNotifier) Send(_ context.Context, to string, kind ports.NotificationKind, data map[string]string) error {
	if n.failWith != nil {
		return n.failWith
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{To: to, Kind: kind, Data: data})
	return nil
}

func (n *stubNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentNotification, len(n.sent))
	copy(out, n.sent)
	return out
}

type stubThrottle struct {
	allow bool
	err   error
}

func (t *stubThrottle) Allow(context.Context, string, ports.NotificationKind) (bool, error) {
	return t.allow, t.err
}

// stubClock is a settable clock.
type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStubClock(t time.Time) *stubClock { return &stubClock{now: t} }

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errStoreDown = errors.New("store unavailable")
