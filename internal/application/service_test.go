package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mindscribe/auth-service/internal/domain"
	"github.com/mindscribe/auth-service/internal/ports"
	"github.com/mindscribe/auth-service/internal/totp"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]domain.User
	byID    map[uuid.UUID]domain.User
	outbox  []ports.OutboxEvent
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]domain.User{}, byID: map[uuid.UUID]domain.User{}}
}

func (f *fakeUserRepo) CreateWithOutboxTx(_ context.Context, params ports.CreateUserTxParams, event ports.OutboxEvent) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[params.Email]; ok {
		return domain.User{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}
	user := domain.User{
		UserID:          uuid.New(),
		FirstName:       params.FirstName,
		LastName:        params.LastName,
		Email:           params.Email,
		PhoneNumber:     params.PhoneNumber,
		PasswordHash:    params.PasswordHash,
		TwoFactorSecret: params.TwoFactorSecret,
		TwoFAEnabled:    true,
		IsActive:        true,
		CreatedAt:       params.RegisteredAtUTC,
		UpdatedAt:       params.RegisteredAtUTC,
	}
	f.byEmail[user.Email] = user
	f.byID[user.UserID] = user
	f.outbox = append(f.outbox, event)
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) setPassword(userID uuid.UUID, hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.byID[userID]
	user.PasswordHash = hash
	f.byID[userID] = user
	f.byEmail[user.Email] = user
}

type fakeCredentialRepo struct {
	users *fakeUserRepo
}

func (f *fakeCredentialRepo) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string, _ time.Time) error {
	if _, ok := f.users.byID[userID]; !ok {
		return domain.ErrNotFound
	}
	f.users.setPassword(userID, passwordHash)
	return nil
}

type resetTokenRow struct {
	tokenHash string
	expiresAt time.Time
	used      bool
}

type fakeRecoveryRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*resetTokenRow
	nowFn  func() time.Time
}

func (f *fakeRecoveryRepo) ReplacePasswordResetToken(_ context.Context, userID uuid.UUID, tokenHash string, _, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[userID] = &resetTokenRow{tokenHash: tokenHash, expiresAt: expiresAt}
	return nil
}

func (f *fakeRecoveryRepo) ConsumePasswordResetToken(_ context.Context, userID uuid.UUID, tokenHash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.tokens[userID]
	if !ok || row.used || row.tokenHash != tokenHash || row.expiresAt.Before(f.nowFn()) {
		return domain.ErrInvalidResetToken
	}
	row.used = true
	return nil
}

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts []domain.LoginAttempt
}

func (f *fakeAttemptRepo) Insert(_ context.Context, attempt domain.LoginAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, attempt)
	return nil
}

func (f *fakeAttemptRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]domain.LoginAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.LoginAttempt
	for _, a := range f.attempts {
		if a.UserID != nil && *a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeJournalRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]domain.JournalEntry
}

func (f *fakeJournalRepo) Create(_ context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.EntryID] = entry
	return entry, nil
}

func (f *fakeJournalRepo) GetByID(_ context.Context, entryID uuid.UUID) (domain.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[entryID]
	if !ok {
		return domain.JournalEntry{}, domain.ErrNotFound
	}
	return entry, nil
}

func (f *fakeJournalRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]domain.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.JournalEntry
	for _, entry := range f.entries {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeJournalRepo) Update(_ context.Context, entry domain.JournalEntry) (domain.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[entry.EntryID]; !ok {
		return domain.JournalEntry{}, domain.ErrNotFound
	}
	f.entries[entry.EntryID] = entry
	return entry, nil
}

func (f *fakeJournalRepo) Delete(_ context.Context, entryID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[entryID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.entries, entryID)
	return nil
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (f *fakeOutboxRepo) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepo) countByType(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

func (f *fakeOutboxRepo) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}
func (f *fakeOutboxRepo) MarkPublished(context.Context, uuid.UUID, string, time.Time) error {
	return nil
}
func (f *fakeOutboxRepo) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}
func (f *fakeOutboxRepo) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

type fakeIdempotencyRepo struct {
	mu       sync.Mutex
	reserved map[string]string
}

func (f *fakeIdempotencyRepo) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hash, ok := f.reserved[key]
	if !ok {
		return nil, nil
	}
	return &ports.IdempotencyRecord{Key: key, RequestHash: hash}, nil
}

func (f *fakeIdempotencyRepo) Reserve(_ context.Context, key, requestHash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reserved[key]; ok {
		return domain.ErrConflict
	}
	f.reserved[key] = requestHash
	return nil
}

func (f *fakeIdempotencyRepo) Complete(context.Context, string, int, []byte, time.Time) error {
	return nil
}

type lockoutEntry struct {
	count       int
	firstFailed time.Time
	lockedUntil *time.Time
}

type fakeLockoutStore struct {
	mu      sync.Mutex
	entries map[string]*lockoutEntry
}

func (f *fakeLockoutStore) Get(_ context.Context, key string) (ports.LockoutState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	if !ok {
		return ports.LockoutState{}, nil
	}
	return ports.LockoutState{FailedCount: entry.count, LockedUntil: entry.lockedUntil}, nil
}

func (f *fakeLockoutStore) RecordFailure(_ context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	if !ok || now.Sub(entry.firstFailed) > lockoutWindow {
		entry = &lockoutEntry{firstFailed: now}
		f.entries[key] = entry
	}
	entry.count++
	if entry.count >= threshold {
		until := now.Add(lockoutWindow)
		entry.lockedUntil = &until
	}
	return ports.LockoutState{FailedCount: entry.count, LockedUntil: entry.lockedUntil}, nil
}

func (f *fakeLockoutStore) Clear(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

type fakeChallengeStore struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]ports.OTPChallenge
}

func (f *fakeChallengeStore) Put(_ context.Context, userID uuid.UUID, challenge ports.OTPChallenge, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.challenges[userID] = challenge
	return nil
}

func (f *fakeChallengeStore) Get(_ context.Context, userID uuid.UUID) (*ports.OTPChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge, ok := f.challenges[userID]
	if !ok {
		return nil, nil
	}
	return &challenge, nil
}

func (f *fakeChallengeStore) Delete(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.challenges, userID)
	return nil
}

// fakeHasher keeps hashes reversible so tests avoid bcrypt cost.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return domain.ErrInvalidCredentials
	}
	return nil
}

type fakeSigner struct{}

func (fakeSigner) Sign(claims ports.AuthClaims) (string, error) {
	return "token:" + claims.UserID.String(), nil
}

func (fakeSigner) ParseAndValidate(token string) (ports.AuthClaims, error) {
	raw, ok := strings.CutPrefix(token, "token:")
	if !ok {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	return ports.AuthClaims{UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type smsCall struct {
	phone string
	code  string
}

type fakeSMS struct {
	mu    sync.Mutex
	calls []smsCall
	fail  bool
}

func (f *fakeSMS) SendOTP(_ context.Context, phoneNumber, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("gateway timeout")
	}
	f.calls = append(f.calls, smsCall{phone: phoneNumber, code: code})
	return nil
}

func (f *fakeSMS) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("no sms dispatched")
	}
	return f.calls[len(f.calls)-1].code
}

type emailCall struct {
	email string
	token string
}

type fakeEmail struct {
	mu    sync.Mutex
	calls []emailCall
}

func (f *fakeEmail) SendPasswordReset(_ context.Context, email, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, emailCall{email: email, token: token})
	return nil
}

func (f *fakeEmail) lastToken(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("no reset email dispatched")
	}
	return f.calls[len(f.calls)-1].token
}

type fixture struct {
	svc      *Service
	users    *fakeUserRepo
	recovery *fakeRecoveryRepo
	attempts *fakeAttemptRepo
	journal  *fakeJournalRepo
	outbox   *fakeOutboxRepo
	lockouts *fakeLockoutStore
	sms      *fakeSMS
	email    *fakeEmail
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:    newFakeUserRepo(),
		attempts: &fakeAttemptRepo{},
		journal:  &fakeJournalRepo{entries: map[uuid.UUID]domain.JournalEntry{}},
		outbox:   &fakeOutboxRepo{},
		lockouts: &fakeLockoutStore{entries: map[string]*lockoutEntry{}},
		sms:      &fakeSMS{},
		email:    &fakeEmail{},
		now:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	f.recovery = &fakeRecoveryRepo{tokens: map[uuid.UUID]*resetTokenRow{}, nowFn: func() time.Time { return f.now }}

	f.svc = NewService(Dependencies{
		Config: Config{
			TOTPIssuer:              "mindscribe",
			FailedLoginThreshold:    5,
			LockoutDuration:         15 * time.Minute,
			LoginRateLimitThreshold: 5,
			LoginRateLimitWindow:    15 * time.Minute,
			TokenTTL:                time.Hour,
			OTPPendingTTL:           10 * time.Minute,
			ResetTokenTTL:           time.Hour,
			IdempotencyTTL:          24 * time.Hour,
		},
		Users:         f.users,
		Credentials:   &fakeCredentialRepo{users: f.users},
		Recovery:      f.recovery,
		LoginAttempts: f.attempts,
		Journal:       f.journal,
		Outbox:        f.outbox,
		Idempotency:   &fakeIdempotencyRepo{reserved: map[string]string{}},
		Lockouts:      f.lockouts,
		Challenges:    &fakeChallengeStore{challenges: map[uuid.UUID]ports.OTPChallenge{}},
		Hasher:        fakeHasher{},
		TokenSigner:   fakeSigner{},
		SMS:           f.sms,
		Email:         f.email,
	})
	f.svc.nowFn = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) register(t *testing.T, email string) uuid.UUID {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       email,
		PhoneNumber: "+15551234567",
		Password:    "Sup3r$ecret",
	}, "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return resp.UserID
}

func (f *fixture) login(email, password, ip string) (LoginResponse, error) {
	return f.svc.Login(context.Background(), LoginRequest{
		Email:     email,
		Password:  password,
		IPAddress: ip,
		UserAgent: "test-agent",
	})
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing name", RegisterRequest{Email: "a@b.com", PhoneNumber: "+15551234567", Password: "Sup3r$ecret"}},
		{"bad email", RegisterRequest{FirstName: "A", LastName: "B", Email: "not-an-email", PhoneNumber: "+15551234567", Password: "Sup3r$ecret"}},
		{"bad phone", RegisterRequest{FirstName: "A", LastName: "B", Email: "a@b.com", PhoneNumber: "0123", Password: "Sup3r$ecret"}},
		{"weak password", RegisterRequest{FirstName: "A", LastName: "B", Email: "a@b.com", PhoneNumber: "+15551234567", Password: "weak"}},
		{"no special char", RegisterRequest{FirstName: "A", LastName: "B", Email: "a@b.com", PhoneNumber: "+15551234567", Password: "Abcdef123"}},
	}
	for _, tc := range cases {
		if _, err := f.svc.Register(context.Background(), tc.req, ""); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: want ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.register(t, "ada@example.com")
	_, err := f.svc.Register(context.Background(), RegisterRequest{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "Ada@Example.com",
		PhoneNumber: "+15551234567",
		Password:    "Sup3r$ecret",
	}, "")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrConflict for duplicate email, got %v", err)
	}
}

func TestRegisterEmitsOutboxEvent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.register(t, "ada@example.com")
	if len(f.users.outbox) != 1 || f.users.outbox[0].EventType != eventUserRegistered {
		t.Fatalf("expected one %s outbox event, got %+v", eventUserRegistered, f.users.outbox)
	}
}

func TestLoginWrongPasswordLocksAtThreshold(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.register(t, "ada@example.com")

	// Spread attempts across clients so only the account lockout is in play.
	for i := 0; i < 4; i++ {
		if _, err := f.login("ada@example.com", "Wrong$Pass1", fmt.Sprintf("10.0.0.%d", i+1)); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: want ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// The failure that engages the lock answers as locked, not as a plain
	// credential rejection.
	if _, err := f.login("ada@example.com", "Wrong$Pass1", "10.0.0.5"); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("threshold-crossing attempt: want ErrAccountLocked, got %v", err)
	}

	// Sixth attempt with the CORRECT password must still be rejected as locked.
	if _, err := f.login("ada@example.com", "Sup3r$ecret", "10.0.0.6"); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("want ErrAccountLocked during lockout, got %v", err)
	}

	// Exactly one lock event, on the failure that engaged the lock.
	if got := f.outbox.countByType(eventAccountLocked); got != 1 {
		t.Fatalf("want 1 %s event, got %d", eventAccountLocked, got)
	}
}

func TestLoginLockExpiresAfterWindow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.register(t, "ada@example.com")

	for i := 0; i < 5; i++ {
		f.login("ada@example.com", "Wrong$Pass1", fmt.Sprintf("10.0.0.%d", i+1))
	}
	if _, err := f.login("ada@example.com", "Sup3r$ecret", "10.0.0.6"); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("want ErrAccountLocked, got %v", err)
	}

	f.advance(16 * time.Minute)
	if _, err := f.login("ada@example.com", "Sup3r$ecret", "10.0.0.7"); err != nil {
		t.Fatalf("login after lock expiry: %v", err)
	}
}

func TestLoginSuccessResetsFailureCounter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.register(t, "ada@example.com")

	for i := 0; i < 4; i++ {
		f.login("ada@example.com", "Wrong$Pass1", fmt.Sprintf("10.0.0.%d", i+1))
	}
	if _, err := f.login("ada@example.com", "Sup3r$ecret", "10.0.0.5"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Counter cleared: four more failures must not lock.
	for i := 0; i < 4; i++ {
		if _, err := f.login("ada@example.com", "Wrong$Pass1", fmt.Sprintf("10.0.1.%d", i+1)); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d after reset: want ErrInvalidCredentials, got %v", i+1, err)
		}
	}
}

func TestLoginUnknownEmailIsIndistinguishable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.register(t, "ada@example.com")

	_, wrongPass := f.login("ada@example.com", "Wrong$Pass1", "10.0.0.1")
	_, unknown := f.login("ghost@example.com", "Wrong$Pass1", "10.0.0.1")
	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) || !errors.Is(unknown, domain.ErrInvalidCredentials) {
		t.Fatalf("both failures must be ErrInvalidCredentials, got %v / %v", wrongPass, unknown)
	}
}

func TestLoginRateLimitPerClient(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.register(t, "ada@example.com")

	for i := 0; i < 5; i++ {
		f.login("ada@example.com", "Sup3r$ecret", "203.0.113.7")
	}
	if _, err := f.login("ada@example.com", "Sup3r$ecret", "203.0.113.7"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited on sixth call, got %v", err)
	}

	// A different client is unaffected.
	if _, err := f.login("ada@example.com", "Sup3r$ecret", "203.0.113.8"); err != nil {
		t.Fatalf("other client should pass: %v", err)
	}
}

func TestLoginSMSFailureIsDependencyError(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.register(t, "ada@example.com")

	f.sms.fail = true
	if _, err := f.login("ada@example.com", "Sup3r$ecret", "10.0.0.1"); !errors.Is(err, domain.ErrDependencyFailed) {
		t.Fatalf("want ErrDependencyFailed, got %v", err)
	}
}

func TestVerifyOTPHappyPath(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	userID := f.register(t, "ada@example.com")

	resp, err := f.login("ada@example.com", "Sup3r$ecret", "10.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.UserID != userID {
		t.Fatalf("login user id mismatch")
	}
	if got := f.outbox.countByType(eventOTPRequired); got != 1 {
		t.Fatalf("want 1 %s event, got %d", eventOTPRequired, got)
	}

	out, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: userID.String(), OTP: f.sms.lastCode(t)})
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if out.Token == "" {
		t.Fatal("expected bearer token")
	}

	// The challenge is consumed; replaying the same code must fail.
	if _, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: userID.String(), OTP: f.sms.lastCode(t)}); !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("want ErrInvalidOTP on replay, got %v", err)
	}
}

func TestVerifyOTPAcceptsAdjacentStep(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	userID := f.register(t, "ada@example.com")

	if _, err := f.login("ada@example.com", "Sup3r$ecret", "10.0.0.1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	user, err := f.users.GetByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	engine := totp.NewEngine("mindscribe")

	// Code from the previous 30-second step still verifies.
	stale, err := engine.Code(user.TwoFactorSecret, f.now.Add(-30*time.Second))
	if err != nil {
		t.Fatalf("derive code: %v", err)
	}
	if _, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: userID.String(), OTP: stale}); err != nil {
		t.Fatalf("adjacent-step code should verify: %v", err)
	}
}

func TestVerifyOTPRejectsTwoStepsDrift(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	userID := f.register(t, "ada@example.com")

	if _, err := f.login("ada@example.com", "Sup3r$ecret", "10.0.0.1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	user, _ := f.users.GetByID(context.Background(), userID)
	engine := totp.NewEngine("mindscribe")
	old, err := engine.Code(user.TwoFactorSecret, f.now.Add(-90*time.Second))
	if err != nil {
		t.Fatalf("derive code: %v", err)
	}
	if _, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: userID.String(), OTP: old}); !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("want ErrInvalidOTP for two-step drift, got %v", err)
	}
}

func TestVerifyOTPExpiredChallenge(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	userID := f.register(t, "ada@example.com")

	if _, err := f.login("ada@example.com", "Sup3r$ecret", "10.0.0.1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	code := f.sms.lastCode(t)

	f.advance(11 * time.Minute)
	if _, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: userID.String(), OTP: code}); !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("want ErrInvalidOTP after pending window, got %v", err)
	}
}

func TestVerifyOTPUnknownUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	if _, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: uuid.NewString(), OTP: "123456"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: "not-a-uuid", OTP: "123456"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput for malformed id, got %v", err)
	}
}

func TestVerifyOTPWithoutLoginFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	userID := f.register(t, "ada@example.com")

	user, _ := f.users.GetByID(context.Background(), userID)
	engine := totp.NewEngine("mindscribe")
	code, _ := engine.Code(user.TwoFactorSecret, f.now)

	// A correct code is worthless without an open challenge.
	if _, err := f.svc.VerifyOTP(context.Background(), VerifyOTPRequest{UserID: userID.String(), OTP: code}); !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("want ErrInvalidOTP without prior login, got %v", err)
	}
}

func TestForgotPasswordIsGenericForUnknownEmail(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.register(t, "ada@example.com")

	known, err := f.svc.RequestPasswordReset(context.Background(), ForgotPasswordRequest{Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("known email: %v", err)
	}
	unknown, err := f.svc.RequestPasswordReset(context.Background(), ForgotPasswordRequest{Email: "ghost@example.com"})
	if err != nil {
		t.Fatalf("unknown email: %v", err)
	}
	if known.Message != unknown.Message {
		t.Fatalf("responses differ: %q vs %q", known.Message, unknown.Message)
	}
	if len(f.email.calls) != 1 {
		t.Fatalf("expected exactly one reset email, got %d", len(f.email.calls))
	}
}

func TestResetPasswordSingleUse(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	userID := f.register(t, "ada@example.com")

	if _, err := f.svc.RequestPasswordReset(context.Background(), ForgotPasswordRequest{Email: "ada@example.com"}); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	token := f.email.lastToken(t)

	if _, err := f.svc.ResetPassword(context.Background(), ResetPasswordRequest{
		UserID: userID.String(), Token: token, NewPassword: "N3w$Password",
	}); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	// Same token again must fail.
	if _, err := f.svc.ResetPassword(context.Background(), ResetPasswordRequest{
		UserID: userID.String(), Token: token, NewPassword: "An0ther$Pass",
	}); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("want ErrInvalidResetToken on reuse, got %v", err)
	}

	// Old password no longer works, new one does.
	if _, err := f.login("ada@example.com", "Sup3r$ecret", "10.0.0.1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password should be rejected, got %v", err)
	}
	if _, err := f.login("ada@example.com", "N3w$Password", "10.0.0.1"); err != nil {
		t.Fatalf("new password login: %v", err)
	}
}

func TestResetPasswordTokenExpiry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	userID := f.register(t, "ada@example.com")

	f.svc.RequestPasswordReset(context.Background(), ForgotPasswordRequest{Email: "ada@example.com"})
	token := f.email.lastToken(t)

	f.advance(61 * time.Minute)
	if _, err := f.svc.ResetPassword(context.Background(), ResetPasswordRequest{
		UserID: userID.String(), Token: token, NewPassword: "N3w$Password",
	}); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("want ErrInvalidResetToken after expiry, got %v", err)
	}
}

func TestResetPasswordReissueInvalidatesOldToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	userID := f.register(t, "ada@example.com")

	f.svc.RequestPasswordReset(context.Background(), ForgotPasswordRequest{Email: "ada@example.com"})
	first := f.email.lastToken(t)
	f.svc.RequestPasswordReset(context.Background(), ForgotPasswordRequest{Email: "ada@example.com"})
	second := f.email.lastToken(t)

	if _, err := f.svc.ResetPassword(context.Background(), ResetPasswordRequest{
		UserID: userID.String(), Token: first, NewPassword: "N3w$Password",
	}); !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("superseded token must fail, got %v", err)
	}
	if _, err := f.svc.ResetPassword(context.Background(), ResetPasswordRequest{
		UserID: userID.String(), Token: second, NewPassword: "N3w$Password",
	}); err != nil {
		t.Fatalf("current token: %v", err)
	}
}

func TestResetPasswordRejectsWeakPassword(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	userID := f.register(t, "ada@example.com")

	f.svc.RequestPasswordReset(context.Background(), ForgotPasswordRequest{Email: "ada@example.com"})
	if _, err := f.svc.ResetPassword(context.Background(), ResetPasswordRequest{
		UserID: userID.String(), Token: f.email.lastToken(t), NewPassword: "weak",
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestJournalOwnershipIsolation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner := f.register(t, "ada@example.com")
	other := f.register(t, "grace@example.com")

	created, err := f.svc.CreateJournalEntry(context.Background(), owner, CreateJournalEntryRequest{Title: "day one", Body: "slept well", Mood: "calm"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.GetJournalEntry(context.Background(), other, created.EntryID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign read must be ErrNotFound, got %v", err)
	}
	if err := f.svc.DeleteJournalEntry(context.Background(), other, created.EntryID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign delete must be ErrNotFound, got %v", err)
	}

	got, err := f.svc.GetJournalEntry(context.Background(), owner, created.EntryID)
	if err != nil || got.Title != "day one" {
		t.Fatalf("owner read: %v %+v", err, got)
	}
}

func TestJournalUpdateAndDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	owner := f.register(t, "ada@example.com")

	created, err := f.svc.CreateJournalEntry(context.Background(), owner, CreateJournalEntryRequest{Title: "draft", Body: "..."})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.svc.UpdateJournalEntry(context.Background(), owner, created.EntryID, UpdateJournalEntryRequest{Title: "final", Body: "done", Mood: "proud"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "final" || updated.Mood != "proud" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if err := f.svc.DeleteJournalEntry(context.Background(), owner, created.EntryID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.GetJournalEntry(context.Background(), owner, created.EntryID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}
