package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// In-memory fakes for the repository, cache, mail and storage ports.
// Each carries an optional forced error to exercise failure paths.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) MarkVerified(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.Verified = true
		u.VerificationTokenHash = ""
	}
	return f.err
}

func (f *fakeUserRepo) SetVerificationToken(ctx context.Context, id uuid.UUID, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.VerificationTokenHash = tokenHash
	}
	return f.err
}

func (f *fakeUserRepo) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.ResetTokenHash = tokenHash
	}
	return f.err
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.PasswordHash = passwordHash
		u.ResetTokenHash = ""
	}
	return f.err
}

func (f *fakeUserRepo) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.AvatarURL = avatarURL
	}
	return f.err
}

func (f *fakeUserRepo) add(user *domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	f.users[user.ID] = &cp
	return user
}

type fakeAuthRepo struct {
	mu         sync.Mutex
	tokens     map[uuid.UUID]*domain.RefreshToken
	revokedAll []uuid.UUID
	err        error
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{tokens: make(map[uuid.UUID]*domain.RefreshToken)}
}

func (f *fakeAuthRepo) StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	token.ID = uuid.New()
	token.CreatedAt = time.Now()
	cp := *token
	f.tokens[token.ID] = &cp
	return nil
}

func (f *fakeAuthRepo) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, t := range f.tokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAuthRepo) RotateRefreshToken(ctx context.Context, oldID uuid.UUID, next *domain.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if t, ok := f.tokens[oldID]; ok {
		t.Revoked = true
	}
	next.ID = uuid.New()
	next.CreatedAt = time.Now()
	cp := *next
	f.tokens[next.ID] = &cp
	return nil
}

func (f *fakeAuthRepo) RevokeRefreshToken(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if t, ok := f.tokens[id]; ok {
		t.Revoked = true
	}
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, t := range f.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	f.revokedAll = append(f.revokedAll, userID)
	return nil
}

func (f *fakeAuthRepo) active(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tokens {
		if t.UserID == userID && !t.Revoked {
			n++
		}
	}
	return n
}

type fakeUserCache struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*domain.User
	getErr error
	setErr error
	delErr error
}

func newFakeUserCache() *fakeUserCache {
	return &fakeUserCache{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserCache) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserCache) Set(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserCache) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserCache) has(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok
}

type fakeContactRepo struct {
	mu        sync.Mutex
	contacts  []domain.Contact
	listCalls int
	err       error
}

func (f *fakeContactRepo) Create(ctx context.Context, contact *domain.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	contact.ID = uuid.New()
	contact.CreatedAt = time.Now()
	contact.UpdatedAt = contact.CreatedAt
	f.contacts = append(f.contacts, *contact)
	return nil
}

func (f *fakeContactRepo) GetByID(ctx context.Context, userID, contactID uuid.UUID) (*domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.contacts {
		if c.ID == contactID && c.UserID == userID {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeContactRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Contact
	for _, c := range f.contacts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeContactRepo) Update(ctx context.Context, contact *domain.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, c := range f.contacts {
		if c.ID == contact.ID && c.UserID == contact.UserID {
			f.contacts[i] = *contact
			return nil
		}
	}
	return nil
}

func (f *fakeContactRepo) Delete(ctx context.Context, userID, contactID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, c := range f.contacts {
		if c.ID == contactID && c.UserID == userID {
			f.contacts = append(f.contacts[:i], f.contacts[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeContactRepo) Search(ctx context.Context, userID uuid.UUID, query string, limit, offset int) ([]domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	q := strings.ToLower(query)
	var out []domain.Contact
	for _, c := range f.contacts {
		if c.UserID != userID {
			continue
		}
		if strings.Contains(strings.ToLower(c.FirstName), q) ||
			strings.Contains(strings.ToLower(c.LastName), q) ||
			strings.Contains(strings.ToLower(c.Email), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContactRepo) FindByBirthdayCodes(ctx context.Context, userID uuid.UUID, codes []int64) ([]domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[int64]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}
	var out []domain.Contact
	for _, c := range f.contacts {
		code := int64(c.Birthday.Month())*100 + int64(c.Birthday.Day())
		if c.UserID == userID && wanted[code] {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeListCache struct {
	mu            sync.Mutex
	entries       map[string][]domain.Contact
	invalidations int
	err           error
	invalidateErr error
}

func newFakeListCache() *fakeListCache {
	return &fakeListCache{entries: make(map[string][]domain.Contact)}
}

func (f *fakeListCache) key(userID uuid.UUID, limit, offset int) string {
	return fmt.Sprintf("%s:%d:%d", userID, limit, offset)
}

func (f *fakeListCache) Get(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Contact, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	contacts, ok := f.entries[f.key(userID, limit, offset)]
	return contacts, ok, nil
}

func (f *fakeListCache) Set(ctx context.Context, userID uuid.UUID, limit, offset int, contacts []domain.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries[f.key(userID, limit, offset)] = contacts
	return nil
}

func (f *fakeListCache) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invalidateErr != nil {
		return f.invalidateErr
	}
	f.invalidations++
	prefix := userID.String() + ":"
	for k := range f.entries {
		if strings.HasPrefix(k, prefix) {
			delete(f.entries, k)
		}
	}
	return nil
}

type sentMail struct {
	kind     string
	to       string
	username string
	link     string
}

type fakeMailer struct {
	sent chan sentMail
	err  error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan sentMail, 8)}
}

func (f *fakeMailer) SendVerification(ctx context.Context, to, username, link string) error {
	if f.err != nil {
		return f.err
	}
	f.sent <- sentMail{kind: "verification", to: to, username: username, link: link}
	return nil
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, to, username, link string) error {
	if f.err != nil {
		return f.err
	}
	f.sent <- sentMail{kind: "reset", to: to, username: username, link: link}
	return nil
}

// wait blocks until a mail is dispatched or the timeout elapses.
func (f *fakeMailer) wait(timeout time.Duration) (sentMail, bool) {
	select {
	case m := <-f.sent:
		return m, true
	case <-time.After(timeout):
		return sentMail{}, false
	}
}

type fakeStorage struct {
	mu          sync.Mutex
	key         string
	contentType string
	size        int64
	err         error
}

func (f *fakeStorage) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.key = key
	f.contentType = contentType
	f.size = size
	return "https://files.test/" + key, nil
}
