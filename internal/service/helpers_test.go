package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"bitwise74/finance-api/db"
	"bitwise74/finance-api/internal/model"
	"bitwise74/finance-api/pkg/security"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, time.June, 20, 12, 0, 0, 0, time.UTC)

const testPassword = "Str0ng!Passw0rd"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.New("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, err := conn.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return conn
}

func testHasher() *security.ArgonHash {
	return &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

type sentMail struct {
	To   string
	Code string
	Kind string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendPasswordReset(to, code string) error {
	return m.record(to, code, "reset")
}

func (m *fakeMailer) SendTwoFactorCode(to, code string) error {
	return m.record(to, code, "2fa")
}

func (m *fakeMailer) record(to, code, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, sentMail{To: to, Code: code, Kind: kind})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	require.NotEmpty(t, m.sent, "no mail was sent")
	return m.sent[len(m.sent)-1]
}

func newTestSessions() *Sessions {
	s := NewSessions("test-secret", 24*time.Hour, 10*time.Minute)
	s.Now = func() time.Time { return testNow }
	return s
}

func newTestIdentity(conn *gorm.DB, providers ...Provider) *Identity {
	id := &Identity{
		DB:        conn,
		Hasher:    testHasher(),
		Sessions:  newTestSessions(),
		Issuer:    "FinanceTracker",
		Providers: map[string]Provider{},
	}

	for _, p := range providers {
		id.Providers[p.Name()] = p
	}

	return id
}

func mustRegister(t *testing.T, id *Identity, username, email string) *model.User {
	t.Helper()

	u, err := id.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: testPassword})
	require.NoError(t, err)
	return u
}

func date(y int, m time.Month, d int) model.Date {
	return model.NewDate(y, m, d)
}
