package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/events"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

type mockAccountRepository struct {
	accounts    map[string]*Account
	returnError error
}

func newMockAccountRepository() *mockAccountRepository {
	return &mockAccountRepository{accounts: map[string]*Account{}}
}

func (m *mockAccountRepository) FindByUsernameOrEmail(identifier string) (*Account, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	if a, ok := m.accounts[identifier]; ok {
		copied := *a
		return &copied, nil
	}
	for _, a := range m.accounts {
		if a.Email == identifier {
			copied := *a
			return &copied, nil
		}
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockAccountRepository) add(a *Account) {
	m.accounts[a.Username] = a
}

type mockAttemptsRepository struct {
	attempts map[string]int
	locked   map[string]bool
	known    map[string]bool
	resets   int
}

func newMockAttemptsRepository() *mockAttemptsRepository {
	return &mockAttemptsRepository{
		attempts: map[string]int{},
		locked:   map[string]bool{},
		known:    map[string]bool{},
	}
}

func (m *mockAttemptsRepository) IncrementLoginAttempts(username string) (int, error) {
	if !m.known[username] {
		return -1, nil
	}
	m.attempts[username]++
	return m.attempts[username], nil
}

func (m *mockAttemptsRepository) GetLoginAttempts(username string) (int, error) {
	if !m.known[username] {
		return -1, nil
	}
	return m.attempts[username], nil
}

func (m *mockAttemptsRepository) LockAccount(username string) (bool, error) {
	if m.locked[username] {
		return false, nil
	}
	m.locked[username] = true
	return true, nil
}

func (m *mockAttemptsRepository) ResetLoginAttempts(username string) error {
	m.resets++
	m.attempts[username] = 0
	return nil
}

type mockPermissionRepository struct {
	granted     map[string][]Permission
	returnError error
}

func newMockPermissionRepository() *mockPermissionRepository {
	return &mockPermissionRepository{granted: map[string][]Permission{}}
}

func (m *mockPermissionRepository) FindGrantedPermissions(username string) ([]Permission, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	return m.granted[username], nil
}

type stubIssuer struct {
	lastAuthorities []string
	encodeErr       error
}

func (s *stubIssuer) Encode(username string, authorities []string, validity time.Duration) (string, error) {
	if s.encodeErr != nil {
		return "", s.encodeErr
	}
	s.lastAuthorities = authorities
	return "credential-for-" + username, nil
}

func (s *stubIssuer) ValidateToken(tokenString string) (*Claims, error) {
	return nil, internal.ErrInvalidToken
}

type capturePublisher struct {
	events []*events.LoginEvent
	err    error
}

func (c *capturePublisher) PublishSync(ctx context.Context, event events.Event) error {
	if le, ok := event.(*events.LoginEvent); ok {
		c.events = append(c.events, le)
	}
	return c.err
}

var _ = ginkgo.Describe("Login Service", func() {
	var (
		repo      *mockAccountRepository
		attempts  *mockAttemptsRepository
		perms     *mockPermissionRepository
		issuer    *stubIssuer
		publisher *capturePublisher
		service   *Service
	)

	testLogger := slog.Default()
	passwordHash, _ := bcrypt.GenerateFromPassword([]byte("Sup3rSecret"), bcrypt.MinCost)

	newAccount := func(username string) *Account {
		return &Account{
			ID:                    1,
			Username:              username,
			Email:                 username + "@example.com",
			PasswordHash:          string(passwordHash),
			Enabled:               true,
			AccountNonExpired:     true,
			AccountNonLocked:      true,
			CredentialsNonExpired: true,
		}
	}

	ginkgo.BeforeEach(func() {
		repo = newMockAccountRepository()
		attempts = newMockAttemptsRepository()
		perms = newMockPermissionRepository()
		issuer = &stubIssuer{}
		publisher = &capturePublisher{}

		guard := NewLoginAttemptGuard(attempts, 3, testLogger)
		aggregator := NewPermissionAggregator(perms)
		service = NewService(repo, guard, aggregator, issuer, publisher, time.Hour, testLogger)
	})

	ginkgo.Describe("successful login", func() {
		ginkgo.BeforeEach(func() {
			repo.add(newAccount("alice"))
			attempts.known["alice"] = true
			perms.granted["alice"] = []Permission{{Resource: "users", Action: "manage"}}
		})

		ginkgo.It("returns a credential and a logged status", func() {
			status, err := service.Login(LoginDTO{Username: "alice", Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(status.Logged).To(gomega.BeTrue())
			gomega.Expect(status.Token).To(gomega.Equal("credential-for-alice"))
		})

		ginkgo.It("publishes exactly one successful login event", func() {
			_, err := service.Login(LoginDTO{Username: "alice", Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(publisher.events).To(gomega.HaveLen(1))
			gomega.Expect(publisher.events[0].Username).To(gomega.Equal("alice"))
			gomega.Expect(publisher.events[0].LoggedIn).To(gomega.BeTrue())
		})

		ginkgo.It("resolves the account by email too", func() {
			status, err := service.Login(LoginDTO{Username: "alice@example.com", Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(status.Logged).To(gomega.BeTrue())
			gomega.Expect(status.Username).To(gomega.Equal("alice"))
		})

		ginkgo.It("normalizes the identifier before the lookup", func() {
			status, err := service.Login(LoginDTO{Username: "  Alice ", Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(status.Logged).To(gomega.BeTrue())
		})

		ginkgo.It("clears accumulated failed attempts", func() {
			attempts.attempts["alice"] = 2
			_, err := service.Login(LoginDTO{Username: "alice", Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(attempts.attempts["alice"]).To(gomega.Equal(0))
		})

		ginkgo.It("does not write a reset when the counter is already zero", func() {
			_, err := service.Login(LoginDTO{Username: "alice", Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(attempts.resets).To(gomega.Equal(0))
		})

		ginkgo.It("embeds freshly aggregated authorities in the credential", func() {
			perms.granted["alice"] = []Permission{
				{Resource: "roles", Action: "manage"},
				{Resource: "users", Action: "manage"},
				{Resource: "users", Action: "manage"},
			}
			_, err := service.Login(LoginDTO{Username: "alice", Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(issuer.lastAuthorities).To(gomega.Equal([]string{"roles:manage", "users:manage"}))
		})

		ginkgo.It("still reports success when the event publisher fails", func() {
			publisher.err = context.DeadlineExceeded
			status, err := service.Login(LoginDTO{Username: "alice", Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(status.Logged).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("failed login", func() {
		ginkgo.BeforeEach(func() {
			repo.add(newAccount("alice"))
			attempts.known["alice"] = true
		})

		ginkgo.It("reports a failed status for a wrong password, without an error", func() {
			status, err := service.Login(LoginDTO{Username: "alice", Password: "wrong"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(status.Logged).To(gomega.BeFalse())
			gomega.Expect(status.Token).To(gomega.BeEmpty())
		})

		ginkgo.It("reports the same failed status for an unknown user", func() {
			status, err := service.Login(LoginDTO{Username: "nobody", Password: "whatever"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(status.Logged).To(gomega.BeFalse())
			gomega.Expect(status.Token).To(gomega.BeEmpty())
		})

		ginkgo.It("counts the failed attempt", func() {
			_, err := service.Login(LoginDTO{Username: "alice", Password: "wrong"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(attempts.attempts["alice"]).To(gomega.Equal(1))
		})

		ginkgo.It("locks the account on the configured maximum", func() {
			for i := 0; i < 3; i++ {
				_, err := service.Login(LoginDTO{Username: "alice", Password: "wrong"})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
			}
			gomega.Expect(attempts.locked["alice"]).To(gomega.BeTrue())
		})

		ginkgo.It("does not lock before the maximum", func() {
			for i := 0; i < 2; i++ {
				_, err := service.Login(LoginDTO{Username: "alice", Password: "wrong"})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
			}
			gomega.Expect(attempts.locked["alice"]).To(gomega.BeFalse())
		})

		ginkgo.It("publishes exactly one failed login event per attempt", func() {
			_, err := service.Login(LoginDTO{Username: "alice", Password: "wrong"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(publisher.events).To(gomega.HaveLen(1))
			gomega.Expect(publisher.events[0].LoggedIn).To(gomega.BeFalse())
		})

		ginkgo.It("publishes an event even for an unknown user", func() {
			_, err := service.Login(LoginDTO{Username: "nobody", Password: "whatever"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(publisher.events).To(gomega.HaveLen(1))
			gomega.Expect(publisher.events[0].Username).To(gomega.Equal("nobody"))
			gomega.Expect(publisher.events[0].LoggedIn).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("disabled and locked accounts", func() {
		ginkgo.It("fails a disabled account without verifying the password", func() {
			a := newAccount("bob")
			a.Enabled = false
			a.PasswordHash = "" // pending activation
			repo.add(a)
			attempts.known["bob"] = true

			status, err := service.Login(LoginDTO{Username: "bob", Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(status.Logged).To(gomega.BeFalse())
			gomega.Expect(attempts.attempts["bob"]).To(gomega.Equal(1))
		})

		ginkgo.It("fails a locked account even with the right password", func() {
			a := newAccount("carol")
			a.AccountNonLocked = false
			repo.add(a)
			attempts.known["carol"] = true

			status, err := service.Login(LoginDTO{Username: "carol", Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(status.Logged).To(gomega.BeFalse())
			gomega.Expect(publisher.events).To(gomega.HaveLen(1))
		})

		ginkgo.It("fails an account with expired credentials", func() {
			a := newAccount("dave")
			a.CredentialsNonExpired = false
			repo.add(a)
			attempts.known["dave"] = true

			status, err := service.Login(LoginDTO{Username: "dave", Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(status.Logged).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("input validation", func() {
		ginkgo.It("rejects a missing username", func() {
			_, err := service.Login(LoginDTO{Password: "x"})
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(publisher.events).To(gomega.BeEmpty())
		})

		ginkgo.It("rejects a missing password", func() {
			_, err := service.Login(LoginDTO{Username: "alice"})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("GetUserWithPermissions", func() {
		ginkgo.It("loads the principal with its current authorities", func() {
			repo.add(newAccount("alice"))
			perms.granted["alice"] = []Permission{{Resource: "users", Action: "manage"}}

			user, err := service.GetUserWithPermissions("alice")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(user.Username).To(gomega.Equal("alice"))
			gomega.Expect(user.Permissions).To(gomega.Equal([]string{"users:manage"}))
		})

		ginkgo.It("propagates a missing user", func() {
			_, err := service.GetUserWithPermissions("nobody")
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUserNotFound))
		})
	})
})
