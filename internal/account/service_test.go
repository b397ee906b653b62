package account

import (
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	internal "github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/token"
)

func TestAccount(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Account Module Suite")
}

type mockAccountRepository struct {
	users          map[string]*User
	hashes         map[string]string
	activateCalls  int
	resetCalls     int
	activateResult error
	resetResult    error
}

func newMockAccountRepository() *mockAccountRepository {
	return &mockAccountRepository{
		users:  map[string]*User{},
		hashes: map[string]string{},
	}
}

func (m *mockAccountRepository) GetByUsername(username string) (*User, error) {
	if u, ok := m.users[username]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockAccountRepository) GetByEmail(email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockAccountRepository) CreatePending(u *User) error {
	u.ID = int64(len(m.users) + 1)
	copied := *u
	m.users[u.Username] = &copied
	return nil
}

func (m *mockAccountRepository) Activate(username, passwordHash, tokenString string) error {
	m.activateCalls++
	if m.activateResult != nil {
		return m.activateResult
	}
	u, ok := m.users[username]
	if !ok {
		return internal.ErrUserNotFound
	}
	u.Enabled = true
	m.hashes[username] = passwordHash
	return nil
}

func (m *mockAccountRepository) ResetPassword(username, passwordHash, tokenString string) error {
	m.resetCalls++
	if m.resetResult != nil {
		return m.resetResult
	}
	if _, ok := m.users[username]; !ok {
		return internal.ErrUserNotFound
	}
	m.hashes[username] = passwordHash
	return nil
}

type issuedToken struct {
	username string
	scope    string
	err      error
}

type mockTokenService struct {
	issued    map[string]*issuedToken
	counter   int
	createErr error
}

func newMockTokenService() *mockTokenService {
	return &mockTokenService{issued: map[string]*issuedToken{}}
}

func (m *mockTokenService) Create(username, scope string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.counter++
	value := "tok-" + username + "-" + scope
	m.issued[value] = &issuedToken{username: username, scope: scope}
	return value, nil
}

func (m *mockTokenService) ValidateScoped(tokenString, scope string) error {
	t, ok := m.issued[tokenString]
	if !ok {
		return internal.ErrTokenNotFound
	}
	if t.err != nil {
		return t.err
	}
	if t.scope != scope {
		return internal.ErrTokenNotFound
	}
	return nil
}

func (m *mockTokenService) GetUsername(tokenString string) (string, error) {
	t, ok := m.issued[tokenString]
	if !ok {
		return "", internal.ErrTokenNotFound
	}
	return t.username, nil
}

type sentMail struct {
	kind      string
	recipient string
	token     string
}

type mockMailer struct {
	sent []sentMail
}

func (m *mockMailer) SendActivationMail(recipient, name, tokenString string) {
	m.sent = append(m.sent, sentMail{kind: "activation", recipient: recipient, token: tokenString})
}

func (m *mockMailer) SendPasswordResetMail(recipient, name, tokenString string) {
	m.sent = append(m.sent, sentMail{kind: "password-reset", recipient: recipient, token: tokenString})
}

var _ = ginkgo.Describe("Account Lifecycle Service", func() {
	var (
		repo    *mockAccountRepository
		tokens  *mockTokenService
		mails   *mockMailer
		service *Service
	)

	ginkgo.BeforeEach(func() {
		repo = newMockAccountRepository()
		tokens = newMockTokenService()
		mails = &mockMailer{}
		service = NewService(repo, tokens, mails, 4, slog.Default())
	})

	invite := func() *User {
		user, err := service.InviteUser(InviteUserDTO{
			Username: "johndoe",
			Email:    "john@example.com",
			Name:     "John Doe",
		})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		return user
	}

	ginkgo.Describe("InviteUser", func() {
		ginkgo.It("creates a pending user", func() {
			user := invite()
			gomega.Expect(user.Enabled).To(gomega.BeFalse())
			gomega.Expect(user.Pending()).To(gomega.BeTrue())
			gomega.Expect(repo.users).To(gomega.HaveKey("johndoe"))
		})

		ginkgo.It("issues an activation token and mails it", func() {
			invite()
			gomega.Expect(mails.sent).To(gomega.HaveLen(1))
			gomega.Expect(mails.sent[0].kind).To(gomega.Equal("activation"))
			gomega.Expect(mails.sent[0].recipient).To(gomega.Equal("john@example.com"))
			gomega.Expect(tokens.issued).To(gomega.HaveKey(mails.sent[0].token))
			gomega.Expect(tokens.issued[mails.sent[0].token].scope).To(gomega.Equal(token.ScopeActivation))
		})

		ginkgo.It("normalizes username and email to lower case", func() {
			user, err := service.InviteUser(InviteUserDTO{
				Username: "  JohnDoe ",
				Email:    " John@Example.COM ",
				Name:     "John Doe",
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(user.Username).To(gomega.Equal("johndoe"))
			gomega.Expect(user.Email).To(gomega.Equal("john@example.com"))
		})

		ginkgo.It("rejects a duplicate username regardless of case", func() {
			invite()
			_, err := service.InviteUser(InviteUserDTO{
				Username: "JOHNDOE",
				Email:    "other@example.com",
				Name:     "Other",
			})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrDuplicateUsername))
		})

		ginkgo.It("rejects a duplicate email", func() {
			invite()
			_, err := service.InviteUser(InviteUserDTO{
				Username: "otheruser",
				Email:    "john@example.com",
				Name:     "Other",
			})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrDuplicateEmail))
		})

		ginkgo.It("rejects a malformed email", func() {
			_, err := service.InviteUser(InviteUserDTO{
				Username: "johndoe",
				Email:    "not-an-address",
				Name:     "John Doe",
			})
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(mails.sent).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("ActivateUser", func() {
		var activationToken string

		ginkgo.BeforeEach(func() {
			invite()
			activationToken = mails.sent[0].token
		})

		ginkgo.It("enables the user and stores the digest", func() {
			user, err := service.ActivateUser(ActivateUserDTO{Token: activationToken, Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(user.Enabled).To(gomega.BeTrue())
			gomega.Expect(repo.users["johndoe"].Enabled).To(gomega.BeTrue())
			gomega.Expect(repo.hashes).To(gomega.HaveKey("johndoe"))
		})

		ginkgo.It("rejects a weak password before touching the account", func() {
			_, err := service.ActivateUser(ActivateUserDTO{Token: activationToken, Password: "short"})
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(repo.activateCalls).To(gomega.Equal(0))
		})

		ginkgo.It("propagates token errors as-is", func() {
			tokens.issued[activationToken].err = internal.ErrTokenExpired
			_, err := service.ActivateUser(ActivateUserDTO{Token: activationToken, Password: "Sup3rSecret"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenExpired))
		})

		ginkgo.It("rejects an unknown token", func() {
			_, err := service.ActivateUser(ActivateUserDTO{Token: "bogus", Password: "Sup3rSecret"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenNotFound))
		})

		ginkgo.It("rejects an already enabled user", func() {
			repo.users["johndoe"].Enabled = true
			_, err := service.ActivateUser(ActivateUserDTO{Token: activationToken, Password: "Sup3rSecret"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUserEnabled))
		})

		ginkgo.It("rejects an expired account", func() {
			repo.users["johndoe"].AccountNonExpired = false
			_, err := service.ActivateUser(ActivateUserDTO{Token: activationToken, Password: "Sup3rSecret"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUserExpired))
		})

		ginkgo.It("rejects a locked account", func() {
			repo.users["johndoe"].AccountNonLocked = false
			_, err := service.ActivateUser(ActivateUserDTO{Token: activationToken, Password: "Sup3rSecret"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUserLocked))
		})

		ginkgo.It("fails the second redemption of the same token", func() {
			_, err := service.ActivateUser(ActivateUserDTO{Token: activationToken, Password: "Sup3rSecret"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			tokens.issued[activationToken].err = internal.ErrTokenConsumed
			_, err = service.ActivateUser(ActivateUserDTO{Token: activationToken, Password: "Sup3rSecret"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenConsumed))
		})
	})

	ginkgo.Describe("ValidateToken", func() {
		var activationToken string

		ginkgo.BeforeEach(func() {
			invite()
			activationToken = mails.sent[0].token
		})

		ginkgo.It("reports a usable token with its username", func() {
			status := service.ValidateToken(activationToken)
			gomega.Expect(status.Valid).To(gomega.BeTrue())
			gomega.Expect(status.Username).To(gomega.Equal("johndoe"))
		})

		ginkgo.It("downgrades token defects to valid=false but keeps the username", func() {
			tokens.issued[activationToken].err = internal.ErrTokenExpired
			status := service.ValidateToken(activationToken)
			gomega.Expect(status.Valid).To(gomega.BeFalse())
			gomega.Expect(status.Username).To(gomega.Equal("johndoe"))
		})

		ginkgo.It("reports an unknown token without a username", func() {
			status := service.ValidateToken("bogus")
			gomega.Expect(status.Valid).To(gomega.BeFalse())
			gomega.Expect(status.Username).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("password reset", func() {
		ginkgo.BeforeEach(func() {
			invite()
			repo.users["johndoe"].Enabled = true
		})

		ginkgo.It("issues a reset token for a known email", func() {
			err := service.RequestPasswordReset(PasswordResetRequestDTO{Email: "john@example.com"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(mails.sent).To(gomega.HaveLen(2))
			gomega.Expect(mails.sent[1].kind).To(gomega.Equal("password-reset"))
			gomega.Expect(tokens.issued[mails.sent[1].token].scope).To(gomega.Equal(token.ScopePasswordReset))
		})

		ginkgo.It("silently ignores an unknown email", func() {
			err := service.RequestPasswordReset(PasswordResetRequestDTO{Email: "ghost@example.com"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(mails.sent).To(gomega.HaveLen(1))
		})

		ginkgo.It("silently ignores a pending account", func() {
			repo.users["johndoe"].Enabled = false
			err := service.RequestPasswordReset(PasswordResetRequestDTO{Email: "john@example.com"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(mails.sent).To(gomega.HaveLen(1))
		})

		ginkgo.It("resets the password through a valid token", func() {
			gomega.Expect(service.RequestPasswordReset(PasswordResetRequestDTO{Email: "john@example.com"})).To(gomega.Succeed())
			resetToken := mails.sent[1].token

			err := service.ResetPassword(PasswordResetConfirmDTO{Token: resetToken, Password: "N3wSecret!"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(repo.resetCalls).To(gomega.Equal(1))
			gomega.Expect(repo.hashes).To(gomega.HaveKey("johndoe"))
		})

		ginkgo.It("refuses an activation token on the reset endpoint", func() {
			activationToken := mails.sent[0].token
			err := service.ResetPassword(PasswordResetConfirmDTO{Token: activationToken, Password: "N3wSecret!"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenNotFound))
		})

		ginkgo.It("rejects a weak replacement password", func() {
			gomega.Expect(service.RequestPasswordReset(PasswordResetRequestDTO{Email: "john@example.com"})).To(gomega.Succeed())
			resetToken := mails.sent[1].token

			err := service.ResetPassword(PasswordResetConfirmDTO{Token: resetToken, Password: "weak"})
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(repo.resetCalls).To(gomega.Equal(0))
		})
	})
})
