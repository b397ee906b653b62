package auth

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/datamodel/identity"
)

func TestAuthRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "AuthRepository Suite")
}

var _ = Describe("AuthRepository", func() {
	var (
		db   *gorm.DB
		repo *Repository
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&identity.User{},
			&identity.Role{},
			&identity.ResourcePermission{},
			&identity.RolePermission{},
			&identity.UserRole{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = NewRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	seedUser := func(username, email string) *identity.User {
		u := &identity.User{
			Username:              username,
			Email:                 email,
			Name:                  "John Doe",
			PasswordHash:          "$2a$04$notarealdigest",
			Enabled:               true,
			AccountNonExpired:     true,
			AccountNonLocked:      true,
			CredentialsNonExpired: true,
		}
		Expect(db.Create(u).Error).To(Succeed())
		return u
	}

	Describe("FindByUsernameOrEmail", func() {
		BeforeEach(func() {
			seedUser("johndoe", "john@example.com")
		})

		It("resolves by username", func() {
			account, err := repo.FindByUsernameOrEmail("johndoe")
			Expect(err).NotTo(HaveOccurred())
			Expect(account.Username).To(Equal("johndoe"))
			Expect(account.Email).To(Equal("john@example.com"))
		})

		It("resolves by email", func() {
			account, err := repo.FindByUsernameOrEmail("john@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(account.Username).To(Equal("johndoe"))
		})

		It("matches case-insensitively", func() {
			account, err := repo.FindByUsernameOrEmail("JohnDoe")
			Expect(err).NotTo(HaveOccurred())
			Expect(account.Username).To(Equal("johndoe"))
		})

		It("returns a sentinel for an unknown identifier", func() {
			_, err := repo.FindByUsernameOrEmail("ghost")
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})
	})

	Describe("login attempt counters", func() {
		BeforeEach(func() {
			seedUser("johndoe", "john@example.com")
		})

		It("increments atomically and returns the new count", func() {
			count, err := repo.IncrementLoginAttempts("johndoe")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))

			count, err = repo.IncrementLoginAttempts("johndoe")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(2))
		})

		It("returns -1 for an unknown user", func() {
			count, err := repo.IncrementLoginAttempts("ghost")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(-1))
		})

		It("reads the stored count", func() {
			_, err := repo.IncrementLoginAttempts("johndoe")
			Expect(err).NotTo(HaveOccurred())

			count, err := repo.GetLoginAttempts("johndoe")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("resets the counter", func() {
			_, err := repo.IncrementLoginAttempts("johndoe")
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.ResetLoginAttempts("johndoe")).To(Succeed())

			count, err := repo.GetLoginAttempts("johndoe")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(0))
		})
	})

	Describe("LockAccount", func() {
		BeforeEach(func() {
			seedUser("johndoe", "john@example.com")
		})

		It("locks an unlocked account and reports the transition", func() {
			locked, err := repo.LockAccount("johndoe")
			Expect(err).NotTo(HaveOccurred())
			Expect(locked).To(BeTrue())

			var user identity.User
			Expect(db.Where("username = ?", "johndoe").First(&user).Error).To(Succeed())
			Expect(user.AccountNonLocked).To(BeFalse())
		})

		It("reports no transition for an already locked account", func() {
			_, err := repo.LockAccount("johndoe")
			Expect(err).NotTo(HaveOccurred())

			locked, err := repo.LockAccount("johndoe")
			Expect(err).NotTo(HaveOccurred())
			Expect(locked).To(BeFalse())
		})
	})

	Describe("FindGrantedPermissions", func() {
		var user *identity.User

		grant := func(roleName, resource, action string, granted bool) {
			role := &identity.Role{Name: roleName}
			Expect(db.Where(identity.Role{Name: roleName}).FirstOrCreate(role).Error).To(Succeed())

			perm := &identity.ResourcePermission{Resource: resource, Action: action}
			Expect(db.Where(identity.ResourcePermission{Resource: resource, Action: action}).FirstOrCreate(perm).Error).To(Succeed())

			Expect(db.Create(&identity.RolePermission{RoleID: role.ID, PermissionID: perm.ID, Granted: granted}).Error).To(Succeed())
			Expect(db.Where(identity.UserRole{UserID: user.ID, RoleID: role.ID}).FirstOrCreate(&identity.UserRole{UserID: user.ID, RoleID: role.ID}).Error).To(Succeed())
		}

		BeforeEach(func() {
			user = seedUser("johndoe", "john@example.com")
		})

		It("returns pairs granted through assigned roles", func() {
			grant("admins", "users", "manage", true)
			grant("admins", "roles", "manage", true)

			perms, err := repo.FindGrantedPermissions("johndoe")
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(HaveLen(2))
		})

		It("skips associations whose grant was revoked", func() {
			grant("auditors", "users", "manage", false)

			perms, err := repo.FindGrantedPermissions("johndoe")
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(BeEmpty())
		})

		It("returns nothing for a user without roles", func() {
			perms, err := repo.FindGrantedPermissions("johndoe")
			Expect(err).NotTo(HaveOccurred())
			Expect(perms).To(BeEmpty())
		})
	})
})
