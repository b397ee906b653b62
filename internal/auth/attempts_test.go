package auth

import (
	"log/slog"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("LoginAttemptGuard", func() {
	var (
		repo  *mockAttemptsRepository
		guard *LoginAttemptGuard
	)

	ginkgo.BeforeEach(func() {
		repo = newMockAttemptsRepository()
		repo.known["alice"] = true
		guard = NewLoginAttemptGuard(repo, 3, slog.Default())
	})

	ginkgo.Describe("CheckForLocking", func() {
		ginkgo.It("increments and returns the new count", func() {
			count, err := guard.CheckForLocking("alice")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(count).To(gomega.Equal(1))
		})

		ginkgo.It("locks when the count reaches the maximum", func() {
			repo.attempts["alice"] = 2
			count, err := guard.CheckForLocking("alice")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(count).To(gomega.Equal(3))
			gomega.Expect(repo.locked["alice"]).To(gomega.BeTrue())
		})

		ginkgo.It("does not lock one attempt below the maximum", func() {
			repo.attempts["alice"] = 1
			_, err := guard.CheckForLocking("alice")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(repo.locked["alice"]).To(gomega.BeFalse())
		})

		ginkgo.It("keeps locking idempotent past the maximum", func() {
			repo.attempts["alice"] = 5
			repo.locked["alice"] = true
			count, err := guard.CheckForLocking("alice")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(count).To(gomega.Equal(6))
			gomega.Expect(repo.locked["alice"]).To(gomega.BeTrue())
		})

		ginkgo.It("returns -1 for an unknown user without an error", func() {
			count, err := guard.CheckForLocking("nobody")
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(count).To(gomega.Equal(-1))
			gomega.Expect(repo.locked).NotTo(gomega.HaveKey("nobody"))
		})
	})

	ginkgo.Describe("ClearLoginAttempts", func() {
		ginkgo.It("resets a non-zero counter", func() {
			repo.attempts["alice"] = 2
			gomega.Expect(guard.ClearLoginAttempts("alice")).To(gomega.Succeed())
			gomega.Expect(repo.attempts["alice"]).To(gomega.Equal(0))
			gomega.Expect(repo.resets).To(gomega.Equal(1))
		})

		ginkgo.It("is a no-op at zero", func() {
			gomega.Expect(guard.ClearLoginAttempts("alice")).To(gomega.Succeed())
			gomega.Expect(repo.resets).To(gomega.Equal(0))
		})

		ginkgo.It("never unlocks the account", func() {
			repo.attempts["alice"] = 4
			repo.locked["alice"] = true
			gomega.Expect(guard.ClearLoginAttempts("alice")).To(gomega.Succeed())
			gomega.Expect(repo.locked["alice"]).To(gomega.BeTrue())
		})
	})
})
