package auth

import (
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("JWTCredentialIssuer", func() {
	var (
		clock  time.Time
		tested *JWTCredentialIssuer
	)

	ginkgo.BeforeEach(func() {
		clock = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
		tested = NewJWTCredentialIssuer("test-secret").WithClock(func() time.Time { return clock })
	})

	ginkgo.It("round-trips subject and authorities", func() {
		tokenString, err := tested.Encode("alice", []string{"users:manage", "roles:manage"}, time.Hour)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		claims, err := tested.ValidateToken(tokenString)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(claims.Username).To(gomega.Equal("alice"))
		gomega.Expect(claims.Subject).To(gomega.Equal("alice"))
		gomega.Expect(claims.Authorities).To(gomega.Equal([]string{"users:manage", "roles:manage"}))
	})

	ginkgo.It("stamps issued-at and expiration from the validity window", func() {
		tokenString, err := tested.Encode("alice", nil, 30*time.Minute)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		claims, err := tested.ValidateToken(tokenString)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(claims.IssuedAt.Time).To(gomega.BeTemporally("==", clock))
		gomega.Expect(claims.ExpiresAt.Time).To(gomega.BeTemporally("==", clock.Add(30*time.Minute)))
	})

	ginkgo.It("rejects an expired credential", func() {
		tokenString, err := tested.Encode("alice", nil, time.Minute)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		clock = clock.Add(2 * time.Minute)
		_, err = tested.ValidateToken(tokenString)
		gomega.Expect(err).To(gomega.MatchError(ErrCredentialExpired))
	})

	ginkgo.It("accepts a zero validity but the credential is born expired", func() {
		tokenString, err := tested.Encode("alice", nil, 0)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		clock = clock.Add(time.Second)
		_, err = tested.ValidateToken(tokenString)
		gomega.Expect(err).To(gomega.MatchError(ErrCredentialExpired))
	})

	ginkgo.It("rejects a credential signed with another secret", func() {
		other := NewJWTCredentialIssuer("other-secret").WithClock(func() time.Time { return clock })
		tokenString, err := other.Encode("alice", nil, time.Hour)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		_, err = tested.ValidateToken(tokenString)
		gomega.Expect(err).To(gomega.MatchError(ErrInvalidCredential))
	})

	ginkgo.It("rejects garbage input", func() {
		_, err := tested.ValidateToken("not-a-token")
		gomega.Expect(err).To(gomega.MatchError(ErrInvalidCredential))
	})
})

var _ = ginkgo.Describe("Password hashing", func() {
	ginkgo.It("verifies a matching password", func() {
		hash, err := HashPassword("Sup3rSecret", 4)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(VerifyPassword(hash, "Sup3rSecret")).To(gomega.Succeed())
	})

	ginkgo.It("rejects a wrong password", func() {
		hash, err := HashPassword("Sup3rSecret", 4)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(VerifyPassword(hash, "other")).NotTo(gomega.Succeed())
	})

	ginkgo.It("rejects an empty digest", func() {
		gomega.Expect(VerifyPassword("", "anything")).NotTo(gomega.Succeed())
	})
})
