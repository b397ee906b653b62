package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("PermissionAggregator", func() {
	var (
		repo       *mockPermissionRepository
		aggregator *PermissionAggregator
	)

	ginkgo.BeforeEach(func() {
		repo = newMockPermissionRepository()
		aggregator = NewPermissionAggregator(repo)
	})

	ginkgo.It("returns the union of authorities across roles", func() {
		repo.granted["alice"] = []Permission{
			{Resource: "users", Action: "manage"},
			{Resource: "roles", Action: "manage"},
		}
		authorities, err := aggregator.FindAllPermissions("alice")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(authorities).To(gomega.ConsistOf("users:manage", "roles:manage"))
	})

	ginkgo.It("deduplicates pairs granted through several roles", func() {
		repo.granted["alice"] = []Permission{
			{Resource: "users", Action: "manage"},
			{Resource: "users", Action: "manage"},
			{Resource: "users", Action: "manage"},
		}
		authorities, err := aggregator.FindAllPermissions("alice")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(authorities).To(gomega.Equal([]string{"users:manage"}))
	})

	ginkgo.It("yields an empty set for a user with no roles", func() {
		authorities, err := aggregator.FindAllPermissions("nobody")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(authorities).To(gomega.BeEmpty())
		gomega.Expect(authorities).NotTo(gomega.BeNil())
	})

	ginkgo.It("sorts authorities for stable credential payloads", func() {
		repo.granted["alice"] = []Permission{
			{Resource: "users", Action: "manage"},
			{Resource: "permissions", Action: "manage"},
			{Resource: "roles", Action: "manage"},
		}
		authorities, err := aggregator.FindAllPermissions("alice")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(authorities).To(gomega.Equal([]string{
			"permissions:manage", "roles:manage", "users:manage",
		}))
	})
})
