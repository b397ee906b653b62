package permission

import (
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	internal "github.com/frahmantamala/user-management/internal"
)

func TestPermission(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Permission Module Suite")
}

type mockPermissionRepository struct {
	entries map[string]*Permission
}

func newMockPermissionRepository() *mockPermissionRepository {
	return &mockPermissionRepository{entries: map[string]*Permission{}}
}

func (m *mockPermissionRepository) Create(perm *Permission) error {
	perm.ID = int64(len(m.entries) + 1)
	copied := *perm
	m.entries[perm.Key()] = &copied
	return nil
}

func (m *mockPermissionRepository) Get(resource, action string) (*Permission, error) {
	if p, ok := m.entries[resource+":"+action]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, internal.ErrPermissionNotFound
}

func (m *mockPermissionRepository) List() ([]*Permission, error) {
	all := make([]*Permission, 0, len(m.entries))
	for _, p := range m.entries {
		copied := *p
		all = append(all, &copied)
	}
	return all, nil
}

func (m *mockPermissionRepository) Delete(resource, action string) error {
	key := resource + ":" + action
	if _, ok := m.entries[key]; !ok {
		return internal.ErrPermissionNotFound
	}
	delete(m.entries, key)
	return nil
}

var _ = ginkgo.Describe("Permission Service", func() {
	var (
		repo    *mockPermissionRepository
		service *Service
	)

	ginkgo.BeforeEach(func() {
		repo = newMockPermissionRepository()
		service = NewService(repo, slog.Default())
	})

	ginkgo.It("creates a catalog entry and normalizes the pair", func() {
		perm, err := service.CreatePermission(CreatePermissionDTO{Resource: " Users ", Action: "Manage"})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(perm.Key()).To(gomega.Equal("users:manage"))
	})

	ginkgo.It("rejects a duplicate pair", func() {
		_, err := service.CreatePermission(CreatePermissionDTO{Resource: "users", Action: "manage"})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		_, err = service.CreatePermission(CreatePermissionDTO{Resource: "users", Action: "manage"})
		gomega.Expect(err).To(gomega.MatchError(internal.ErrDuplicatePermission))
	})

	ginkgo.It("rejects a missing resource", func() {
		_, err := service.CreatePermission(CreatePermissionDTO{Action: "manage"})
		gomega.Expect(err).To(gomega.HaveOccurred())
	})

	ginkgo.It("lists catalog entries", func() {
		_, err := service.CreatePermission(CreatePermissionDTO{Resource: "users", Action: "manage"})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		perms, err := service.ListPermissions()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(perms).To(gomega.HaveLen(1))
	})

	ginkgo.It("deletes an entry and fails for a missing one", func() {
		_, err := service.CreatePermission(CreatePermissionDTO{Resource: "users", Action: "manage"})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Expect(service.DeletePermission("users", "manage")).To(gomega.Succeed())
		gomega.Expect(service.DeletePermission("users", "manage")).To(gomega.MatchError(internal.ErrPermissionNotFound))
	})
})
