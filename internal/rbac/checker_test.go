package rbac

import (
	"context"
	"testing"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mock: RoleRepository
// =====================

type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) FindByID(ctx context.Context, roleID int64) (*model.Role, error) {
	args := m.Called(ctx, roleID)
	role, _ := args.Get(0).(*model.Role)
	return role, args.Error(1)
}

func (m *MockRoleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	args := m.Called(ctx, name)
	role, _ := args.Get(0).(*model.Role)
	return role, args.Error(1)
}

func clientRole() *model.Role {
	return &model.Role{
		ID:       1,
		Name:     "CLIENT",
		IsActive: true,
		Permissions: []model.Permission{
			{Path: "/users", Method: model.MethodGet},
			{Path: "/profile", Method: model.MethodGet},
		},
	}
}

func TestChecker_Authorize(t *testing.T) {
	ctx := context.Background()
	roles := new(MockRoleRepository)
	roles.On("FindByID", ctx, int64(1)).Return(clientRole(), nil)

	c := NewChecker(roles, "/api/v1")

	//許可されたpath×method
	ok, err := c.Authorize(ctx, 1, "/api/v1/users", "GET")
	require.NoError(t, err)
	assert.True(t, ok)

	//同じpathでもmethod違いは拒否
	ok, err = c.Authorize(ctx, 1, "/api/v1/users", "POST")
	require.NoError(t, err)
	assert.False(t, ok)

	//完全一致のみ。サブパスは別物
	ok, err = c.Authorize(ctx, 1, "/api/v1/users/1", "GET")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChecker_Authorize_PrefixHandling(t *testing.T) {
	ctx := context.Background()
	roles := new(MockRoleRepository)
	role := clientRole()
	role.Permissions = append(role.Permissions, model.Permission{Path: "/", Method: model.MethodGet})
	roles.On("FindByID", ctx, int64(1)).Return(role, nil)

	c := NewChecker(roles, "/api/v1")

	//prefixそのものは"/"に正規化される
	ok, err := c.Authorize(ctx, 1, "/api/v1", "GET")
	require.NoError(t, err)
	assert.True(t, ok)

	//prefixが付いていないpathはそのまま比較する
	ok, err = c.Authorize(ctx, 1, "/users", "GET")
	require.NoError(t, err)
	assert.True(t, ok)

	//prefixもどき（/api/v10など）は剥がさない
	ok, err = c.Authorize(ctx, 1, "/api/v10/users", "GET")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChecker_Authorize_MissingRole(t *testing.T) {
	ctx := context.Background()
	roles := new(MockRoleRepository)
	roles.On("FindByID", ctx, int64(99)).Return(nil, nil)

	c := NewChecker(roles, "/api/v1")

	ok, err := c.Authorize(ctx, 99, "/api/v1/users", "GET")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChecker_Authorize_InactiveRole(t *testing.T) {
	ctx := context.Background()
	roles := new(MockRoleRepository)
	role := clientRole()
	role.IsActive = false
	roles.On("FindByID", ctx, int64(1)).Return(role, nil)

	c := NewChecker(roles, "/api/v1")

	ok, err := c.Authorize(ctx, 1, "/api/v1/users", "GET")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChecker_NoPrefix(t *testing.T) {
	ctx := context.Background()
	roles := new(MockRoleRepository)
	roles.On("FindByID", ctx, int64(1)).Return(clientRole(), nil)

	c := NewChecker(roles, "")

	ok, err := c.Authorize(ctx, 1, "/users", "GET")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidMethod(t *testing.T) {
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"} {
		assert.True(t, ValidMethod(m), m)
	}
	assert.False(t, ValidMethod("TRACE"))
	assert.False(t, ValidMethod("get"))
	assert.False(t, ValidMethod(""))
}
