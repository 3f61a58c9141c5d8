package rbac

import (
	"context"
	"strings"

	"app/internal/domain/model"
	"app/internal/repository"
)

// ロール×(path, method)の突き合わせで許可を判定する。
// 判定対象のpathはグローバルprefix（例：/api/v1）を剥がしてから比較する。
// Permissionレコード側はprefix無しで保存されている前提。
type Checker struct {
	roles  repository.RoleRepository
	prefix string
}

func NewChecker(roles repository.RoleRepository, prefix string) *Checker {
	return &Checker{roles: roles, prefix: prefix}
}

// roleIDのロールがmethod×pathを実行してよいか。
// ロールが見つからない・削除済み・無効の場合は一律false（存在有無は漏らさない）。
func (c *Checker) Authorize(ctx context.Context, roleID int64, path string, method string) (bool, error) {
	role, err := c.roles.FindByID(ctx, roleID)
	if err != nil {
		return false, err
	}
	if role == nil || !role.IsActive {
		return false, nil
	}

	normalized := c.normalize(path)

	//完全一致のみ（ワイルドカード無し）
	for _, p := range role.Permissions {
		if p.Path == normalized && string(p.Method) == method {
			return true, nil
		}
	}
	return false, nil
}

// prefixを剥がす。剥がした結果が空なら"/"に寄せる
func (c *Checker) normalize(path string) string {
	if c.prefix == "" {
		return path
	}
	if path == c.prefix {
		return "/"
	}
	if strings.HasPrefix(path, c.prefix+"/") {
		return strings.TrimPrefix(path, c.prefix)
	}
	return path
}

// Checkerが受け付けるメソッドかどうか（Permission登録側のバリデーション用）
func ValidMethod(method string) bool {
	switch model.HTTPMethod(method) {
	case model.MethodGet, model.MethodPost, model.MethodPut, model.MethodPatch,
		model.MethodDelete, model.MethodHead, model.MethodOptions:
		return true
	}
	return false
}
