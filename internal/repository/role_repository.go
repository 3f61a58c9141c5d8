package repository

import (
	"app/internal/domain/model"
	"context"
)

// ロールの取得を約束。
// 権限チェックはここで取れたPermissionsの突き合わせで行う。
type RoleRepository interface {
	//IDでロールを1件取得（未削除のPermissionsをPreload）。見つからなければnil
	FindByID(ctx context.Context, roleID int64) (*model.Role, error)
	//名前でロールを1件取得。見つからなければnil
	FindByName(ctx context.Context, name string) (*model.Role, error)
}
