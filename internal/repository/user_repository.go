package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

// email重複（uniqueIndex違反）を統一
var ErrEmailTaken = errors.New("email already taken")

// ユーザーの保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成。email重複はErrEmailTakenを返す
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。見つからなければnil
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを1件取得する。見つからなければnil
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// ユーザー情報の更新=>パスワード変更・TOTPシークレットの設定/解除など
	Update(ctx context.Context, user *model.User) error
}
