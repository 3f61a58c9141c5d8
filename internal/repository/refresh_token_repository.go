package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// リフレッシュトークンの保存・取得・削除。
// 削除は物理削除のみ：rotationの「一度きり」はDeleteByHashの更新件数で保証する。
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	//token_hashで1件取得（User・User.RoleをPreload）。なければErrRefreshTokenNotFound
	FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	//token_hashで1件削除。0件ならErrRefreshTokenNotFound
	DeleteByHash(ctx context.Context, tokenHash string) error
	//ユーザーの全トークンを削除して件数を返す（全端末ログアウト）
	DeleteAllByUserID(ctx context.Context, userID int64) (int64, error)
}
