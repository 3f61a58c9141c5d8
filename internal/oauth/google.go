package oauth

import "context"

// 外部IdPから取れる最小限のプロフィール
type Profile struct {
	Email string
	Name  string
}

// Google OAuth2（authorization code）との連携の約束。
// 実装はinternal/infra/oauth。認可コード交換の中身はこのサービスの関心外。
type GoogleProvider interface {
	//ユーザーを誘導する認可URLを組み立てる
	AuthURL(state string) string
	//callbackで受けたcodeをプロフィールに交換する
	Exchange(ctx context.Context, code string) (*Profile, error)
}
