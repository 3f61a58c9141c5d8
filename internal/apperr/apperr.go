package apperr

import "fmt"

// エラーの種別。HTTPステータスへの変換はhandler側で行う。
// 業務エラー（4xx系）とインフラ障害（KindInternal）をここで区別する。
type Kind int

const (
	KindUnauthorized Kind = iota + 1 //401 資格情報が無い/壊れている/失効
	KindForbidden                    //403 本人確認OKだが権限不足
	KindConflict                     //409 email重複など
	KindUnprocessable                //422 OTP不正・パスワード不一致など業務ルール違反
	KindNotFound                     //404 IDで引けない
	KindInternal                     //500 想定外の永続化失敗
)

// 安定したcode/message（+必要ならfield）を持つエラー。
// clientはcodeで分岐し、fieldでフォームの対象項目を特定できる。
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string //problem field（"code" / "email" / "password"など、無ければ空）
	Err     error  //元エラー（ログ用。レスポンスには出さない）
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// fieldを後付けする
func (e *Error) WithField(field string) *Error {
	clone := *e
	clone.Field = field
	return &clone
}

func New(kind Kind, code string, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Unauthorized(code string, message string) *Error {
	return New(KindUnauthorized, code, message)
}

func Forbidden(code string, message string) *Error {
	return New(KindForbidden, code, message)
}

func Conflict(code string, message string) *Error {
	return New(KindConflict, code, message)
}

func Unprocessable(code string, message string) *Error {
	return New(KindUnprocessable, code, message)
}

func NotFound(code string, message string) *Error {
	return New(KindNotFound, code, message)
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "internal server error", Err: err}
}
