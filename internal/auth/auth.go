// Package auth は接続時のセッショントークン検証を担当します
// トークンの発行は認証サービス側の責務であり、ここでは検証のみ行います
package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken はリクエストにトークンが含まれていない場合のエラー
var ErrNoToken = errors.New("no session token")

// Authenticator はHMAC署名されたセッショントークンを検証します
type Authenticator struct {
	secret []byte
}

// NewAuthenticator は新しいAuthenticatorを作成します
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Claims はセッショントークンに含まれるクレーム
type Claims struct {
	jwt.RegisteredClaims
}

// UserID はトークンの主体（ユーザーID）を返します
func (c Claims) UserID() string { return c.Subject }

// Authenticate はリクエストのtokenクッキーを検証します
// トークンがない・無効な場合はエラーを返し、接続は拒否されます
func (a *Authenticator) Authenticate(r *http.Request) (Claims, error) {
	c, err := r.Cookie("token")
	if err != nil || c.Value == "" {
		return Claims{}, ErrNoToken
	}
	return a.Verify(c.Value)
}

// Verify はトークン文字列を検証してクレームを返します
func (a *Authenticator) Verify(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// Sign はテストおよびデモクライアント用にトークンを発行します
func (a *Authenticator) Sign(userId string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userId},
	})
	return t.SignedString(a.secret)
}
