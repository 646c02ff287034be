package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// 管理者ログイン。資格情報は環境変数の1組だけ
// （メール＋bcryptハッシュ）。セッション基盤は持たない。
type AdminAuthUsecase struct {
	adminEmail        string
	adminPasswordHash string
	jwtSecret         []byte
	accessTTL         time.Duration
}

func NewAdminAuthUsecase(adminEmail string, adminPasswordHash string, jwtSecret string) *AdminAuthUsecase {
	return &AdminAuthUsecase{
		adminEmail:        adminEmail,
		adminPasswordHash: adminPasswordHash,
		jwtSecret:         []byte(jwtSecret),
		accessTTL:         15 * time.Minute,
	}
}

type AdminLoginOutput struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (u *AdminAuthUsecase) Login(ctx context.Context, email string, password string) (AdminLoginOutput, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return AdminLoginOutput{}, NewHTTPError(http.StatusBadRequest, "invalid input")
	}

	//どちらが違っても同じ401を返す
	if !strings.EqualFold(email, u.adminEmail) {
		return AdminLoginOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.adminPasswordHash), []byte(password)); err != nil {
		return AdminLoginOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	now := time.Now()
	expiresAt := now.Add(u.accessTTL)

	claims := jwt.MapClaims{
		"sub":  u.adminEmail,
		"role": "ADMIN",
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(u.jwtSecret)
	if err != nil {
		return AdminLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "token error")
	}

	return AdminLoginOutput{AccessToken: signed, ExpiresAt: expiresAt}, nil
}
