package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jwksFixture struct {
	key     *rsa.PrivateKey
	server  *httptest.Server
	fetches int32
}

func newJWKSFixture(t *testing.T) *jwksFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &jwksFixture{key: key}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.fetches, 1)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kid": "k1",
				"kty": "RSA",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *jwksFixture) sign(t *testing.T, kid string, claims *auth.KeycloakClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	s, err := token.SignedString(f.key)
	require.NoError(t, err)
	return s
}

const testIssuer = "https://sso.example.com/realms/hr"

func claimsFor(employeeID string, ttl time.Duration) *auth.KeycloakClaims {
	c := &auth.KeycloakClaims{EmployeeID: employeeID, Name: "Kim Jiwon"}
	c.Issuer = testIssuer
	c.Subject = "sub-" + employeeID
	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	c.RealmAccess.Roles = []string{"employee"}
	return c
}

// TestValidateToken 测试 Token 校验
func TestValidateToken(t *testing.T) {
	f := newJWKSFixture(t)
	v := auth.NewKeycloakTokenValidator(testIssuer, f.server.URL)

	claims, err := v.ValidateToken(f.sign(t, "k1", claimsFor("e-7", time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "e-7", claims.Employee())
	assert.Equal(t, "Kim Jiwon", claims.DisplayName())
	assert.Equal(t, []string{"employee"}, claims.RealmAccess.Roles)

	// 第二次使用缓存的公钥
	_, err = v.ValidateToken(f.sign(t, "k1", claimsFor("e-8", time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.fetches))
}

// TestValidateTokenRejects 测试非法 Token
func TestValidateTokenRejects(t *testing.T) {
	f := newJWKSFixture(t)
	v := auth.NewKeycloakTokenValidator(testIssuer, f.server.URL)

	t.Run("已过期", func(t *testing.T) {
		_, err := v.ValidateToken(f.sign(t, "k1", claimsFor("e-7", -time.Minute)))
		assert.Error(t, err)
	})

	t.Run("issuer 不匹配", func(t *testing.T) {
		c := claimsFor("e-7", time.Hour)
		c.Issuer = "https://evil.example.com"
		_, err := v.ValidateToken(f.sign(t, "k1", c))
		assert.Error(t, err)
	})

	t.Run("未知 kid", func(t *testing.T) {
		_, err := v.ValidateToken(f.sign(t, "other", claimsFor("e-7", time.Hour)))
		assert.Error(t, err)
	})

	t.Run("格式错误", func(t *testing.T) {
		_, err := v.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}

// TestEmployeeFallsBackToSubject 测试没有 employee_id 时使用 sub
func TestEmployeeFallsBackToSubject(t *testing.T) {
	c := &auth.KeycloakClaims{PreferredUsername: "jiwon"}
	c.Subject = "abc"
	assert.Equal(t, "abc", c.Employee())
	assert.Equal(t, "jiwon", c.DisplayName())
}

// TestKeycloakAuthMiddleware 测试 JWT 认证中间件
func TestKeycloakAuthMiddleware(t *testing.T) {
	f := newJWKSFixture(t)
	r := sessionRouter(auth.KeycloakAuthMiddleware(auth.NewKeycloakTokenValidator(testIssuer, f.server.URL)))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+f.sign(t, "k1", claimsFor("e-9", time.Hour)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"employeeId":"e-9"`)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
