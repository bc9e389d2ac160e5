// Package auth issues access tokens and authenticates requests.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"applicant-api-io/api/pkg/models"
	"applicant-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	principalKey = "principal"
	tokenKey     = "access_token"
	claimKey     = "access_claim"
)

// Blacklist remembers revoked tokens until they would have expired anyway.
type Blacklist interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type redisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) Blacklist {
	return &redisBlacklist{client: client}
}

func blacklistKey(token string) string {
	return "blacklist:" + token
}

func (b *redisBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistKey(token), true, ttl).Err()
}

// Check if token is in the blacklist
func (b *redisBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	_, err := b.client.Get(ctx, blacklistKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return true, err
	}
	return true, nil
}

// MemoryBlacklist is an in-process Blacklist.
type MemoryBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{revoked: map[string]time.Time{}}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = time.Now().Add(ttl)
	return nil
}

func (b *MemoryBlacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	until, ok := b.revoked[token]
	return ok && time.Now().Before(until), nil
}

// Auth validates the bearer token and stores the caller's Principal in the
// request context.
func Auth(tokens *Tokens, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			util.HandleError(c, 401, util.Unauthorized("Access token is required"))
			c.Abort()
			return
		}

		claim, err := tokens.ValidateToken(tokenString)
		if err != nil {
			util.HandleError(c, 401, util.Unauthorized("Invalid or expired token"))
			c.Abort()
			return
		}

		principal, err := claim.Principal()
		if err != nil {
			util.HandleError(c, 401, util.Unauthorized("Invalid or expired token"))
			c.Abort()
			return
		}

		revoked, err := blacklist.IsRevoked(c.Request.Context(), tokenString)
		if err != nil {
			util.LogError("error while checking blacklist", err, zap.String("user", principal.ID.Hex()))
		}
		if revoked {
			util.HandleError(c, 401, util.Unauthorized("Token has been revoked, please sign in again"))
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Set(tokenKey, tokenString)
		c.Set(claimKey, claim)
		c.Next()
	}
}

// RequireRole rejects callers whose role differs from role. It must run
// after Auth.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			util.HandleError(c, 401, util.Unauthorized("Access token is required"))
			c.Abort()
			return
		}
		if principal.Role != role {
			util.HandleError(c, 403, util.Forbidden("You are not allowed to access this resource"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetPrincipal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

// CurrentToken returns the validated token and its claim.
func CurrentToken(c *gin.Context) (string, JWTClaim, bool) {
	token := c.GetString(tokenKey)
	v, ok := c.Get(claimKey)
	if !ok || token == "" {
		return "", JWTClaim{}, false
	}
	claim, ok := v.(JWTClaim)
	return token, claim, ok
}

// Extract authorization token from request header. Both "Bearer <token>"
// and a bare token are accepted.
func ExtractToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// GenerateSecureToken returns length random bytes hex encoded.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
