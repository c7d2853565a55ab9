package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/workana-scraper/api/handler"
	"github.com/use-agent/workana-scraper/models"
)

// apiKey is a configured key and its digest. Presented keys are compared by
// digest.
type apiKey struct {
	value  string
	digest [sha256.Size]byte
}

// Auth guards the scrape endpoint with API keys.
//
// Accepted headers:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// Every configured key is compared in constant time. The matched key is
// stored under "api_key" for the rate limiter. No keys means open access.
func Auth(apiKeys []string) gin.HandlerFunc {
	keys := make([]apiKey, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, apiKey{value: k, digest: sha256.Sum256([]byte(k))})
		}
	}
	if len(keys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		presented := extractAPIKey(c)
		if presented == "" {
			handler.Abort(c, models.NewScrapeError(
				models.ErrCodeUnauthorized,
				"missing API key: provide X-API-Key header or Authorization: Bearer <key>",
				nil,
			))
			return
		}

		key, ok := matchKey(keys, presented)
		if !ok {
			handler.Abort(c, models.NewScrapeError(models.ErrCodeUnauthorized, "invalid API key", nil))
			return
		}

		c.Set("api_key", key)
		c.Next()
	}
}

// matchKey scans all keys without returning early.
func matchKey(keys []apiKey, presented string) (string, bool) {
	digest := sha256.Sum256([]byte(presented))
	matched := -1
	for i := range keys {
		if subtle.ConstantTimeCompare(keys[i].digest[:], digest[:]) == 1 {
			matched = i
		}
	}
	if matched < 0 {
		return "", false
	}
	return keys[matched].value, true
}

// extractAPIKey prefers X-API-Key. The Bearer scheme name is case-insensitive.
func extractAPIKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("X-API-Key")); key != "" {
		return key
	}
	scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
