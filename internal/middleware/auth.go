package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/service"
)

const (
	currentAccountKey = "current_account"
	targetChildKey    = "target_child"
)

// Auth resolves the bearer token into the caller's account. There is no
// anonymous fallback.
func Auth(guard *service.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := guard.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(currentAccountKey, account)
		c.Next()
	}
}

func CurrentAccount(c *gin.Context) (models.Account, bool) {
	val, ok := c.Get(currentAccountKey)
	if !ok {
		return models.Account{}, false
	}
	account, ok := val.(models.Account)
	return account, ok
}

func TargetChild(c *gin.Context) (models.Account, bool) {
	val, ok := c.Get(targetChildKey)
	if !ok {
		return models.Account{}, false
	}
	child, ok := val.(models.Account)
	return child, ok
}

func mustCurrentAccount(c *gin.Context) (models.Account, bool) {
	account, ok := CurrentAccount(c)
	if !ok {
		AbortWithError(c, apperr.Unauthenticated("missing bearer token"))
	}
	return account, ok
}
