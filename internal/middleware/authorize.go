package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/service"
)

func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	roleSet := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		account, ok := mustCurrentAccount(c)
		if !ok {
			return
		}

		if _, ok := roleSet[account.Role()]; !ok {
			AbortWithError(c, apperr.Forbidden("%s accounts cannot perform this action", account.Role()))
			return
		}

		c.Next()
	}
}

// RequireChildAccess checks the :childId path parameter against the caller's
// family and stores the resolved child for the handler.
func RequireChildAccess(guard *service.Guard, access service.ChildAccess) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := mustCurrentAccount(c)
		if !ok {
			return
		}

		child, err := guard.AuthorizeChild(c.Request.Context(), account, c.Param("childId"), access)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(targetChildKey, child)
		c.Next()
	}
}
