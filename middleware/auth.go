package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/songbirdapp/songbird/utils"
)

// Auth validates the bearer token, rejects revoked tokens and stores the
// caller identity on the context.
func Auth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			utils.Error(ctx, http.StatusUnauthorized, 40100, "missing or malformed authorization header")
			ctx.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		if utils.IsTokenBlacklisted(ctx.Request.Context(), token) {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid or expired token")
			ctx.Abort()
			return
		}

		ctx.Set("user_id", claims.UserID)
		ctx.Set("username", claims.Username)
		ctx.Set("token", token)
		ctx.Next()
	}
}
