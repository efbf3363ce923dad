package http

import (
	"fmt"
	"net/http"
	"strings"

	"checkout-service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"

	ctxCustomer = "customer"
	ctxRole     = "role"
)

// AuthRequired validates an HS256 bearer token and stores the caller in the context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth"})
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		sub := claimString(claims, "sub")
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}
		role := claimString(claims, "role")
		if role == "" {
			role = RoleCustomer
		}

		c.Set(ctxCustomer, domain.Customer{
			ID:    sub,
			Email: claimString(claims, "email"),
			Name:  claimString(claims, "name"),
			Phone: claimString(claims, "phone"),
		})
		c.Set(ctxRole, role)
		c.Next()
	}
}

func RoleRequired(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ctxRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

func currentCustomer(c *gin.Context) domain.Customer {
	v, _ := c.Get(ctxCustomer)
	cust, _ := v.(domain.Customer)
	return cust
}

func isStaff(c *gin.Context) bool {
	return c.GetString(ctxRole) == RoleStaff
}

// claimString accepts string or numeric claims.
func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
