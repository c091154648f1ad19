package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"hatid/internal/models"
)

const actorContextKey = "actor"

// Auth validates the user service's JWT and injects the actor into the
// context. When roles are given, only those roles pass.
func Auth(secret string, roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			log.Println("[AUTH] [ERROR] missing token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			log.Println("[AUTH] [ERROR] invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			log.Println("[AUTH] [ERROR] token claims invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			log.Println("[AUTH] [ERROR]", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if len(allowed) > 0 && !allowed[actor.Role] {
			log.Printf("[AUTH] [ERROR] role %s not allowed here", actor.Role)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

func actorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	userID, _ := claims["userId"].(string)
	if strings.TrimSpace(userID) == "" {
		return models.Actor{}, errMissingClaim("userId")
	}

	roleValue, _ := claims["role"].(string)
	role := models.Role(roleValue)
	if !models.ValidRole(role) {
		return models.Actor{}, errMissingClaim("role")
	}

	name, _ := claims["name"].(string)
	phone, _ := claims["phone"].(string)

	return models.Actor{ID: userID, Role: role, Name: name, Phone: phone}, nil
}

type errMissingClaim string

func (e errMissingClaim) Error() string {
	return "claim missing or invalid: " + string(e)
}

// ActorFrom returns the actor injected by Auth. The boolean is false on
// routes that skipped the middleware.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	value, ok := c.Get(actorContextKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}
