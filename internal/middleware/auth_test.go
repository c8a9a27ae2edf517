package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edusmart-import-api/internal/models"
	appErrors "github.com/noah-isme/edusmart-import-api/pkg/errors"
)

type tokenValidatorStub map[string]*models.JWTClaims

func (s tokenValidatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Access denied. Admin only.")
}

func adminRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator := tokenValidatorStub{
		"admin-token":  {UserID: "admin", Role: models.RoleAdmin},
		"viewer-token": {UserID: "v-1", Role: models.UserRole("viewer")},
	}
	router := gin.New()
	router.GET("/protected", JWT(validator), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		claims, _ := CurrentClaims(c)
		c.String(http.StatusOK, claims.UserID)
	})
	return router
}

func TestAdminRoutes(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "missing header", status: http.StatusUnauthorized, message: "Access denied. No token provided."},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized, message: "Access denied. No token provided."},
		{name: "unknown token", header: "Bearer nope", status: http.StatusUnauthorized, message: "Access denied. Admin only."},
		{name: "wrong role", header: "Bearer viewer-token", status: http.StatusUnauthorized, message: "Access denied. Admin only."},
		{name: "admin", header: "Bearer admin-token", status: http.StatusOK},
	}

	router := adminRouter()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			if tc.message == "" {
				assert.Equal(t, "admin", rec.Body.String())
				return
			}
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["message"])
		})
	}
}
