package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_integrity_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_integrity_core/internal/dto"
)

// CompanyHeader lets a caller pick a company of its tenant per request.
const CompanyHeader = "X-Company-ID"

// LedgerClaims are the JWT claims the ledger understands. Subject is the
// user id. System tokens carry no tenant and may only provision tenants.
type LedgerClaims struct {
	TenantID  string `json:"tenant_id,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	System    bool   `json:"system,omitempty"`
	jwt.RegisteredClaims
}

// AuthConfig holds the token verification settings.
type AuthConfig struct {
	Secret string
	Issuer string // empty skips the issuer check
}

// AuthMiddleware validates the bearer token, resolves the caller's scope
// through scopes and stores it in the request context.
func AuthMiddleware(cfg AuthConfig, scopes portssvc.ScopeSvc) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg(),
	})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Authorization header missing")
			abortWithError(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logger.Warn("Authorization header format invalid")
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims := &LedgerClaims{}
		token, err := parser.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.Secret), nil
		})
		if err != nil || !token.Valid {
			logger.Warn("Invalid token", "error", err)
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
				msg = "Token not valid yet"
			}
			abortWithError(c, http.StatusUnauthorized, msg)
			return
		}
		if claims.Subject == "" {
			logger.Error("User ID (subject) missing from valid token")
			abortWithError(c, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		var scope domain.Scope
		if claims.System && claims.TenantID == "" {
			scope = domain.SystemScope("", "")
		} else {
			companyID := claims.CompanyID
			if header := c.GetHeader(CompanyHeader); header != "" {
				companyID = header
			}
			scope, err = scopes.ResolveScope(c.Request.Context(), domain.Claims{
				Subject:   claims.Subject,
				TenantID:  claims.TenantID,
				CompanyID: companyID,
			})
			if err != nil {
				logger.Warn("Scope resolution failed", slog.String("user_id", claims.Subject), slog.String("error", err.Error()))
				code := apperrors.CodeOf(err)
				c.AbortWithStatusJSON(apperrors.HTTPStatus(code), dto.ErrorResponse{
					Code:      code,
					Detail:    apperrors.DetailOf(err),
					RequestID: GetRequestIDFromCtx(c.Request.Context()),
				})
				return
			}
		}

		enrichedLogger := logger.With(
			slog.String("user_id", claims.Subject),
			slog.String("tenant_id", scope.TenantID),
			slog.String("company_id", scope.CompanyID),
		)
		ctx := WithScope(c.Request.Context(), scope)
		ctx = WithLogger(ctx, enrichedLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{
		Code:      apperrors.CodeUnauthenticated,
		Detail:    detail,
		RequestID: GetRequestIDFromCtx(c.Request.Context()),
	})
}
