package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/lead-intake/internal/platform/logging"
)

// SchemeName is the OpenAPI security scheme operations reference.
const SchemeName = "bearerAuth"

// Required is the Security value for operations that need a token.
var Required = []map[string][]string{{SchemeName: {}}}

type principalKey struct{}

// RegisterScheme documents the bearer scheme in the OpenAPI components.
func RegisterScheme(api huma.API) {
	components := api.OpenAPI().Components
	if components.SecuritySchemes == nil {
		components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	components.SecuritySchemes[SchemeName] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
		Description:  "Firebase ID token",
	}
}

// Middleware rejects requests to secured operations that lack a valid token.
// Operations without a Security requirement pass through untouched.
func Middleware(api huma.API, verifier Verifier) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if len(ctx.Operation().Security) == 0 {
			next(ctx)
			return
		}

		token, err := BearerToken(ctx.Header("Authorization"))
		if err == nil {
			var p *Principal
			if p, err = verifier.Verify(ctx.Context(), token); err == nil {
				next(huma.WithValue(ctx, principalKey{}, p))
				return
			}
		}

		applog.LogWarn(ctx.Context(), "authentication failed", zap.String("reason", reason(err)))
		if errors.Is(err, ErrUnavailable) {
			ctx.SetHeader("Retry-After", "30")
			_ = huma.WriteErr(api, ctx, http.StatusServiceUnavailable, "authentication temporarily unavailable")
			return
		}
		ctx.SetHeader("WWW-Authenticate", "Bearer")
		_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing or invalid bearer token")
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return "no_token"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, ErrUnavailable):
		return "keys_unavailable"
	default:
		return "invalid_token"
	}
}

// PrincipalFromContext returns the caller set by Middleware, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
