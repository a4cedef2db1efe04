package routes

import (
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/lead-intake/internal/http/v1/leads"
	"github.com/janisto/lead-intake/internal/platform/auth"
	"github.com/janisto/lead-intake/internal/service/lead"
)

// Deps are the services the v1 routes depend on.
type Deps struct {
	Store     lead.Store
	Submitter leads.Submitter
	// Verifier authenticates bearer tokens. Required when ListAuth is set.
	Verifier auth.Verifier
	ListAuth bool
}

// Register wires all v1 routes into the provided API router.
func Register(api huma.API, deps Deps) {
	prefix := apiPrefix(api)

	if deps.Verifier != nil {
		auth.RegisterScheme(api)
		api.UseMiddleware(auth.Middleware(api, deps.Verifier))
	}

	leads.Register(api, deps.Store, deps.Submitter, prefix, leads.Options{
		ListAuth: deps.ListAuth && deps.Verifier != nil,
	})
}

func apiPrefix(api huma.API) string {
	for _, s := range api.OpenAPI().Servers {
		if u, err := url.Parse(s.URL); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return ""
}
