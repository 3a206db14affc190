package auth

import (
	"sort"
	"strings"

	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/service"
)

// OAuthRegistry looks up configured OAuth providers by route name.
type OAuthRegistry struct {
	providers map[string]service.OAuthProvider
}

// NewOAuthRegistry registers the given providers; nil entries are skipped so
// unconfigured providers can be passed straight from DI.
func NewOAuthRegistry(list ...service.OAuthProvider) *OAuthRegistry {
	providers := make(map[string]service.OAuthProvider, len(list))
	for _, p := range list {
		if p == nil {
			continue
		}
		providers[strings.ToLower(p.Name())] = p
	}

	return &OAuthRegistry{providers: providers}
}

// Get returns the provider registered under name.
func (r *OAuthRegistry) Get(name string) (service.OAuthProvider, error) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, domainerrors.ErrOAuthProviderUnknown.WithDetails(name)
	}

	return p, nil
}

// Names lists the registered providers in a stable order.
func (r *OAuthRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
