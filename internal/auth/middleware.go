package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/escola-solidaria/solidaria-api/internal/models"
	pkghttp "github.com/escola-solidaria/solidaria-api/pkg/http"
)

// Account kinds carried on a Principal.
const (
	KindStudent = "aluno"
	KindStaff   = "staff"
)

// Principal is the authenticated account attached to a request. It is loaded
// fresh from the database on every request, so role and active changes take
// effect immediately even on previously issued tokens.
type Principal struct {
	ID         string
	Name       string
	Handle     string
	Email      string
	Role       string
	Kind       string
	Active     bool
	FirstLogin bool
}

// PrincipalLoader resolves a token subject to a live account. Implementations
// return models.ErrNotFound when no account exists for the id.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, id string) (*Principal, error)
}

type contextKey string

const principalContextKey contextKey = "principal"

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok
}

// WithPrincipal attaches a principal to a context. Exposed for tests.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// Gate guards routes with token verification and role checks. The legacy
// flag selects the Portuguese response envelope used by the student-facing
// routes; staff routes use the English one.
type Gate struct {
	tokens *TokenManager
	loader PrincipalLoader
	legacy bool
}

func NewGate(tokens *TokenManager, loader PrincipalLoader, legacy bool) *Gate {
	return &Gate{tokens: tokens, loader: loader, legacy: legacy}
}

// Authenticate rejects requests without a valid token or a live, active
// account behind it.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			g.fail(w, http.StatusUnauthorized, "Acesso negado. Token não fornecido.")
			return
		}

		claims, err := g.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				g.fail(w, http.StatusUnauthorized, "Token expirado. Faça login novamente.")
				return
			}
			g.fail(w, http.StatusUnauthorized, "Token inválido.")
			return
		}

		principal, err := g.loader.LoadPrincipal(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				g.fail(w, http.StatusUnauthorized, "Token inválido. Usuário não encontrado.")
				return
			}
			g.fail(w, http.StatusInternalServerError, "Erro ao validar autenticação.")
			return
		}

		if !principal.Active {
			g.fail(w, http.StatusForbidden, "Conta desativada. Entre em contato com o administrador.")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// Optional attaches a principal when a valid token is present and lets the
// request through anonymously otherwise. Used by routes whose response is
// richer for logged-in users.
func (g *Gate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := g.tokens.Verify(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := g.loader.LoadPrincipal(r.Context(), claims.Subject)
		if err != nil || !principal.Active {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireRole allows only principals whose role is in the given set. It must
// run after Authenticate.
func (g *Gate) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				g.fail(w, http.StatusUnauthorized, "Autenticação necessária.")
				return
			}

			if _, ok := allowed[principal.Role]; !ok {
				g.fail(w, http.StatusForbidden, "Usuário com papel '"+principal.Role+"' não tem permissão para acessar este recurso.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) fail(w http.ResponseWriter, status int, message string) {
	if g.legacy {
		pkghttp.WriteErrorPT(w, status, message)
		return
	}
	pkghttp.WriteError(w, status, message)
}
