package routes

import (
	"context"
	"net/http"

	"github.com/bjaus/xroute"
	"github.com/bjaus/xroute/jwtauth"
)

// Tokens issues bearer tokens.
type Tokens struct {
	xroute.Router
	auth jwtauth.Config
}

// Token is the issued token body.
type Token struct {
	Token string `json:"token"`
	Type  string `json:"token_type"`
}

// Issue signs a token for the subject in the request body.
func (t *Tokens) Issue(_ context.Context, args xroute.Args) (any, error) {
	subject := args.String(0)
	if subject == "" {
		return nil, xroute.Error(http.StatusBadRequest, "subject is required")
	}
	token, err := jwtauth.Sign(t.auth, subject, nil)
	if err != nil {
		return nil, err
	}
	return &Token{Token: token, Type: "Bearer"}, nil
}

func defineTokens(deps Deps) {
	xroute.Provide("tokens", func() xroute.Routable {
		return &Tokens{
			Router: xroute.Router{Doc: &xroute.Operation{Tags: []string{"auth"}}},
			auth:   deps.Auth,
		}
	})

	xroute.MustDefine(func(b *xroute.Builder[*Tokens]) {
		b.Post("Issue", (*Tokens).Issue,
			xroute.Path("/"),
			xroute.Arg(0, xroute.Body("subject")),
			xroute.WithSummary("Issue a token"),
			xroute.Throttle(xroute.RateLimitConfig{Rate: 1, Burst: 5}),
			xroute.WithJSONResponse(http.StatusOK, "Signed token", xroute.SchemaFor[Token]()),
			xroute.WithErrors(http.StatusBadRequest),
		)
	})
}
