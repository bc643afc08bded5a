package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/bjaus/xroute"
	"github.com/bjaus/xroute/jwtauth"
)

// Users serves the user collection.
type Users struct {
	xroute.Router
	store *Store
}

// UserList is the list response body.
type UserList struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

// NewUser is the create request body.
type NewUser struct {
	Name  string `json:"name" doc:"Display name"`
	Email string `json:"email" doc:"Email address"`
	Role  string `json:"role,omitempty" doc:"User role" enum:"admin,member"`
}

type createdUser struct {
	*User
}

func (createdUser) StatusCode() int { return http.StatusCreated }

// List returns users, optionally filtered by role.
func (u *Users) List(_ context.Context, args xroute.Args) (any, error) {
	users := u.store.List(args.String(0))
	return &UserList{Users: users, Total: len(users)}, nil
}

// Show returns one user.
func (u *Users) Show(_ context.Context, args xroute.Args) (any, error) {
	user, ok := u.store.Get(args.String(0))
	if !ok {
		return nil, xroute.Errorf(http.StatusNotFound, "user %s not found", args.String(0))
	}
	return user, nil
}

// Create adds a user from the request body.
func (u *Users) Create(_ context.Context, args xroute.Args) (any, error) {
	body := args.Map(0)
	name, _ := body["name"].(string)
	email, _ := body["email"].(string)
	role, _ := body["role"].(string)

	if strings.TrimSpace(name) == "" || !strings.Contains(email, "@") {
		return nil, xroute.Error(http.StatusUnprocessableEntity, "name and a valid email are required")
	}
	return createdUser{u.store.Create(name, email, role)}, nil
}

// Remove deletes a user.
func (u *Users) Remove(_ context.Context, args xroute.Args) (any, error) {
	if !u.store.Delete(args.String(0)) {
		return nil, xroute.Errorf(http.StatusNotFound, "user %s not found", args.String(0))
	}
	return nil, nil
}

func defineUsers(deps Deps) {
	xroute.Provide("users", func() xroute.Routable {
		return &Users{
			Router: xroute.Router{Doc: &xroute.Operation{Tags: []string{"users"}}},
			store:  deps.Store,
		}
	})

	userRef := xroute.SchemaRef("User")

	xroute.MustDefine(func(b *xroute.Builder[*Users]) {
		b.Get("List", (*Users).List,
			xroute.Path("/"),
			xroute.Arg(0, xroute.Query("role")),
			xroute.WithSummary("List users"),
			xroute.WithQueryParam("role", "Filter by role", false),
			xroute.WithJSONResponse(http.StatusOK, "Users", xroute.SchemaFor[UserList]()),
		)
		b.Get("Show", (*Users).Show,
			xroute.Path("/:id"),
			xroute.Arg(0, xroute.Params("id")),
			xroute.WithSummary("Get user by ID"),
			xroute.WithJSONResponse(http.StatusOK, "The user", userRef),
			xroute.WithErrors(http.StatusNotFound),
		)
		b.Post("Create", (*Users).Create,
			xroute.Path("/"),
			xroute.Arg(0, xroute.Body("")),
			xroute.WithSummary("Create user"),
			xroute.WithBodyLimit(1<<20),
			xroute.WithJSONBody(xroute.SchemaFor[NewUser](), true),
			xroute.WithJSONResponse(http.StatusCreated, "Created", userRef),
			xroute.WithErrors(http.StatusUnprocessableEntity),
		)
		b.Delete("Remove", (*Users).Remove,
			xroute.Path("/:id"),
			xroute.Arg(0, xroute.Params("id")),
			xroute.WithSummary("Delete user"),
			xroute.WithResponse(http.StatusNoContent, "Deleted"),
			xroute.WithErrors(http.StatusNotFound),
		)

		// Writes require a token.
		b.Apply("Create", jwtauth.Require(deps.Auth))
		b.Apply("Remove", jwtauth.Require(deps.Auth))
	})
}
