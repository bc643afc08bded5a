// Package xroute declares HTTP endpoints as methods on router types and
// compiles those declarations twice: into a chi route table that serves
// requests, and into an OpenAPI 3.0 document that describes them.
//
// A router is any type that embeds xroute.Router. Its endpoints are declared
// once per type, usually from init:
//
//	type Users struct {
//	    xroute.Router
//	    store *Store
//	}
//
//	func (u *Users) Show(ctx context.Context, args xroute.Args) (any, error) {
//	    return u.store.Find(ctx, args.String(0))
//	}
//
//	func init() {
//	    xroute.MustDefine(func(b *xroute.Builder[*Users]) {
//	        b.Get("Show", (*Users).Show,
//	            xroute.Path("/:id"),
//	            xroute.Arg(0, xroute.Params("id")),
//	            xroute.WithSummary("Fetch a user"),
//	        )
//	    })
//	}
//
// Handlers receive positional arguments produced by binders (Params, Query,
// Body, Header, Req) and return a value or an error. Middleware attached with
// Use runs first and may stop the request; returning ErrNext hands it to the
// server's fallthrough handler.
//
// A Server mounts router instances:
//
//	srv := xroute.NewServer()
//	srv.Mount(&Users{Router: xroute.Router{Path: "/users"}, store: store})
//
// and a Document describes them:
//
//	doc := xroute.NewDocument(xroute.WithTitle("Users"))
//	doc.AddRouter(users)
//	srv.ServeSpec("/openapi.json", doc)
package xroute
