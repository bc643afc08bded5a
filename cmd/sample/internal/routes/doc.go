// Package routes holds the sample routers. Each router lives in a file named
// after its mount path and is provided to the catalog under that name, so
// the directory listing embedded in Sources drives discovery.
package routes

import (
	"embed"
	"sync"

	"github.com/bjaus/xroute/jwtauth"
)

// Sources is the listing of this directory.
//
//go:embed *.go
var Sources embed.FS

// Deps are the dependencies shared by every router.
type Deps struct {
	Store *Store
	Auth  jwtauth.Config
}

var setup sync.Once

// Setup declares every router and provides its factory. Only the first call
// has any effect.
func Setup(deps Deps) {
	setup.Do(func() {
		defineHealth()
		defineUsers(deps)
		defineTokens(deps)
	})
}
