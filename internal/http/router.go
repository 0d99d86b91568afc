package httpserver

import "net/http"

// Routes groups handlers. Handlers arrive already wrapped in whatever
// middleware they need; the router only binds methods and paths.
type Routes struct {
	Root           http.Handler
	Health         http.Handler
	Zones          http.Handler
	VehicleCreate  http.Handler
	VehicleList    http.Handler
	SessionStart   http.Handler
	SessionStop    http.Handler
	SessionList    http.Handler
	SessionsActive http.Handler
	SessionGet     http.Handler
	WalletDeposit  http.Handler
}

// NewRouter registers endpoints. Method-qualified patterns let the mux
// answer 405 for wrong verbs on known paths.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	register(mux, "GET /{$}", routes.Root)
	register(mux, "GET /health", routes.Health)
	register(mux, "GET /zones", routes.Zones)
	register(mux, "POST /vehicles", routes.VehicleCreate)
	register(mux, "GET /vehicles", routes.VehicleList)
	register(mux, "POST /sessions/start", routes.SessionStart)
	register(mux, "POST /sessions/stop", routes.SessionStop)
	register(mux, "GET /sessions", routes.SessionList)
	register(mux, "GET /sessions/active", routes.SessionsActive)
	register(mux, "GET /sessions/{id}", routes.SessionGet)
	register(mux, "POST /wallet/deposit", routes.WalletDeposit)
	return mux
}

func register(mux *http.ServeMux, pattern string, handler http.Handler) {
	if handler != nil {
		mux.Handle(pattern, handler)
	}
}
