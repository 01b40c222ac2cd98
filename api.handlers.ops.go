package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// ProfilerPathPrefix is the root of the runtime profiling endpoints.
const ProfilerPathPrefix = "/ops/debug/pprof/"

// profilerEndpoint binds a profile name to the handler serving it.
type profilerEndpoint struct {
	name    string
	handler http.Handler
}

// profilerEndpoints lists the served profiles. An empty name is the index page.
func profilerEndpoints() []profilerEndpoint {
	return []profilerEndpoint{
		{"", http.HandlerFunc(pprof.Index)},
		{"profile", http.HandlerFunc(pprof.Profile)},
		{"trace", http.HandlerFunc(pprof.Trace)},
		{"symbol", http.HandlerFunc(pprof.Symbol)},
		{"cmdline", http.HandlerFunc(pprof.Cmdline)},
		{"heap", pprof.Handler("heap")},
		{"allocs", pprof.Handler("allocs")},
		{"goroutine", pprof.Handler("goroutine")},
		{"threadcreate", pprof.Handler("threadcreate")},
		{"block", pprof.Handler("block")},
		{"mutex", pprof.Handler("mutex")},
	}
}

// OpsHandlerWrapper adapts a standard handler to the router.
func (api *APIHandler) OpsHandlerWrapper(h http.Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}

// ProfilerHandler serves a runtime profile and records who asked for it.
// Profiles like `profile` and `trace` block for the requested duration.
func (api *APIHandler) ProfilerHandler(name string, h http.Handler) httprouter.Handle {
	if name == "" {
		name = "index"
	}
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		api.GetLoggerFromContext(r.Context()).Info("serving runtime profile",
			zap.String("profile.name", name),
			zap.String("profile.query", r.URL.RawQuery),
			zap.String("request.ip", GetRequestSourceIP(r)),
		)
		h.ServeHTTP(w, r)
	}
}
