// Package server assembles the sample protected API: a gorilla/mux router
// behind the security pipeline configured in [config.AuthConfig].
//
// Routes:
//
//	GET /whoami   the authenticated identity as JSON
//	GET /admin    requires SCOPE_admin or ROLE_ADMIN
//	GET /healthz  liveness, bypasses authentication
//	GET /metrics  Prometheus metrics when enabled
package server
