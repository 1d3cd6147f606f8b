// Package server exposes genmesh over HTTP.
//
// Routes:
//
//	POST /config                 configuration event: {"<user>": {"app_ids": [...]}}
//	POST /execute                run a generation: {"user_id": "...", "prompt": "..."}
//	GET  /memory                 long-term ledger
//	GET  /sessions/{id}/memory   session-scoped records
//	GET  /healthz                liveness
//	GET  /metrics                Prometheus metrics
package server
