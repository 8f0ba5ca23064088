/*
Package httpserver implements the HTTP API of the document registry backend.

It exposes the registration, verification and flag operations over a chi
router, together with the operational endpoints used by load balancers and
orchestration.

# API endpoints

  - POST /documents/issue - a verified authority registers a document for a
    receiver
  - POST /documents/upload - a user registers a document they hold themselves
  - GET /documents - the caller's held documents; ?issued=true for an
    authority's issued set
  - POST /blockchain/flag - toggle the flag of a ledger entry
  - POST /blockchain/verify - authenticity lookup by ledger index or tx hash
  - GET /blockchain/count - total number of entries on the ledger

# Operational endpoints

  - GET /livez - liveness check
  - GET /readyz - readiness check, honoring drain state
  - GET /drain - mark the server not ready
  - GET /undrain - mark the server ready again

# Authentication

Every API endpoint requires a bearer JWT issued by the external user system.
The token's subject claim names the acting identity, which the middleware
resolves through the identity directory and attaches to the request context.
Authorization (who may issue or verify) is enforced per handler.

# Error responses

Errors are returned as {"error": "..."} bodies. Definitive ledger or content
store failures map to 500 with the failing stage named; a finalization
timeout maps to 504 with an explicit instruction to verify by read before
retrying; a flag write that finalized on the ledger without a local mirror
maps to 202 with a warning.
*/
package httpserver
