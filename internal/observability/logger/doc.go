// Package logger provides the process-wide structured logger.
//
// A zap singleton is initialized once (Init) and then reached either
// directly (L) or through the request context (From), where middleware can
// have injected a scoped logger carrying request fields. Library code
// always goes through From(ctx) so it logs sensibly whether or not a host
// wired the middleware.
package logger
