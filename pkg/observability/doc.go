/*
Package observability exposes bridge activity as Prometheus metrics.

Metrics live on a private registry so several bridges can run in one process
(tests do). Serve them with Metrics.Handler.
*/
package observability
