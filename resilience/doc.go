// Package resilience retries operations that touch external collaborators,
// such as opening and pinging SQL engines behind SQL-backed subjects.
//
//	db, err := resilience.Retry(ctx, resilience.ConnectRetryConfig(3), func() (*sql.DB, error) {
//	    return open(ctx)
//	})
package resilience
