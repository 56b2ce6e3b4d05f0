// Package growiclient provides the primary entry point for constructing a
// GROWI wiki client that implements the growi.Client interface.
//
// It layers configuration, HTTP transport and credentials on top of the
// resource interfaces and types defined in the growi package. Most
// applications import growiclient to build a client, then use the returned
// growi.Client to reach Pages(), Attachments() and Tags().
//
// # Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/growi/pkg/growi"
//	  "github.com/fivetwenty-io/growi/pkg/growiclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := growiclient.NewWithToken(ctx, "wiki.example.com", "api-token")
//	  if err != nil { log.Fatal(err) }
//
//	  exists, err := cli.Pages().Exists(ctx, growi.ByPath("/team/notes"))
//	  if err != nil { log.Fatal(err) }
//
//	  if !exists {
//	    _, err = cli.Pages().Create(ctx, "/team/notes", "# Notes", growi.GrantPublic)
//	    if err != nil { log.Fatal(err) }
//	  }
//	}
//
// Base URLs without a scheme default to https, and trailing slashes are
// removed.
//
// # Retries and resilience
//
// Retries are off by default so a write is never sent twice without the
// caller knowing. Set Config.RetryMax to retry transport errors, 429 and 5xx,
// and Config.CircuitBreaker to fail fast while the wiki is down.
//
// # Observability
//
// Config.MetricsRegisterer receives per-operation Prometheus metrics. Spans
// are created on the global OpenTelemetry tracer provider. Config.Events, for
// example a growi.NATSPublisher, is notified after each successful write.
package growiclient
