// Package httpclient provides HTTP client utilities for hostprobe.
//
// The httpclient package handles probe request construction and client setup:
//   - A uniform per-request timeout shared by every execution strategy
//   - Static headers validated once at startup
//   - Optional W3C trace context propagation
//   - A scoped [Session] for strategies that share one client across hosts
//
// # Request Building
//
// Use [NewRequestBuilder] to create a builder from configured headers:
//
//	builder, err := httpclient.NewRequestBuilder(cfg.Headers)
//	if err != nil {
//		return err
//	}
//	req, err := builder.Build(ctx, "https://example.com")
//
// # HTTP Client
//
// The [NewClient] function creates an HTTP client with the given timeout and
// connection reuse:
//
//	client := httpclient.NewClient(10 * time.Second)
//	resp, err := client.Do(req)
//
// A [Session] wraps one client for the lifetime of a run and releases its idle
// connections on Close.
package httpclient
