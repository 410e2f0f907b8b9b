// Package ntfy is a client for ntfy-style topic pub/sub notification servers,
// usable as a library and as the ntfy command line tool (cmd/ntfy).
//
// # Features
//
//   - Long-lived streaming subscriptions that reconnect on their own
//   - Exponential backoff with jitter: 1s → 2s → 4s … 1m (max)
//   - Exact resume: reconnects continue after the last delivered message,
//     with no gaps and no duplicates
//   - Keepalive watchdog that drops silent connections
//   - Client-side filtering (id, message, title, priority, tags) on top of
//     the server's own, so results do not depend on server version
//   - Publishing as JSON or as a raw body with X-* headers, with an
//     asynchronous handle resolving to the server's acknowledgement
//   - Options Pattern for configuration; pluggable Logger, Observer, Transport
//   - Optional watermark persistence and message archive on MySQL,
//     PostgreSQL or SQLite via Relica adapters
//
// # Quick Start
//
// Create a client:
//
//	client, err := ntfy.NewClient(
//	    ntfy.WithBaseURL("https://ntfy.example.com"),
//	    ntfy.WithAuth(ntfy.BearerToken(token)),
//	    ntfy.WithLogger(ntfy.NewSlogLogger(slog.Default())),
//	)
//
// Publish a message:
//
//	resp, err := client.Publish(ctx, "alerts", &model.PublishRequest{
//	    Message:  "disk full",
//	    Title:    "db01",
//	    Tags:     []string{"warning"},
//	    Priority: 5,
//	})
//	if err != nil {
//	    return err // Invalid request, nothing was sent
//	}
//	ack, err := resp.Wait()
//	if ntfy.IsRejected(err) {
//	    // The server refused the message (auth, limits, validation)
//	}
//
// Subscribe:
//
//	sub, err := client.Subscribe(ctx, []string{"alerts"}, model.SubscribeFilter{
//	    Priorities: []int{4, 5},
//	})
//	if err != nil {
//	    return err
//	}
//	defer sub.Close()
//
//	for m := range sub.All() {
//	    fmt.Println(m.Title, m.Message)
//	}
//
// # Subscription lifecycle
//
// Each Subscription runs one goroutine and one connection:
//
//	Connecting -> Streaming -> Disconnected -> Connecting -> ... -> Closed
//
// Connection failures are retried indefinitely and reported only to the
// Observer. Closed is reached when the context is cancelled, Close is
// called, or a poll-mode subscription has received the full backlog.
//
// # Topic bindings
//
// A TopicClient binds one topic; a Registry builds one Client per named
// server and one TopicClient per configured topic:
//
//	reg, err := ntfy.NewRegistry(profiles)
//	alerts, err := reg.Topic("home", "alerts")
//	resp, err := alerts.Publish(ctx, &model.PublishRequest{Message: "hi"}, nil)
//
// # Persistence
//
// With a WatermarkStore, a subscription created without an explicit Since
// resumes after the last message delivered to any earlier subscription
// with the same topics and filter:
//
//	repos := relica.NewRepositories(db, "sqlite3")
//	client, err := ntfy.NewClient(append(repos.Options(), ntfy.WithBaseURL(url))...)
//
// Apply the schema first with Migrate, or use MigrationFiles with your
// migration tool.
package ntfy
