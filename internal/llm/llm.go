package llm

import "context"

// Stream is a pull-based sequence of Events. The consumer's pull rate governs
// how fast the underlying byte stream is read; dropping the stream early and
// calling Close releases the upstream reader. Usage mirrors the familiar
// SDK iterator shape:
//
//	for stream.Next() {
//		ev := stream.Current()
//		...
//	}
//	if err := stream.Err(); err != nil { ... }
type Stream interface {
	Next() bool
	Current() Event
	Err() error
	Close() error
}

// Provider executes calls against a text-generation backend, translating
// between the canonical protocol and the backend's wire format.
type Provider interface {
	Generate(ctx context.Context, opts CallOptions) (*Result, error)
	Stream(ctx context.Context, opts CallOptions) (Stream, error)
}
