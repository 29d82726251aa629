// Package protocol defines the vocabulary shared by the InstaChat client and
// the store: nested query shapes, operation batches, live results and their
// wire encodings (protobuf Struct over gRPC, JSON frames over WebSocket).
//
// A query shape is a nested mapping. Each key names a collection (at the top
// level) or a relation (below it); the reserved key "$" carries options:
//
//	{"channel": {"$": {"is": "channels", "where": {"name": "general"}, "cardinality": "one"},
//	             "messages": {"user": {"$": {"is": "users", "cardinality": "one"}}}}}
//
// A live result mirrors the shape: collections map to lists of records,
// cardinality-one nodes map to a single record or null, and nested keys are
// attached to each record.
package protocol
