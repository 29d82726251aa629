// Package client contains the client side of the store connection.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (Store, Subscription) for the three store
//     primitives the chat core needs: subscribe to a query shape, transact a
//     batch of operations, and ping for reachability.
//  2. Concrete transports: GRPCClient (default, hand-declared service over
//     protobuf Struct messages), WSClient (JSON frames over a WebSocket) and
//     LocalStore (an embedded in-memory store for offline runs and tests).
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Transport failures wrap common.ErrStoreTransport. ErrUnavailable means the
// store could not be reached; ErrRejected means it refused a batch or query.
//
// # Concurrency
//
// Stores are safe for concurrent use. A subscription lives until the context
// passed to Subscribe ends or the transport fails; its Updates channel is
// then closed and Err reports the failure, or nil on cancel.
package client
