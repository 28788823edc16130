// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream adapts lazily produced reply chunks into cumulative text
// updates.
//
// A Source is a range-over-func sequence of chunks. Consume folds it into
// the full-so-far text and hands every intermediate value to a callback, so
// no presentation code ever concatenates deltas itself. Pump additionally
// drives a streaming message to its final state: finished on exhaustion,
// annotated with the error on failure.
//
//	final, err := stream.Pump(conv, botID, session.StreamReply(ctx, text))
package stream
