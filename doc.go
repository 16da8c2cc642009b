// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package schedsi implements a discrete-event simulator for hierarchical
// thread scheduling.
//
// Given a tree of modules, each owning its own scheduler and threads,
// schedsi advances virtual time one atomic operation at a time and
// produces a deterministic event stream, from which Gantt-style SVG
// charts and per-thread statistics can be derived.
//
// The simulated hierarchy is driven by a Core: a driver that pulls
// Requests out of suspendable Thread/Scheduler computations, maintains a
// ContextChain (the stack of nested scheduler/thread activations),
// enforces nested timers, splits the chain on timeout, accounts time
// exactly (vtime.Time, never floating point), and records Events to an
// EventSink. Two Core variants are supported: LocalTimer, where every
// context may own an independent timer, and KernelTimerOnly, where only
// the bottom (kernel) scheduler may set a timer and every other
// activation is discarded on timeout or idle.
package schedsi
