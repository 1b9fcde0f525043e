// Package jobs tracks in-flight per-scene operations.
//
// The Tracker is pure bookkeeping: TryAcquire/Release on a (kind, sceneID)
// key. It is the only serialization mechanism between scene operations;
// there is no global lock and no cross-kind exclusion.
package jobs
