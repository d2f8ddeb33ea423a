// Package permission decides whether a tool operation may touch a path.
//
// A persisted allow-list of directories short-circuits the check: any path
// equal to or nested under a listed directory is auto-approved. Everything
// else suspends the calling task on a single-use channel until an external
// actor resolves the request through Manager.Resolve, with no timeout. A
// request resolves at most once; dropping the channel (teardown) fails the
// waiting task with Cancelled.
//
// The allow-list lives in a KEY=VALUE blob behind the BlobStore
// collaborator. This package owns the ALLOWED_DIRECTORIES key and
// preserves every other key when rewriting the blob. Persistence failures
// are warnings only: an already-granted operation is never revoked because
// saving the grant failed.
package permission
