// Package recipecontent provides authorization-gated storage for recipe
// images on top of pluggable blob storage backends.
//
// It exposes a single Service that checks its arguments, asks an
// AuthorizationProvider whether a user is signed in, gates uploads on the
// declared MIME type and byte size of the file, and then delegates to a
// BlobStore keyed by "recipeImage_<recipe uuid>". Blob stores (memory,
// filesystem, S3, MinIO) live under storage/, authorization providers and
// token verifiers under auth/, and the client-side input validation helpers
// under validation/.
//
// Precondition Order
//
// Every guarded operation checks, in order: required arguments, then
// authentication, then (uploads only) file type and file size, and only then
// touches storage. When several preconditions fail at once the first one in
// that order is the error returned.
package recipecontent
