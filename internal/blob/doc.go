// Package blob stores uploaded binary objects under uploads/<uuid>.<ext>
// keys. S3Store is the production backend; FSStore is the local fallback
// used when S3 is disabled and in tests.
package blob
