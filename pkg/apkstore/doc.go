// Package apkstore provides the artifact ingestion and catalog engine for
// the APK store: slug generation, the two-phase blob-plus-catalog write and
// delete protocol, and the read-side listing contract.
//
// It exposes a single Service interface whose coordinators orchestrate
// validate, store-artifact, store-preview, insert-record for ingestion and
// the mirror-image teardown for retirement, with best-effort rollback on
// partial failure. Blob stores (memory, filesystem, S3) and catalogs
// (memory, Postgres) are pluggable implementations provided under
// subpackages; the coordinators are backend-agnostic.
//
// Visibility order is the load-bearing invariant: a record is inserted into
// the catalog only after every blob it references has been durably stored,
// so readers never observe a record whose blobs cannot be dereferenced.
package apkstore
