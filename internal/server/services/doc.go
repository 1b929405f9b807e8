// Package services contains the server-side business logic: sync
// reconciliation with its access overlay, note listing and sharing,
// accounts and tokens, and note export.
package services
