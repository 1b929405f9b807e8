// Package models holds the persistent server-side records.
package models
