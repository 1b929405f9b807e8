// Package api holds the wire types exchanged between the GophNotes client and
// server. The same JSON documents travel over HTTP and over gRPC, where they
// are carried by a JSON codec registered under the "json" content subtype.
package api
