// Package store persists an audit log of relayed messages in SQLite so
// operators can inspect what the relay has sent and where.
package store
