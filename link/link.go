// Package link moves transcripts off the device: a short-range mirror to the
// paired phone and a long-range backup to cloud storage.
package link

import (
	"context"
	"errors"

	"earshot/store"
	"earshot/transcript"
)

var ErrNotConnected = errors.New("link: not connected")

type ShortRange interface {
	IsConnected(ctx context.Context) bool
	// Sync mirrors the full history. The peer replaces what it had.
	Sync(ctx context.Context, history []transcript.Record) error
}

type LongRange interface {
	IsEnabled() bool
	IsConnected(ctx context.Context) bool
	// Backup uploads records. Success means every record was accepted.
	Backup(ctx context.Context, records []store.Record) error
}

// Disabled is used when a link is not configured.
type Disabled struct{}

func (Disabled) IsEnabled() bool                                { return false }
func (Disabled) IsConnected(context.Context) bool                { return false }
func (Disabled) Sync(context.Context, []transcript.Record) error { return ErrNotConnected }
func (Disabled) Backup(context.Context, []store.Record) error    { return ErrNotConnected }
