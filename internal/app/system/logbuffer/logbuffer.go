// internal/app/system/logbuffer/logbuffer.go

// Package logbuffer keeps the most recent log lines in memory so the admin
// panel can show a tail without touching files. It plugs into zap as a tee'd
// core alongside the normal output.
package logbuffer

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// Entry is one captured log line.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Buffer is a fixed-capacity ring of recent log entries.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// New creates a buffer holding up to capacity entries; older entries are
// overwritten in arrival order.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 200
	}
	return &Buffer{entries: make([]Entry, capacity)}
}

// Append records one entry.
func (b *Buffer) Append(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[b.next] = e
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
}

// Tail returns up to n of the most recent entries, oldest first.
func (b *Buffer) Tail(n int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	var ordered []Entry
	if b.full {
		ordered = append(ordered, b.entries[b.next:]...)
		ordered = append(ordered, b.entries[:b.next]...)
	} else {
		ordered = append(ordered, b.entries[:b.next]...)
	}
	if n > 0 && len(ordered) > n {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}

// Len returns how many entries are currently held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full {
		return len(b.entries)
	}
	return b.next
}

// core adapts Buffer to zapcore.Core so it can be tee'd into a logger.
type core struct {
	zapcore.LevelEnabler
	buf    *Buffer
	fields []zapcore.Field
}

// NewCore returns a zap core that records every enabled entry into buf.
// Tee it with the primary core when building the logger.
func NewCore(buf *Buffer, enab zapcore.LevelEnabler) zapcore.Core {
	return &core{LevelEnabler: enab, buf: buf}
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	clone := &core{LevelEnabler: c.LevelEnabler, buf: c.buf}
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	msg := ent.Message
	all := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	all = append(all, c.fields...)
	all = append(all, fields...)
	if len(all) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, f := range all {
			f.AddTo(enc)
		}
		msg = fmt.Sprintf("%s %v", msg, enc.Fields)
	}
	c.buf.Append(Entry{Time: ent.Time, Level: ent.Level.String(), Message: msg})
	return nil
}

func (c *core) Sync() error { return nil }
