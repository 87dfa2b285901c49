// Package tracing records the payloads crossing port models into a
// datarecording database, one row per hook position reached.
package tracing

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sarchlab/akitaio/canport"
	"github.com/sarchlab/akitaio/datarecording"
	"github.com/sarchlab/akitaio/ioport"
	"github.com/sarchlab/akitaio/sim"
	"github.com/sarchlab/akitaio/udpport"
)

// Table names used by the tracer.
const (
	SessionTable = "akitaio_sessions"
	PayloadTable = "akitaio_payloads"
)

// DefaultPreviewLen is the number of payload bytes kept in a row.
const DefaultPreviewLen = 16

type sessionEntry struct {
	ID        string
	StartedAt string
	Note      string
}

type payloadEntry struct {
	Session string
	Time    float64
	Port    string
	Kind    string
	Size    int
	Preview string
	Detail  string
}

// PayloadTracer is a hook that records payload activity of port models.
type PayloadTracer struct {
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder
	session    string
	previewLen int
}

// NewPayloadTracer creates the tracer tables and opens a new session.
func NewPayloadTracer(
	timeTeller sim.TimeTeller,
	backend datarecording.DataRecorder,
	note string,
) *PayloadTracer {
	t := &PayloadTracer{
		timeTeller: timeTeller,
		backend:    backend,
		session:    uuid.NewString(),
		previewLen: DefaultPreviewLen,
	}

	backend.CreateTable(SessionTable, sessionEntry{})
	backend.CreateTable(PayloadTable, payloadEntry{})
	backend.InsertData(SessionTable, sessionEntry{
		ID:        t.session,
		StartedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Note:      note,
	})

	return t
}

// Session returns the ID shared by every row this tracer writes.
func (t *PayloadTracer) Session() string {
	return t.session
}

// Func records one row per payload hook. Other hooks are ignored.
func (t *PayloadTracer) Func(ctx sim.HookCtx) {
	kind := kindOf(ctx.Pos)
	if kind == "" {
		return
	}

	item := ctx.Item
	if msg, ok := item.(interface{ Content() any }); ok {
		item = msg.Content()
	}

	size, preview := describe(item, t.previewLen)
	entry := payloadEntry{
		Session: t.session,
		Time:    float64(t.timeTeller.CurrentTime()),
		Port:    domainName(ctx.Domain),
		Kind:    kind,
		Size:    size,
		Preview: preview,
	}

	if ctx.Detail != nil {
		entry.Detail = fmt.Sprint(ctx.Detail)
	}

	t.backend.InsertData(PayloadTable, entry)
}

func kindOf(pos *sim.HookPos) string {
	switch pos {
	case ioport.HookPosPayloadDrained:
		return "drained"
	case ioport.HookPosPayloadEmitted:
		return "emitted"
	case ioport.HookPosPayloadTransmitted:
		return "transmitted"
	case ioport.HookPosSendFailed:
		return "send_failed"
	default:
		return ""
	}
}

func domainName(d sim.Hookable) string {
	if n, ok := d.(sim.Named); ok {
		return n.Name()
	}

	return fmt.Sprintf("%T", d)
}

func describe(item any, previewLen int) (int, string) {
	switch p := item.(type) {
	case []byte:
		return len(p), hexPreview(p, previewLen)
	case udpport.Datagram:
		return len(p.Bytes), p.Addr.String() + " " + hexPreview(p.Bytes, previewLen)
	case canport.Data:
		return int(p.Frame.Len), fmt.Sprintf("%d %s", p.Interface, p.Frame)
	case fmt.Stringer:
		return 0, p.String()
	default:
		return 0, fmt.Sprintf("%v", p)
	}
}

func hexPreview(b []byte, n int) string {
	if len(b) <= n {
		return hex.EncodeToString(b)
	}

	return hex.EncodeToString(b[:n]) + "..."
}
