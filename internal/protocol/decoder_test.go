package protocol

import (
	"strings"
	"testing"
	"time"
)

func fixedDecoder(t *testing.T) *Decoder {
	t.Helper()
	d := NewDecoder()
	d.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return d
}

func decodeEvent(t *testing.T, d *Decoder, raw string) *Event {
	t.Helper()
	res := d.Decode(raw)
	if res.Kind != ResultEvent {
		t.Fatalf("expected event result, got kind %d for %q", res.Kind, raw)
	}
	return res.Event
}

func TestDecodeJoinSentinels(t *testing.T) {
	d := fixedDecoder(t)
	for _, raw := range []string{SentinelInvalidCode, SentinelInvalidMessage, "  Invalid join code \n"} {
		res := d.Decode(raw)
		if res.Kind != ResultJoinRejected {
			t.Errorf("%q: expected join rejection, got kind %d", raw, res.Kind)
		}
		if res.Sentinel != strings.TrimSpace(raw) {
			t.Errorf("%q: sentinel not preserved: %q", raw, res.Sentinel)
		}
	}
}

func TestDecodeTypedMessage(t *testing.T) {
	d := fixedDecoder(t)
	raw := `{"type":"message","id":"m1","author":"alice","content":"hi","timestamp":42,"readBy":{"bob":7}}`

	evt := decodeEvent(t, d, raw)
	if evt.Type != EventMessage {
		t.Fatalf("expected message event, got %s", evt.Type)
	}
	m := evt.Message
	if m.ID != "m1" || m.Author != "alice" || m.Content != "hi" || m.Timestamp != 42 {
		t.Errorf("fields not carried through: %+v", m)
	}
	if m.ReadBy["bob"] != 7 {
		t.Errorf("readBy not carried through: %v", m.ReadBy)
	}
}

func TestDecodeMessageDefaults(t *testing.T) {
	d := fixedDecoder(t)
	evt := decodeEvent(t, d, `{"type":"message","content":"bare"}`)

	m := evt.Message
	if m.Author != "Unknown" {
		t.Errorf("missing author should default to Unknown, got %q", m.Author)
	}
	if m.ID == "" || !strings.HasPrefix(m.ID, "msg_") {
		t.Errorf("missing id not synthesized: %q", m.ID)
	}
	if m.Timestamp == 0 {
		t.Error("missing timestamp not defaulted")
	}
	if m.ReadBy == nil {
		t.Error("missing readBy not defaulted to empty set")
	}
}

func TestDecodeEditAndReceipt(t *testing.T) {
	d := fixedDecoder(t)

	evt := decodeEvent(t, d, `{"type":"edit","id":"m1","content":"fixed"}`)
	if evt.Type != EventEdit || evt.Edit.ID != "m1" || evt.Edit.Content != "fixed" {
		t.Errorf("edit not decoded: %+v", evt)
	}

	evt = decodeEvent(t, d, `{"type":"read_receipt","id":"m1","readBy":{"bob":9}}`)
	if evt.Type != EventReadReceipt || evt.Receipt.ID != "m1" || evt.Receipt.ReadBy["bob"] != 9 {
		t.Errorf("receipt not decoded: %+v", evt)
	}
}

func TestDecodeStats(t *testing.T) {
	d := fixedDecoder(t)
	evt := decodeEvent(t, d, `{"type":"stats","totalMembers":5,"onlineMembers":2,"memberNames":["alice","bob"]}`)

	if evt.Type != EventStats {
		t.Fatalf("expected stats, got %s", evt.Type)
	}
	s := evt.Stats
	if s.TotalMembers != 5 || s.OnlineMembers != 2 || len(s.MemberNames) != 2 {
		t.Errorf("stats fields wrong: %+v", s)
	}
}

func TestDecodeHistoryUnwrapsNestedFrames(t *testing.T) {
	d := fixedDecoder(t)
	raw := `{"type":"history","messages":[
		{"type":"message","id":"m1","author":"alice","content":"one","timestamp":1},
		{"type":"stats","totalMembers":3,"onlineMembers":1},
		{"not":"a frame"},
		{"type":"message","id":"m2","author":"bob","content":"two","timestamp":2}
	]}`

	evt := decodeEvent(t, d, raw)
	if evt.Type != EventHistory {
		t.Fatalf("expected history, got %s", evt.Type)
	}
	if len(evt.History) != 3 {
		t.Fatalf("expected 3 nested events (untyped entry skipped), got %d", len(evt.History))
	}
	if evt.History[0].Type != EventMessage || evt.History[1].Type != EventStats || evt.History[2].Type != EventMessage {
		t.Errorf("nested event types wrong: %s %s %s",
			evt.History[0].Type, evt.History[1].Type, evt.History[2].Type)
	}
}

func TestDecodeBracketTagPlainText(t *testing.T) {
	d := fixedDecoder(t)
	evt := decodeEvent(t, d, "[alice]: hello there")

	m := evt.Message
	if m.Author != "alice" || m.Content != "hello there" {
		t.Errorf("bracket tag not split: %+v", m)
	}
	if !strings.Contains(m.ID, "alice") {
		t.Errorf("synthesized id should embed author: %q", m.ID)
	}
	if m.ReadBy == nil || len(m.ReadBy) != 0 {
		t.Errorf("expected empty reader set, got %v", m.ReadBy)
	}
}

func TestDecodeBracketTagPromotesJSONPayload(t *testing.T) {
	d := fixedDecoder(t)
	evt := decodeEvent(t, d, `[alice]: {"type":"message","content":"wrapped"}`)

	m := evt.Message
	if m.Author != "alice" {
		t.Errorf("extracted author not injected: %q", m.Author)
	}
	if m.Content != "wrapped" {
		t.Errorf("payload content lost: %q", m.Content)
	}
	if m.ID == "" || m.Timestamp == 0 {
		t.Errorf("missing id/timestamp not synthesized: %+v", m)
	}
}

func TestDecodeSystemBroadcast(t *testing.T) {
	d := fixedDecoder(t)

	evt := decodeEvent(t, d, "***alice joined***")
	if evt.Type != EventSystem || evt.System.Content != "alice joined" {
		t.Errorf("starred broadcast not decoded: %+v", evt)
	}

	evt = decodeEvent(t, d, `{"type":"system","content":"room closing","timestamp":5}`)
	if evt.Type != EventSystem || evt.System.Content != "room closing" || evt.System.Timestamp != 5 {
		t.Errorf("typed system frame not decoded: %+v", evt)
	}
}

func TestDecodeUnknownTypeBecomesSystemNotice(t *testing.T) {
	d := fixedDecoder(t)
	evt := decodeEvent(t, d, `{"type":"totally_new","content":"future frame"}`)

	if evt.Type != EventSystem {
		t.Fatalf("unknown type should degrade to system notice, got %s", evt.Type)
	}
	if evt.System.Content != "future frame" {
		t.Errorf("content lost: %q", evt.System.Content)
	}
}

func TestDecodeRawPassthrough(t *testing.T) {
	d := fixedDecoder(t)
	for _, raw := range []string{"just some text", `{"no":"type tag"}`, "{broken json"} {
		res := d.Decode(raw)
		if res.Kind != ResultRaw {
			t.Errorf("%q: expected raw passthrough, got kind %d", raw, res.Kind)
		}
		if res.Raw != raw {
			t.Errorf("%q: raw text altered: %q", raw, res.Raw)
		}
	}
}

func TestDecodePriorityJSONBeforeBracketTag(t *testing.T) {
	d := fixedDecoder(t)
	// A frame that is both valid JSON-with-type and would match the bracket
	// regex cannot exist, but a bracket line containing JSON-ish text must
	// stay a bracket message.
	evt := decodeEvent(t, d, `[alice]: {"almost":"json"}`)
	if evt.Type != EventMessage || evt.Message.Content != `{"almost":"json"}` {
		t.Errorf("untyped JSON payload should stay literal content: %+v", evt)
	}
}

func TestSyntheticIDCollisionGetsSequenceSuffix(t *testing.T) {
	d := NewDecoder()
	d.now = func() time.Time { return time.UnixMilli(1700000000000) }

	first := decodeEvent(t, d, "[alice]: one").Message.ID
	second := decodeEvent(t, d, "[alice]: two").Message.ID
	third := decodeEvent(t, d, "[alice]: three").Message.ID

	if first == second || second == third || first == third {
		t.Errorf("same-millisecond ids collide: %q %q %q", first, second, third)
	}
	if !strings.HasSuffix(second, "-1") || !strings.HasSuffix(third, "-2") {
		t.Errorf("expected sequence suffixes, got %q %q", second, third)
	}
}
