package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"homework-forwarder/internal/entities"
	"homework-forwarder/internal/repository"
)

const (
	testSource = int64(100)
	testDest   = int64(200)
	testAdmin  = int64(999)
)

func newTestPipeline(t *testing.T, out *fakeOutbound) *ForwardPipeline {
	t.Helper()
	routes := repository.NewRouteTable()
	if err := routes.Add(testSource, testDest); err != nil {
		t.Fatalf("seed route: %v", err)
	}

	p := &ForwardPipeline{
		Routes:                  routes,
		Store:                   repository.NewActivityStore(nil),
		Dispatcher:              &MediaDispatcher{Outbound: out},
		Outbound:                out,
		AdminChatID:             testAdmin,
		ForwardUncaptionedMedia: true,
	}
	p.SetAllowedSources(map[int64]struct{}{testSource: {}})
	return p
}

func textMessage(text string) entities.InboundMessage {
	return entities.InboundMessage{
		ID:           42,
		SourceChatID: testSource,
		SenderID:     7,
		SenderName:   "@student",
		Timestamp:    time.Now(),
		Content:      entities.MessageContent{Kind: entities.KindText, Text: text},
	}
}

func TestPipeline_UntrustedSourceDeleted(t *testing.T) {
	out := newFakeOutbound()
	p := newTestPipeline(t, out)

	msg := textMessage("homework assignment page 3")
	msg.SourceChatID = 555 // not allow-listed

	outcome, err := p.Handle(context.Background(), msg)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeDeleted {
		t.Fatalf("outcome = %v, want deleted", outcome)
	}
	if len(out.deleted) != 1 || out.deleted[0] != 42 {
		t.Errorf("deleted = %v, want [42]", out.deleted)
	}
	if len(out.callsTo(testDest, "SendText")) != 0 {
		t.Error("untrusted message reached a destination")
	}
	if len(out.callsTo(testAdmin, "SendText")) != 1 {
		t.Error("admin was not notified exactly once")
	}
}

func TestPipeline_SpamDeletedAndReported(t *testing.T) {
	out := newFakeOutbound()
	p := newTestPipeline(t, out)

	outcome, err := p.Handle(context.Background(), textMessage("Click here for a free VPN trial"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeDeleted {
		t.Fatalf("outcome = %v, want deleted", outcome)
	}
	notices := out.callsTo(testAdmin, "SendText")
	if len(notices) != 1 {
		t.Fatalf("admin notices = %d, want 1", len(notices))
	}
	if !strings.Contains(notices[0].Text, "free VPN") {
		t.Errorf("admin notice %q misses the offending snippet", notices[0].Text)
	}
	if len(out.deleted) != 1 {
		t.Errorf("deleted = %v, want one deletion", out.deleted)
	}
}

func TestPipeline_NonHomeworkTextDroppedSilently(t *testing.T) {
	out := newFakeOutbound()
	p := newTestPipeline(t, out)

	outcome, err := p.Handle(context.Background(), textMessage("hello everyone"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeDropped {
		t.Fatalf("outcome = %v, want dropped", outcome)
	}
	// Silent: no deletion, no admin notice, nothing dispatched.
	if len(out.deleted) != 0 || len(out.calls) != 0 {
		t.Errorf("drop was not silent: deleted=%v calls=%v", out.deleted, out.calls)
	}
}

func TestPipeline_PhotoWithHomeworkCaptionForwarded(t *testing.T) {
	out := newFakeOutbound()
	p := newTestPipeline(t, out)

	msg := textMessage("")
	msg.Content = entities.MessageContent{
		Kind:    entities.KindPhoto,
		FileID:  "photo-1",
		Caption: "homework worksheet attached",
	}

	outcome, err := p.Handle(context.Background(), msg)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeForwarded {
		t.Fatalf("outcome = %v, want forwarded", outcome)
	}

	photos := out.callsTo(testDest, "SendPhoto")
	if len(photos) != 1 {
		t.Fatalf("SendPhoto calls = %d, want 1", len(photos))
	}
	if photos[0].FileID != "photo-1" || photos[0].Caption != "homework worksheet attached" {
		t.Errorf("SendPhoto got %+v", photos[0])
	}

	entries := p.Store.QuerySince(time.Minute)
	if len(entries) != 1 {
		t.Fatalf("forward log entries = %d, want 1", len(entries))
	}
	if entries[0].MediaType != "Photo" {
		t.Errorf("MediaType = %q, want Photo", entries[0].MediaType)
	}
}

func TestPipeline_NoRouteDropped(t *testing.T) {
	out := newFakeOutbound()
	p := newTestPipeline(t, out)
	if err := p.Routes.Remove(testSource); err != nil {
		t.Fatalf("remove route: %v", err)
	}

	outcome, err := p.Handle(context.Background(), textMessage("homework assignment page 3"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeDropped {
		t.Fatalf("outcome = %v, want dropped", outcome)
	}
}

func TestPipeline_FanOutIsBestEffort(t *testing.T) {
	out := newFakeOutbound()
	p := newTestPipeline(t, out)
	if err := p.Routes.Add(testSource, 300); err != nil {
		t.Fatalf("add route: %v", err)
	}
	out.failFor[300] = errors.New("chat unreachable")

	outcome, err := p.Handle(context.Background(), textMessage("homework assignment page 3"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeForwarded {
		t.Fatalf("outcome = %v, want forwarded", outcome)
	}

	if len(out.callsTo(testDest, "SendText")) != 1 {
		t.Error("healthy destination did not receive the message")
	}
	notices := out.callsTo(testAdmin, "SendText")
	if len(notices) != 1 {
		t.Fatalf("admin notices = %d, want exactly 1 per inbound message", len(notices))
	}
	if !strings.Contains(notices[0].Text, "300") {
		t.Errorf("admin notice %q does not name the failed destination", notices[0].Text)
	}

	entries := p.Store.QuerySince(time.Minute)
	if len(entries) != 1 {
		t.Errorf("forward log entries = %d, want 1 (only successful dispatches)", len(entries))
	}
}

func TestPipeline_SlowDestinationDoesNotStallFanOut(t *testing.T) {
	out := &blockingOutbound{fakeOutbound: newFakeOutbound(), slowChat: 300}

	routes := repository.NewRouteTable()
	for _, dest := range []int64{testDest, 300} {
		if err := routes.Add(testSource, dest); err != nil {
			t.Fatalf("seed route: %v", err)
		}
	}
	p := &ForwardPipeline{
		Routes:                  routes,
		Store:                   repository.NewActivityStore(nil),
		Dispatcher:              &MediaDispatcher{Outbound: out, Timeout: 20 * time.Millisecond},
		Outbound:                out,
		AdminChatID:             testAdmin,
		ForwardUncaptionedMedia: true,
	}
	p.SetAllowedSources(map[int64]struct{}{testSource: {}})

	outcome, err := p.Handle(context.Background(), textMessage("homework assignment page 3"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeForwarded {
		t.Fatalf("outcome = %v, want forwarded", outcome)
	}

	if len(out.callsTo(testDest, "SendText")) != 1 {
		t.Error("healthy destination did not receive the message")
	}
	notices := out.callsTo(testAdmin, "SendText")
	if len(notices) != 1 {
		t.Fatalf("admin notices = %d, want 1", len(notices))
	}
	if !strings.Contains(notices[0].Text, "300") {
		t.Errorf("admin notice %q does not name the timed-out destination", notices[0].Text)
	}
	if p.Store.Count() != 1 {
		t.Errorf("forward log entries = %d, want 1", p.Store.Count())
	}
}

func TestPipeline_AllDestinationsFailed(t *testing.T) {
	out := newFakeOutbound()
	p := newTestPipeline(t, out)
	out.failFor[testDest] = errors.New("chat unreachable")

	outcome, err := p.Handle(context.Background(), textMessage("homework assignment page 3"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", outcome)
	}
	notices := out.callsTo(testAdmin, "SendText")
	if len(notices) != 1 {
		t.Fatalf("admin notices = %d, want 1", len(notices))
	}
	if p.Store.Count() != 0 {
		t.Error("failed dispatch must not be logged as a forward")
	}
}

func TestPipeline_SenderActivityTrackedOnEveryMessage(t *testing.T) {
	out := newFakeOutbound()
	p := newTestPipeline(t, out)

	// Dropped message still updates sender activity.
	if _, err := p.Handle(context.Background(), textMessage("hello everyone")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	senders := p.Store.ListSenders()
	if len(senders) != 1 {
		t.Fatalf("senders = %d, want 1", len(senders))
	}
	if senders[0].SenderID != 7 || senders[0].Name != "@student" {
		t.Errorf("sender activity = %+v", senders[0])
	}
}

func TestPipeline_InvalidContentFailsFast(t *testing.T) {
	out := newFakeOutbound()
	p := newTestPipeline(t, out)

	msg := textMessage("")
	msg.Content = entities.MessageContent{Kind: entities.KindNone}

	outcome, err := p.Handle(context.Background(), msg)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeDropped {
		t.Fatalf("outcome = %v, want dropped", outcome)
	}
	if len(out.calls) != 0 {
		t.Error("invalid content triggered outbound calls")
	}
}

func TestPipeline_UncaptionedMediaPolicy(t *testing.T) {
	msg := textMessage("")
	msg.Content = entities.MessageContent{Kind: entities.KindSticker, FileID: "s1"}

	out := newFakeOutbound()
	p := newTestPipeline(t, out)
	p.ForwardUncaptionedMedia = false
	outcome, err := p.Handle(context.Background(), msg)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeDropped {
		t.Fatalf("policy off: outcome = %v, want dropped", outcome)
	}

	out = newFakeOutbound()
	p = newTestPipeline(t, out)
	outcome, err = p.Handle(context.Background(), msg)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeForwarded {
		t.Fatalf("policy on: outcome = %v, want forwarded", outcome)
	}
	if len(out.callsTo(testDest, "SendSticker")) != 1 {
		t.Error("sticker was not dispatched")
	}
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) ExtractText(ctx context.Context, fileID string) (string, error) {
	return f.text, f.err
}

func TestPipeline_OCRRecoversClassifiableText(t *testing.T) {
	msg := textMessage("")
	msg.Content = entities.MessageContent{Kind: entities.KindPhoto, FileID: "p1"}

	// Recovered homework text forwards even when the uncaptioned policy
	// would drop.
	out := newFakeOutbound()
	p := newTestPipeline(t, out)
	p.ForwardUncaptionedMedia = false
	p.Extractor = fakeExtractor{text: "homework assignment page 3"}

	outcome, err := p.Handle(context.Background(), msg)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeForwarded {
		t.Fatalf("outcome = %v, want forwarded", outcome)
	}

	// Recovered spam is deleted.
	out = newFakeOutbound()
	p = newTestPipeline(t, out)
	p.Extractor = fakeExtractor{text: "click here for a free trial"}

	outcome, err = p.Handle(context.Background(), msg)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeDeleted {
		t.Fatalf("outcome = %v, want deleted", outcome)
	}
}

func TestPipeline_OCRFailureDegradesGracefully(t *testing.T) {
	msg := textMessage("")
	msg.Content = entities.MessageContent{Kind: entities.KindPhoto, FileID: "p1"}

	out := newFakeOutbound()
	p := newTestPipeline(t, out)
	p.Extractor = fakeExtractor{err: errors.New("ocr service down")}

	// Extraction failure falls back to the uncaptioned-media policy.
	outcome, err := p.Handle(context.Background(), msg)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if outcome != OutcomeForwarded {
		t.Fatalf("outcome = %v, want forwarded (policy default)", outcome)
	}
}
