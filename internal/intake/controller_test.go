package intake_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmerrifield20/modbot/internal/classify"
	"github.com/jmerrifield20/modbot/internal/intake"
	"github.com/jmerrifield20/modbot/internal/karma"
	"github.com/jmerrifield20/modbot/internal/moderation"
	"github.com/jmerrifield20/modbot/internal/report"
	"github.com/jmerrifield20/modbot/internal/transport"
	"go.uber.org/zap"
)

// ── Stubs ────────────────────────────────────────────────────────────────

const (
	botID   = "bot-1"
	guild   = "100"
	link    = "https://discord.com/channels/100/200/300"
	modChan = "group-7-mod"
	pubChan = "group-7"
)

type sent struct {
	surface transport.Surface
	text    string
}

type fakeTransport struct {
	sent    []sent
	markers map[string][]transport.Marker
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{markers: make(map[string][]transport.Marker)}
}

func (f *fakeTransport) ResolveMessageLink(_ context.Context, g, c, m string) (*transport.MessageRef, error) {
	if g != guild {
		return nil, transport.ErrGuildNotFound
	}
	return &transport.MessageRef{GuildID: g, ChannelID: c, MessageID: m, AuthorID: "offender-1", AuthorName: "mallory", Content: "bleach cures covid"}, nil
}

func (f *fakeTransport) Send(_ context.Context, s transport.Surface, text string) error {
	f.sent = append(f.sent, sent{s, text})
	return nil
}

func (f *fakeTransport) AddMarker(_ context.Context, msg *transport.MessageRef, kind transport.Marker) error {
	f.markers[msg.MessageID] = append(f.markers[msg.MessageID], kind)
	return nil
}

func (f *fakeTransport) to(kind transport.SurfaceKind) []string {
	var out []string
	for _, s := range f.sent {
		if s.surface.Kind == kind {
			out = append(out, s.text)
		}
	}
	return out
}

type classifierFunc func(ctx context.Context, text string) (int, error)

func (f classifierFunc) Predict(ctx context.Context, text string) (int, error) { return f(ctx, text) }

type scorerFunc func(ctx context.Context, text string) (map[string]float64, error)

func (f scorerFunc) Score(ctx context.Context, text string) (map[string]float64, error) {
	return f(ctx, text)
}

type fixture struct {
	ctrl    *intake.Controller
	tr      *fakeTransport
	queue   *moderation.Queue
	tracker *karma.Tracker
}

func newFixture(c classifierFunc) *fixture {
	tr := newFakeTransport()
	q := moderation.NewQueue()
	tracker := karma.New(karma.DefaultThreshold)
	d := moderation.NewDispatcher(q, tracker, tr, nil, zap.NewNop())
	var cl classify.Classifier
	if c != nil {
		cl = c
	}
	ctrl := intake.NewController(intake.Config{BotID: botID, PublicChannel: pubChan, ModChannel: modChan},
		tr, q, d, tracker, cl, zap.NewNop())
	return &fixture{ctrl: ctrl, tr: tr, queue: q, tracker: tracker}
}

var ctx = context.Background()

func dm(user, content string) transport.Event {
	return transport.Event{Type: transport.EventMessage, AuthorID: user, AuthorName: user, Content: content}
}

func channel(name, content string) transport.Event {
	return transport.Event{
		Type: transport.EventMessage, GuildID: guild, ChannelID: "200", ChannelName: name,
		MessageID: "301", AuthorID: "poster-1", AuthorName: "carol", Content: content,
	}
}

func (f *fixture) send(t *testing.T, evs ...transport.Event) {
	t.Helper()
	for _, ev := range evs {
		if err := f.ctrl.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("HandleEvent(%+v): %v", ev, err)
		}
	}
}

func (f *fixture) fileReport(t *testing.T, user string) {
	t.Helper()
	f.send(t, dm(user, "report"), dm(user, link), dm(user, "1"), dm(user, "2"), dm(user, "see cdc"), dm(user, "no"))
}

// ── Direct messages ──────────────────────────────────────────────────────

func TestHandleEvent_ignoresOwnMessages(t *testing.T) {
	f := newFixture(nil)
	f.send(t, dm(botID, "help"), dm(botID, "report"))
	if len(f.tr.sent) != 0 {
		t.Errorf("bot replied to itself: %v", f.tr.sent)
	}
}

func TestHandleEvent_help(t *testing.T) {
	f := newFixture(nil)
	f.send(t, dm("alice", "help"))
	got := f.tr.to(transport.SurfaceDM)
	if len(got) != 1 || got[0] != report.HelpText {
		t.Errorf("help reply = %q", got)
	}
}

func TestHandleEvent_onlyExactStartKeyword(t *testing.T) {
	f := newFixture(nil)
	f.send(t, dm("alice", "hello"), dm("alice", "Report"), dm("alice", "report this"))
	if len(f.tr.sent) != 0 || f.ctrl.ActiveSessions() != 0 {
		t.Errorf("unexpected activity: sent=%v sessions=%d", f.tr.sent, f.ctrl.ActiveSessions())
	}
}

func TestHandleEvent_completedReportIsQueued(t *testing.T) {
	f := newFixture(nil)
	f.fileReport(t, "alice")

	if f.ctrl.ActiveSessions() != 0 {
		t.Errorf("sessions = %d, want 0", f.ctrl.ActiveSessions())
	}
	if f.queue.Len() != 1 {
		t.Fatalf("queue len = %d, want 1", f.queue.Len())
	}
	if got := f.tracker.Count("offender-1"); got != 1 {
		t.Errorf("karma = %d, want 1", got)
	}
	mod := f.tr.to(transport.SurfaceModerator)
	if len(mod) != 1 || !strings.HasPrefix(mod[0], "NEW REPORT") {
		t.Errorf("moderator messages = %q", mod)
	}
	if !strings.Contains(mod[0], "`yes`, `no`, or `unclear`") {
		t.Errorf("misinformation prompt missing: %q", mod[0])
	}
}

func TestHandleEvent_cancelDiscardsSession(t *testing.T) {
	f := newFixture(nil)
	f.send(t, dm("alice", "report"), dm("alice", link), dm("alice", "cancel"))

	if f.ctrl.ActiveSessions() != 0 || f.queue.Len() != 0 {
		t.Errorf("sessions=%d queue=%d after cancel", f.ctrl.ActiveSessions(), f.queue.Len())
	}
	if f.tracker.Count("offender-1") != 0 {
		t.Error("cancelled report recorded karma")
	}
	got := f.tr.to(transport.SurfaceDM)
	if got[len(got)-1] != "Report cancelled." {
		t.Errorf("last reply = %q", got[len(got)-1])
	}
}

func TestHandleEvent_withdrawQueuedReport(t *testing.T) {
	f := newFixture(nil)
	f.fileReport(t, "alice")
	before := len(f.tr.to(transport.SurfaceDM))

	f.send(t, dm("alice", "report"), dm("alice", "anything"))
	if len(f.tr.to(transport.SurfaceDM)) != before {
		t.Error("input while queued should be ignored")
	}
	if f.ctrl.ActiveSessions() != 0 {
		t.Error("a second session started while a report is queued")
	}

	f.send(t, dm("alice", "cancel"))
	if f.queue.Len() != 0 {
		t.Errorf("queue len = %d after withdraw", f.queue.Len())
	}
	got := f.tr.to(transport.SurfaceDM)
	if got[len(got)-1] != "Report cancelled." {
		t.Errorf("withdraw reply = %q", got[len(got)-1])
	}
}

func TestHandleEvent_headWithdrawPresentsNext(t *testing.T) {
	f := newFixture(nil)
	f.fileReport(t, "alice")
	f.fileReport(t, "bob")
	f.send(t, dm("alice", "cancel"))

	head := f.queue.Head()
	if head == nil || head.ID != "bob" {
		t.Fatalf("head = %+v, want bob's report", head)
	}
	mod := f.tr.to(transport.SurfaceModerator)
	if len(mod) != 3 || mod[1] != "The report under review was withdrawn by the reporter." || !strings.Contains(mod[2], "made by `bob`") {
		t.Errorf("moderator messages = %q", mod)
	}
}

// ── Moderator channel ────────────────────────────────────────────────────

func TestHandleEvent_moderatorVerdict(t *testing.T) {
	f := newFixture(nil)
	f.fileReport(t, "alice")
	f.send(t, channel(modChan, "yes"))

	if f.queue.Len() != 0 {
		t.Errorf("queue len = %d after verdict", f.queue.Len())
	}
	if got := f.tr.markers["300"]; len(got) != 1 || got[0] != transport.MarkerRemoved {
		t.Errorf("markers = %v", got)
	}
}

func TestHandleEvent_otherChannelsIgnored(t *testing.T) {
	f := newFixture(classifierFunc(func(context.Context, string) (int, error) { return 0, nil }))
	f.send(t, channel("random", "bleach cures covid"))
	if len(f.tr.sent) != 0 || f.queue.Len() != 0 {
		t.Errorf("unexpected activity: %v", f.tr.sent)
	}
}

// ── Public channel ───────────────────────────────────────────────────────

func TestHandleEvent_publicFlaggedMessage(t *testing.T) {
	for _, label := range []int{0, 2} {
		var seen string
		f := newFixture(classifierFunc(func(_ context.Context, text string) (int, error) {
			seen = text
			return label, nil
		}))
		f.send(t, channel(pubChan, "vaccínes are poison"))

		if seen != "vaccines are poison" {
			t.Errorf("classifier saw %q, want normalized text", seen)
		}
		mod := f.tr.to(transport.SurfaceModerator)
		if len(mod) != 2 {
			t.Fatalf("label %d: moderator messages = %q", label, mod)
		}
		if mod[0] != "Forwarded message:\ncarol: \"vaccínes are poison\"" {
			t.Errorf("forward = %q", mod[0])
		}
		if !strings.Contains(mod[1], "COVID-19 misinformation Bot") {
			t.Errorf("automated report = %q", mod[1])
		}
		if head := f.queue.Head(); head == nil || !head.Automated() {
			t.Errorf("label %d: head = %+v", label, head)
		}
		if f.tracker.Count("poster-1") != 0 {
			t.Error("automated report recorded karma")
		}
	}
}

func TestHandleEvent_publicNeutralMessage(t *testing.T) {
	f := newFixture(classifierFunc(func(context.Context, string) (int, error) { return 1, nil }))
	f.send(t, channel(pubChan, "nice weather"))
	if got := f.tr.to(transport.SurfaceModerator); len(got) != 1 {
		t.Errorf("moderator messages = %q, want forward only", got)
	}
	if f.queue.Len() != 0 {
		t.Error("neutral message queued")
	}
}

func TestHandleEvent_classifierFailure(t *testing.T) {
	f := newFixture(classifierFunc(func(context.Context, string) (int, error) {
		return 0, errors.New("connection refused")
	}))
	f.send(t, channel(pubChan, "bleach cures covid"))

	mod := f.tr.to(transport.SurfaceModerator)
	if len(mod) != 2 || !strings.Contains(mod[1], "could not run") {
		t.Errorf("moderator messages = %q", mod)
	}
	if f.queue.Len() != 0 {
		t.Error("failed classification queued a report")
	}
}

func TestHandleEvent_editedMessageScores(t *testing.T) {
	f := newFixture(nil)
	f.ctrl.SetScorer(scorerFunc(func(context.Context, string) (map[string]float64, error) {
		return map[string]float64{"TOXICITY": 0.5}, nil
	}))
	ev := channel(pubChan, "edited text")
	ev.Type = transport.EventEdit
	f.send(t, ev)

	mod := f.tr.to(transport.SurfaceModerator)
	if len(mod) != 2 {
		t.Fatalf("moderator messages = %q", mod)
	}
	if !strings.HasPrefix(mod[0], "ALERT: message has been edited! Forwarded message:\ncarol:") {
		t.Errorf("alert = %q", mod[0])
	}
	if want := "```{\n  \"TOXICITY\": 0.5\n}```"; mod[1] != want {
		t.Errorf("scores = %q, want %q", mod[1], want)
	}
}

func TestHandleEvent_editedWithoutScorer(t *testing.T) {
	f := newFixture(nil)
	ev := channel(pubChan, "edited text")
	ev.Type = transport.EventEdit
	f.send(t, ev)
	if got := f.tr.to(transport.SurfaceModerator); len(got) != 1 {
		t.Errorf("moderator messages = %q, want alert only", got)
	}
}
