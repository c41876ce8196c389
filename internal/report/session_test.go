package report_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jmerrifield20/modbot/internal/report"
	"github.com/jmerrifield20/modbot/internal/transport"
)

// ── Stubs ────────────────────────────────────────────────────────────────

type stubResolver struct {
	msg *transport.MessageRef
	err error
}

func (s *stubResolver) ResolveMessageLink(_ context.Context, guildID, channelID, messageID string) (*transport.MessageRef, error) {
	if s.err != nil {
		return nil, s.err
	}
	m := *s.msg
	m.GuildID, m.ChannelID, m.MessageID = guildID, channelID, messageID
	return &m, nil
}

const link = "https://discord.com/channels/111/222/333"

var ctx = context.Background()

func newResolver() *stubResolver {
	return &stubResolver{msg: &transport.MessageRef{AuthorID: "u-42", AuthorName: "mallory", Content: "vaccínes contain chips"}}
}

// drive feeds inputs in order and returns the replies of the last one.
func drive(t *testing.T, s *report.Session, inputs ...string) []string {
	t.Helper()
	var replies []string
	for _, in := range inputs {
		replies, _ = s.HandleInput(ctx, in)
	}
	return replies
}

// ── Tests ────────────────────────────────────────────────────────────────

func TestHandleInput_roundTripCovid(t *testing.T) {
	s := report.NewSession("reporter-1", "alice", newResolver())

	replies := drive(t, s, "report", link, "1")
	if !strings.HasPrefix(replies[0], "What kind of misinformation is this?") {
		t.Fatalf("unexpected sub-menu: %q", replies[0])
	}

	replies = drive(t, s, "2")
	if len(replies) != 1 || !strings.Contains(replies[0], "https://www.cdc.gov/coronavirus/2019-ncov/index.html") {
		t.Fatalf("expected CDC addendum, got %q", replies)
	}

	drive(t, s, "some note")
	replies, done := s.HandleInput(ctx, "no")
	if !done {
		t.Fatal("expected report to be complete")
	}
	if s.State() != report.StateComplete {
		t.Errorf("state = %v, want complete", s.State())
	}
	if len(replies) != 1 {
		t.Fatalf("expected exactly one summary reply, got %d", len(replies))
	}
	if !strings.Contains(replies[0], "falls under Misinformation, and is more specifically related to Covid-19\n") {
		t.Errorf("summary missing labels: %q", replies[0])
	}

	r := s.Report()
	if r.BroadCategory != "Misinformation" || r.SpecificCategory != "Covid-19" {
		t.Errorf("labels = %q/%q", r.BroadCategory, r.SpecificCategory)
	}
	if r.Note() != "some note" || r.PostVisibility != "no" || r.UserVisibility != "" {
		t.Errorf("unexpected fields: %+v", r)
	}
	if r.Cancelled {
		t.Error("completed report marked cancelled")
	}
	if r.Message.Content != "vaccines contain chips" {
		t.Errorf("content not normalized: %q", r.Message.Content)
	}
}

func TestHandleInput_linkFoundReplies(t *testing.T) {
	s := report.NewSession("reporter-1", "alice", newResolver())
	replies := drive(t, s, "report", link)
	if len(replies) != 3 {
		t.Fatalf("expected 3 replies, got %d", len(replies))
	}
	if replies[1] != "```mallory: vaccines contain chips```" {
		t.Errorf("quoted message = %q", replies[1])
	}
	if !strings.Contains(replies[2], "Enter `5` for I don't want to see this content") {
		t.Errorf("broad menu missing option 5: %q", replies[2])
	}
	if s.Report().Message.GuildID != "111" || s.Report().Message.MessageID != "333" {
		t.Errorf("link segments not passed through: %+v", s.Report().Message)
	}
}

func TestHandleInput_cancelFromEveryState(t *testing.T) {
	prefixes := [][]string{
		{},
		{"report"},
		{"report", link},
		{"report", link, "3"},
		{"report", link, "3", "2"},
		{"report", link, "3", "2", "note"},
		{"report", link, "3", "2", "note", "yes"},
	}
	for _, prefix := range prefixes {
		s := report.NewSession("reporter-1", "alice", newResolver())
		drive(t, s, prefix...)
		before := s.State()

		replies, done := s.HandleInput(ctx, "cancel")
		if !done || s.State() != report.StateComplete {
			t.Errorf("from %v: expected complete after cancel", before)
		}
		if len(replies) != 1 || replies[0] != "Report cancelled." {
			t.Errorf("from %v: replies = %q", before, replies)
		}
		if !s.Report().Cancelled {
			t.Errorf("from %v: cancellation flag not set", before)
		}
	}
}

func TestHandleInput_completeIgnoresInput(t *testing.T) {
	s := report.NewSession("reporter-1", "alice", newResolver())
	drive(t, s, "report", link, "4", "1", "", "no")

	for _, in := range []string{"cancel", "report", "anything"} {
		replies, done := s.HandleInput(ctx, in)
		if len(replies) != 0 || !done {
			t.Errorf("input %q after completion produced %q", in, replies)
		}
	}
	if s.Report().Cancelled {
		t.Error("cancel after completion must not flag the report")
	}
}

func TestHandleInput_invalidInputsRePrompt(t *testing.T) {
	cases := []struct {
		name   string
		prefix []string
		bad    []string
		want   string
	}{
		{"broad", []string{"report", link}, []string{"0", "6", "one", "", "1 ", " 1", "01", "005", "0003"}, "Please enter a number from 1 to 5."},
		{"specific-six", []string{"report", link, "2"}, []string{"0", "7", "-1", "+2", "x"}, "Please enter a number from 1 to 6."},
		{"specific-four", []string{"report", link, "3"}, []string{"5", "6", "0"}, "Please enter a number from 1 to 4."},
		{"post-visibility", []string{"report", link, "1", "1", "n"}, []string{"Yes", "maybe", ""}, "Please enter `yes` or `no`."},
		{"user-visibility", []string{"report", link, "1", "1", "n", "yes"}, []string{"Mute", "ban", ""}, "Please enter `mute` or `block`."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := report.NewSession("reporter-1", "alice", newResolver())
			drive(t, s, tc.prefix...)
			before := s.State()
			snapshot := *s.Report()

			for _, in := range tc.bad {
				replies, done := s.HandleInput(ctx, in)
				if done {
					t.Fatalf("input %q ended the report", in)
				}
				if s.State() != before {
					t.Errorf("input %q moved state %v -> %v", in, before, s.State())
				}
				if len(replies) != 1 || !strings.Contains(replies[0], tc.want) {
					t.Errorf("input %q: replies = %q", in, replies)
				}
			}
			after := s.Report()
			if after.BroadChoice != snapshot.BroadChoice || after.SpecificChoice != snapshot.SpecificChoice ||
				after.PostVisibility != snapshot.PostVisibility || after.UserVisibility != snapshot.UserVisibility {
				t.Errorf("invalid input mutated the report: %+v", after)
			}
		})
	}
}

func TestHandleInput_resolutionFailures(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{transport.ErrGuildNotFound, "guilds that I'm not in"},
		{transport.ErrChannelNotFound, "this channel was deleted"},
		{transport.ErrMessageNotFound, "this message was deleted"},
		{errors.New("timeout"), "couldn't look up that message"},
	}
	for _, tc := range cases {
		s := report.NewSession("reporter-1", "alice", &stubResolver{err: tc.err})
		replies := drive(t, s, "report", link)
		if len(replies) != 1 || !strings.Contains(replies[0], tc.want) {
			t.Errorf("%v: replies = %q", tc.err, replies)
		}
		if s.State() != report.StateAwaitingMessage {
			t.Errorf("%v: state advanced to %v", tc.err, s.State())
		}
	}

	s := report.NewSession("reporter-1", "alice", newResolver())
	replies := drive(t, s, "report", "not a link")
	if len(replies) != 1 || !strings.Contains(replies[0], "couldn't read that link") {
		t.Errorf("bad link: replies = %q", replies)
	}
}

func TestHandleInput_muteBlockPath(t *testing.T) {
	s := report.NewSession("reporter-1", "alice", newResolver())
	replies := drive(t, s, "report", link, "3", "2", "they keep doing this")
	if !strings.HasPrefix(replies[0], "Thank you for your report. It will be reviewed by our content moderation team, who will decide future action, including if the post") {
		t.Errorf("unexpected acknowledgement: %q", replies[0])
	}

	replies = drive(t, s, "yes")
	if s.State() != report.StateUserVisibility || !strings.Contains(replies[0], "`mute` or `block`") {
		t.Fatalf("expected mute/block prompt, state %v", s.State())
	}

	replies, done := s.HandleInput(ctx, "block")
	if !done || len(replies) != 1 {
		t.Fatalf("expected final summary, got %q", replies)
	}
	if !strings.Contains(replies[0], "Harassment or Abuse, and is more specifically related to Bullying") {
		t.Errorf("summary = %q", replies[0])
	}
	if !strings.Contains(replies[0], "ability to interact with you? block") {
		t.Errorf("summary missing user visibility: %q", replies[0])
	}
}

func TestHandleInput_doNotWantToSeeSkipsSubMenu(t *testing.T) {
	s := report.NewSession("reporter-1", "alice", newResolver())
	replies := drive(t, s, "report", link, "5")
	if s.State() != report.StateOptionalMessage {
		t.Fatalf("state = %v, want optional_message", s.State())
	}
	if len(replies) != 1 || !strings.HasPrefix(replies[0], "If you would like to add more information") {
		t.Errorf("replies = %q", replies)
	}

	replies = drive(t, s, "", "no")
	if !strings.Contains(replies[0], "falls under I do not want to see this content, and is more specifically related to Not applicable") {
		t.Errorf("summary = %q", replies[0])
	}
	if s.Report().SpecificChoice != report.SpecificNotApplicable {
		t.Errorf("specific = %d, want sentinel", s.Report().SpecificChoice)
	}
}

func TestHandleInput_dangerousAcknowledgement(t *testing.T) {
	s := report.NewSession("reporter-1", "alice", newResolver())
	replies := drive(t, s, "report", link, "2", "6", "selling stuff")
	if !strings.Contains(replies[0], "reports to law enforcement") {
		t.Errorf("acknowledgement = %q", replies[0])
	}
	if !strings.HasSuffix(replies[0], "Please enter `yes` or `no`.") {
		t.Errorf("missing visibility prompt: %q", replies[0])
	}
}

func TestSummary_idempotent(t *testing.T) {
	s := report.NewSession("reporter-1", "alice", newResolver())
	drive(t, s, "report", link, "1", "3", "note", "yes", "mute")

	first := s.Report().Summary()
	second := s.Report().Summary()
	if first != second {
		t.Errorf("summary changed between calls:\n%s\n%s", first, second)
	}
}

func TestNewAutomated(t *testing.T) {
	r := report.NewAutomated(&transport.MessageRef{AuthorID: "u-1"})
	if !r.Automated() || !r.Complete() || !r.Misinformation() || !r.HighRisk() {
		t.Errorf("unexpected automated report: %+v", r)
	}
	if r.SpecificCategory != "Covid-19" || r.Offender() != "u-1" {
		t.Errorf("unexpected fields: %+v", r)
	}
}

func TestSpecificLabel(t *testing.T) {
	if got := report.SpecificLabel(2, 4); got != "Child Sexual Abuse Materials" {
		t.Errorf("SpecificLabel(2,4) = %q", got)
	}
	if got := report.SpecificLabel(3, 5); got != "" {
		t.Errorf("out of range label = %q", got)
	}
	if !report.IsHighRisk("Elections") || report.IsHighRisk("Climate Change") {
		t.Error("high-risk set mismatch")
	}
}

func TestHandleInput_specificAcceptsLeadingZeros(t *testing.T) {
	s := report.NewSession("reporter-1", "alice", newResolver())
	drive(t, s, "report", link, "1", "02")
	if s.State() != report.StateOptionalMessage {
		t.Fatalf("state = %v, want %v", s.State(), report.StateOptionalMessage)
	}
	if got := s.Report().SpecificChoice; got != 2 {
		t.Errorf("SpecificChoice = %d, want 2", got)
	}
}

func TestNewSession_ticketStableThroughCompletion(t *testing.T) {
	s := report.NewSession("reporter-1", "alice", newResolver())
	ticket := s.Report().Ticket
	if ticket == uuid.Nil {
		t.Fatal("new session has no ticket")
	}
	drive(t, s, "report", link, "1", "1", "n", "no")
	if !s.Report().Complete() {
		t.Fatalf("state = %v, want complete", s.State())
	}
	if s.Report().Ticket != ticket {
		t.Errorf("ticket changed %v -> %v", ticket, s.Report().Ticket)
	}
}
