package report

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmerrifield20/modbot/internal/transport"
)

var linkPattern = regexp.MustCompile(`/(\d+)/(\d+)/(\d+)`)

// Session drives one reporting conversation. It is not safe for concurrent
// use; the intake controller serializes access.
type Session struct {
	report   *Report
	resolver transport.Resolver
}

// NewSession starts a conversation for the given reporter.
func NewSession(reporterID, reporterName string, resolver transport.Resolver) *Session {
	return &Session{
		report: &Report{
			ID:           reporterID,
			Ticket:       uuid.New(),
			State:        StateStart,
			ReporterName: reporterName,
		},
		resolver: resolver,
	}
}

// Report returns the record being filled in.
func (s *Session) Report() *Report { return s.report }

// State returns the current step.
func (s *Session) State() State { return s.report.State }

// step consumes input in the current state. It returns the replies for this
// step, the next state, and whether the next state runs immediately without
// waiting for more input.
type step func(s *Session, ctx context.Context, input string) (replies []string, next State, cont bool)

var steps = map[State]step{
	StateStart:            (*Session).start,
	StateAwaitingMessage:  (*Session).awaitMessage,
	StateBroadCategory:    (*Session).broadCategory,
	StateSpecificCategory: (*Session).specificCategory,
	StateOptionalMessage:  (*Session).optionalMessage,
	StatePostVisibility:   (*Session).postVisibility,
	StateUserVisibility:   (*Session).userVisibility,
	StateFinishing:        (*Session).finish,
}

// HandleInput consumes one user message and returns the replies to send back
// in order, and whether the conversation has ended.
func (s *Session) HandleInput(ctx context.Context, input string) ([]string, bool) {
	r := s.report
	if r.State == StateComplete {
		return nil, true
	}
	if input == CancelKeyword {
		r.State = StateComplete
		r.Cancelled = true
		return []string{replyCancelled}, true
	}

	var out []string
	for {
		fn, ok := steps[r.State]
		if !ok {
			break
		}
		replies, next, cont := fn(s, ctx, input)
		out = append(out, replies...)
		r.State = next
		if !cont {
			break
		}
	}
	return out, r.State == StateComplete
}

func (s *Session) start(_ context.Context, _ string) ([]string, State, bool) {
	return []string{promptWelcome}, StateAwaitingMessage, false
}

func (s *Session) awaitMessage(ctx context.Context, input string) ([]string, State, bool) {
	m := linkPattern.FindStringSubmatch(input)
	if m == nil {
		return []string{replyBadLink}, StateAwaitingMessage, false
	}

	msg, err := s.resolver.ResolveMessageLink(ctx, m[1], m[2], m[3])
	switch {
	case errors.Is(err, transport.ErrGuildNotFound):
		return []string{replyUnknownGuild}, StateAwaitingMessage, false
	case errors.Is(err, transport.ErrChannelNotFound):
		return []string{replyUnknownChannel}, StateAwaitingMessage, false
	case errors.Is(err, transport.ErrMessageNotFound):
		return []string{replyUnknownMessage}, StateAwaitingMessage, false
	case err != nil || msg == nil:
		return []string{replyLookupFailed}, StateAwaitingMessage, false
	}

	stored := *msg
	stored.Content = transport.NormalizeText(stored.Content)
	s.report.Message = &stored

	return []string{
		replyFound,
		"```" + stored.AuthorName + ": " + stored.Content + "```",
		promptBroadHeader + broadMenu(),
	}, StateBroadCategory, false
}

func (s *Session) broadCategory(_ context.Context, input string) ([]string, State, bool) {
	code, ok := parseChoice(input, BroadDoNotWantToSee)
	if !ok || strconv.Itoa(code) != input {
		return []string{replyBadBroad}, StateBroadCategory, false
	}
	s.report.BroadChoice = code

	cat := categories[code]
	if len(cat.Options) == 0 {
		return nil, StateSpecificCategory, true
	}
	s.report.upperBound = len(cat.Options)
	return []string{cat.Question + "\n" + menu(cat.Options)}, StateSpecificCategory, false
}

func (s *Session) specificCategory(_ context.Context, input string) ([]string, State, bool) {
	r := s.report
	if r.BroadChoice == BroadDoNotWantToSee {
		r.SpecificChoice = SpecificNotApplicable
	} else {
		code, ok := parseChoice(input, r.upperBound)
		if !ok {
			return []string{fmt.Sprintf(replyBadSpecificFmt, r.upperBound)}, StateSpecificCategory, false
		}
		r.SpecificChoice = code
	}

	reply := promptOptional
	if r.BroadChoice == BroadMisinformation && r.SpecificChoice == 2 {
		reply += addendumCDC
	}
	return []string{reply}, StateOptionalMessage, false
}

func (s *Session) optionalMessage(_ context.Context, input string) ([]string, State, bool) {
	note := input
	s.report.OptionalMessage = &note
	return []string{acknowledgement(s.report.BroadChoice) + promptPostVisibility}, StatePostVisibility, false
}

func (s *Session) postVisibility(_ context.Context, input string) ([]string, State, bool) {
	switch input {
	case VisibilityYes:
		s.report.PostVisibility = input
		return []string{promptUserVisibility}, StateUserVisibility, false
	case VisibilityNo:
		s.report.PostVisibility = input
		return nil, StateFinishing, true
	default:
		return []string{replyBadYesNo}, StatePostVisibility, false
	}
}

func (s *Session) userVisibility(_ context.Context, input string) ([]string, State, bool) {
	if input != VisibilityMute && input != VisibilityBlock {
		return []string{replyBadMuteBlock}, StateUserVisibility, false
	}
	s.report.UserVisibility = input
	return nil, StateFinishing, true
}

func (s *Session) finish(_ context.Context, _ string) ([]string, State, bool) {
	r := s.report
	r.BroadCategory = BroadLabel(r.BroadChoice)
	r.SpecificCategory = SpecificLabel(r.BroadChoice, r.SpecificChoice)
	return []string{r.Summary()}, StateComplete, false
}

// parseChoice accepts a decimal menu choice in [1, upper].
func parseChoice(input string, upper int) (int, bool) {
	if input == "" {
		return 0, false
	}
	for _, c := range input {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > upper {
		return 0, false
	}
	return n, true
}
