package moderation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmerrifield20/modbot/internal/audit"
	"github.com/jmerrifield20/modbot/internal/karma"
	"github.com/jmerrifield20/modbot/internal/metrics"
	"github.com/jmerrifield20/modbot/internal/report"
	"github.com/jmerrifield20/modbot/internal/transport"
	"go.uber.org/zap"
)

// Outcomes recorded for handled verdicts.
const (
	OutcomeRemoved       = "removed"
	OutcomeDeprioritized = "deprioritized"
	OutcomeNoAction      = "no_action"
)

const (
	msgRemoved          = "This post has been deleted. The removal is marked on the post."
	msgDeprioritized    = "This post has been de-prioritized and given a warning label. Both actions are marked on the post."
	msgFactCheckFalse   = "This post has been classified as false by the fact checker so it has been deleted. The removal is marked on the post."
	msgFactCheckUnknown = "The fact checker did not classify this post as false so it has only been de-prioritized and given a warning label. Both actions are marked on the post."
	msgNoAction         = "No action has been taken on this post. The report is closed."
	msgWithdrawn        = "The report under review was withdrawn by the reporter."
)

// Actions is the subset of the transport the dispatcher drives.
type Actions interface {
	transport.Sender
	transport.MarkerApplier
}

// Dispatcher presents the head of the queue to moderators and applies their
// verdicts. It is not safe for concurrent use; callers serialize events.
type Dispatcher struct {
	queue   *Queue
	karma   *karma.Tracker
	actions Actions
	audit   audit.Log
	coin    Coin
	logger  *zap.Logger
}

// NewDispatcher creates a Dispatcher. auditLog may be nil.
func NewDispatcher(queue *Queue, tracker *karma.Tracker, actions Actions, auditLog audit.Log, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		karma:   tracker,
		actions: actions,
		audit:   auditLog,
		coin:    FairCoin,
		logger:  logger,
	}
}

// SetCoin replaces the fact-check randomness.
func (d *Dispatcher) SetCoin(c Coin) {
	d.coin = c
}

// Admit appends r to the queue and, if it is now the head, renders it to the
// moderators of the reported message's guild. r is not modified.
func (d *Dispatcher) Admit(ctx context.Context, r *report.Report) error {
	head, err := d.queue.Push(r)
	if err != nil {
		return fmt.Errorf("admit report: %w", err)
	}
	metrics.RecordAdmission(r.Automated(), r.BroadCategory)
	metrics.SetQueueDepth(d.queue.Len())

	d.logger.Info("report queued",
		zap.String("ticket", r.Ticket.String()),
		zap.String("reporter", r.ID),
		zap.String("offender", r.Offender()),
		zap.Int("queue_len", d.queue.Len()),
	)
	if !head {
		return nil
	}
	return d.present(ctx, r)
}

// Withdraw removes a queued report. When the withdrawn report was under
// review its moderators are told, and the next report is dispatched.
func (d *Dispatcher) Withdraw(ctx context.Context, ticket uuid.UUID) error {
	head := d.queue.Head()
	wasHead, err := d.queue.Remove(ticket)
	if err != nil {
		return fmt.Errorf("withdraw report: %w", err)
	}
	metrics.SetQueueDepth(d.queue.Len())
	d.logger.Info("report withdrawn", zap.String("ticket", ticket.String()), zap.Bool("was_head", wasHead))
	if !wasHead {
		return nil
	}
	if err := d.send(ctx, transport.Moderator(head.Message.GuildID), msgWithdrawn); err != nil {
		d.logger.Warn("withdrawal notice not delivered", zap.Error(err))
	}
	return d.next(ctx)
}

// HandleVerdict interprets a moderator message from guildID's moderator
// surface against the report under review. Messages are ignored when nothing
// from that guild is under review.
func (d *Dispatcher) HandleVerdict(ctx context.Context, guildID, text string) error {
	r := d.queue.Head()
	if r == nil || r.Message == nil || r.Message.GuildID != guildID {
		d.logger.Debug("moderator message with no report under review", zap.String("guild_id", guildID))
		return nil
	}
	surface := transport.Moderator(guildID)

	var (
		outcome string
		markers []transport.Marker
		reply   string
	)
	switch {
	case text == VerdictYes:
		outcome, markers, reply = OutcomeRemoved, removalMarkers(), msgRemoved
	case text == VerdictNo && r.Misinformation():
		outcome, markers, reply = OutcomeDeprioritized, deprioritizeMarkers(r), msgDeprioritized
	case text == VerdictUnclear && r.Misinformation():
		if d.coin.Flip() {
			outcome, markers, reply = OutcomeRemoved, removalMarkers(), msgFactCheckFalse
		} else {
			outcome, markers, reply = OutcomeDeprioritized, deprioritizeMarkers(r), msgFactCheckUnknown
		}
	case text == VerdictNo:
		// Non-misinformation reports have no action for "no"; the report is closed as is.
		outcome, reply = OutcomeNoAction, msgNoAction
	default:
		return d.send(ctx, surface, "I'm sorry but I do not understand. "+verdictPrompt(r))
	}

	applied := d.apply(ctx, r, markers)
	if err := d.send(ctx, surface, reply); err != nil {
		d.logger.Warn("verdict acknowledgement not delivered", zap.Error(err))
	}
	metrics.RecordVerdict(text, outcome)
	d.record(ctx, r, text, outcome, applied)

	if _, err := d.queue.Pop(r.Ticket); err != nil {
		return fmt.Errorf("pop resolved report: %w", err)
	}
	metrics.SetQueueDepth(d.queue.Len())
	d.logger.Info("report resolved",
		zap.String("ticket", r.Ticket.String()),
		zap.String("verdict", text),
		zap.String("outcome", outcome),
	)
	return d.next(ctx)
}

// Head returns the report under review.
func (d *Dispatcher) Head() *report.Report { return d.queue.Head() }

func removalMarkers() []transport.Marker {
	return []transport.Marker{transport.MarkerRemoved}
}

// deprioritizeMarkers always de-prioritizes and labels; high-risk topics
// additionally get both risk markers.
func deprioritizeMarkers(r *report.Report) []transport.Marker {
	markers := []transport.Marker{transport.MarkerDeprioritized, transport.MarkerWarningLabel}
	if r.HighRisk() {
		markers = append(markers, transport.MarkerElectionRisk, transport.MarkerHealthRisk)
	}
	return markers
}

func (d *Dispatcher) apply(ctx context.Context, r *report.Report, markers []transport.Marker) []string {
	applied := make([]string, 0, len(markers))
	for _, m := range markers {
		if err := d.actions.AddMarker(ctx, r.Message, m); err != nil {
			d.logger.Warn("marker not applied",
				zap.String("ticket", r.Ticket.String()),
				zap.String("marker", string(m)),
				zap.Error(err),
			)
			continue
		}
		metrics.RecordMarker(string(m))
		applied = append(applied, string(m))
	}
	return applied
}

func (d *Dispatcher) record(ctx context.Context, r *report.Report, verdict, outcome string, markers []string) {
	if d.audit == nil {
		return
	}
	_, err := d.audit.Append(ctx, audit.Resolution{
		Ticket:   r.Ticket,
		Reporter: r.ID,
		Offender: r.Offender(),
		Category: r.BroadCategory,
		Specific: r.SpecificCategory,
		Verdict:  verdict,
		Outcome:  outcome,
		Markers:  markers,
	})
	if err != nil {
		d.logger.Error("audit append failed", zap.String("ticket", r.Ticket.String()), zap.Error(err))
	}
}

// next renders the new head, if any.
func (d *Dispatcher) next(ctx context.Context) error {
	head := d.queue.Head()
	if head == nil {
		return nil
	}
	return d.present(ctx, head)
}

func (d *Dispatcher) present(ctx context.Context, r *report.Report) error {
	offender := r.Offender()
	text := Render(r, d.karma.ThresholdReached(offender), d.karma.Count(offender))
	return d.send(ctx, transport.Moderator(r.Message.GuildID), text)
}

func (d *Dispatcher) send(ctx context.Context, surface transport.Surface, text string) error {
	if err := d.actions.Send(ctx, surface, text); err != nil {
		return fmt.Errorf("send to %s %s: %w", surface.Kind, surface.ID, err)
	}
	return nil
}
