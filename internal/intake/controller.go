// Package intake routes inbound chat events to reporting conversations, the
// moderation dispatcher and the automatic classifier.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jmerrifield20/modbot/internal/classify"
	"github.com/jmerrifield20/modbot/internal/karma"
	"github.com/jmerrifield20/modbot/internal/metrics"
	"github.com/jmerrifield20/modbot/internal/moderation"
	"github.com/jmerrifield20/modbot/internal/report"
	"github.com/jmerrifield20/modbot/internal/scoring"
	"github.com/jmerrifield20/modbot/internal/transport"
	"go.uber.org/zap"
)

const (
	replyWithdrawn   = "Report cancelled."
	msgClassifySkip  = "The automatic misinformation check could not run for the message above."
	msgScoringSkip   = "The toxicity scores could not be retrieved for the edited message above."
	forwardFmt       = "Forwarded message:\n%s: \"%s\""
	forwardEditedFmt = "ALERT: message has been edited! Forwarded message:\n%s: \"%s\""
)

// Config names the bot and the channels it watches.
type Config struct {
	BotID         string
	PublicChannel string
	ModChannel    string
}

// Controller owns the per-reporter sessions and serializes every event.
type Controller struct {
	mu sync.Mutex

	cfg        Config
	transport  transport.Transport
	queue      *moderation.Queue
	dispatcher *moderation.Dispatcher
	karma      *karma.Tracker
	classifier classify.Classifier
	scorer     scoring.Scorer
	logger     *zap.Logger

	sessions map[string]*report.Session
}

// NewController creates a Controller. classifier may be nil, in which case
// public messages are only forwarded.
func NewController(
	cfg Config,
	tr transport.Transport,
	queue *moderation.Queue,
	dispatcher *moderation.Dispatcher,
	tracker *karma.Tracker,
	classifier classify.Classifier,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		cfg:        cfg,
		transport:  tr,
		queue:      queue,
		dispatcher: dispatcher,
		karma:      tracker,
		classifier: classifier,
		logger:     logger,
		sessions:   make(map[string]*report.Session),
	}
}

// SetScorer enables toxicity scoring of edited public messages.
func (c *Controller) SetScorer(s scoring.Scorer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scorer = s
}

// ActiveSessions returns the number of conversations in progress.
func (c *Controller) ActiveSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// HandleEvent processes one inbound event to completion.
func (c *Controller) HandleEvent(ctx context.Context, ev transport.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.AuthorID == c.cfg.BotID {
		return nil
	}
	if ev.IsDM() {
		if ev.Type != transport.EventMessage {
			return nil
		}
		return c.handleDM(ctx, ev)
	}

	switch ev.ChannelName {
	case c.cfg.ModChannel:
		if ev.Type != transport.EventMessage {
			return nil
		}
		return c.dispatcher.HandleVerdict(ctx, ev.GuildID, ev.Content)
	case c.cfg.PublicChannel:
		if ev.Type == transport.EventEdit {
			return c.handleEdit(ctx, ev)
		}
		return c.handlePublic(ctx, ev)
	default:
		return nil
	}
}

// ── Direct messages ──────────────────────────────────────────────────────────

func (c *Controller) handleDM(ctx context.Context, ev transport.Event) error {
	dm := transport.DM(ev.AuthorID)
	if ev.Content == report.HelpKeyword {
		return c.reply(ctx, dm, report.HelpText)
	}

	sess, ok := c.sessions[ev.AuthorID]
	if !ok {
		if queued := c.queue.FindByReporter(ev.AuthorID); queued != nil {
			return c.handleQueued(ctx, dm, queued, ev.Content)
		}
		if ev.Content != report.StartKeyword {
			return nil
		}
		sess = report.NewSession(ev.AuthorID, ev.AuthorName, c.transport)
		c.sessions[ev.AuthorID] = sess
		metrics.RecordSession("started")
		c.logger.Debug("report session started", zap.String("reporter", ev.AuthorID))
	}

	replies, done := sess.HandleInput(ctx, ev.Content)
	for _, r := range replies {
		if err := c.reply(ctx, dm, r); err != nil {
			c.logger.Warn("reply not delivered", zap.String("reporter", ev.AuthorID), zap.Error(err))
		}
	}
	if !done {
		return nil
	}

	delete(c.sessions, ev.AuthorID)
	r := sess.Report()
	if r.Cancelled {
		metrics.RecordSession("cancelled")
		c.logger.Debug("report session cancelled", zap.String("reporter", ev.AuthorID))
		return nil
	}
	metrics.RecordSession("completed")
	count := c.karma.Record(r.Offender())
	c.logger.Info("report completed",
		zap.String("reporter", ev.AuthorID),
		zap.String("offender", r.Offender()),
		zap.Int("offender_reports", count),
	)
	return c.dispatcher.Admit(ctx, r)
}

// handleQueued lets a reporter withdraw a report that is waiting for a
// moderator. Anything other than the cancel keyword is ignored.
func (c *Controller) handleQueued(ctx context.Context, dm transport.Surface, r *report.Report, input string) error {
	if input != report.CancelKeyword {
		return nil
	}
	if err := c.dispatcher.Withdraw(ctx, r.Ticket); err != nil {
		return err
	}
	metrics.RecordSession("withdrawn")
	return c.reply(ctx, dm, replyWithdrawn)
}

// ── Public channel ───────────────────────────────────────────────────────────

func (c *Controller) handlePublic(ctx context.Context, ev transport.Event) error {
	mod := transport.Moderator(ev.GuildID)
	if err := c.reply(ctx, mod, fmt.Sprintf(forwardFmt, ev.AuthorName, ev.Content)); err != nil {
		c.logger.Warn("forward not delivered", zap.String("message_id", ev.MessageID), zap.Error(err))
	}
	if c.classifier == nil {
		return nil
	}

	label, err := c.classifier.Predict(ctx, transport.NormalizeText(ev.Content))
	if err != nil {
		metrics.RecordExternalError("classifier")
		c.logger.Warn("classifier unavailable", zap.String("message_id", ev.MessageID), zap.Error(err))
		return c.reply(ctx, mod, msgClassifySkip)
	}
	if !classify.Flagged(label) {
		return nil
	}

	metrics.RecordClassifierFlag()
	c.logger.Info("message flagged by classifier",
		zap.String("message_id", ev.MessageID),
		zap.String("author", ev.AuthorID),
		zap.Int("label", label),
	)
	return c.dispatcher.Admit(ctx, report.NewAutomated(ev.Ref()))
}

func (c *Controller) handleEdit(ctx context.Context, ev transport.Event) error {
	mod := transport.Moderator(ev.GuildID)
	if err := c.reply(ctx, mod, fmt.Sprintf(forwardEditedFmt, ev.AuthorName, ev.Content)); err != nil {
		c.logger.Warn("edit alert not delivered", zap.String("message_id", ev.MessageID), zap.Error(err))
	}
	if c.scorer == nil {
		return nil
	}

	scores, err := c.scorer.Score(ctx, transport.NormalizeText(ev.Content))
	if err != nil {
		metrics.RecordExternalError("scoring")
		c.logger.Warn("scorer unavailable", zap.String("message_id", ev.MessageID), zap.Error(err))
		return c.reply(ctx, mod, msgScoringSkip)
	}
	body, err := json.MarshalIndent(scores, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	return c.reply(ctx, mod, "```"+string(body)+"```")
}

func (c *Controller) reply(ctx context.Context, s transport.Surface, text string) error {
	if err := c.transport.Send(ctx, s, text); err != nil {
		return fmt.Errorf("send to %s %s: %w", s.Kind, s.ID, err)
	}
	return nil
}
