// Package report implements the reporting conversation: the Report record
// and the Session state machine that fills it in one user message at a time.
package report

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jmerrifield20/modbot/internal/transport"
)

// State is a step of the reporting conversation.
type State int

const (
	StateStart State = iota
	StateAwaitingMessage
	StateBroadCategory
	StateSpecificCategory
	StateOptionalMessage
	StatePostVisibility
	StateUserVisibility
	StateFinishing
	StateComplete
)

var stateNames = map[State]string{
	StateStart:            "start",
	StateAwaitingMessage:  "awaiting_message",
	StateBroadCategory:    "broad_category",
	StateSpecificCategory: "specific_category",
	StateOptionalMessage:  "optional_message",
	StatePostVisibility:   "post_visibility",
	StateUserVisibility:   "user_visibility",
	StateFinishing:        "finishing",
	StateComplete:         "complete",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// AutomatedID is the reserved identity of reports raised by the classifier.
const AutomatedID = "auto"

// Reporter preferences for the offender's future visibility.
const (
	VisibilityYes   = "yes"
	VisibilityNo    = "no"
	VisibilityMute  = "mute"
	VisibilityBlock = "block"
)

// Report is the unit of moderation work. Once State is StateComplete the
// record is no longer modified.
type Report struct {
	// ID is the reporter's user id, or AutomatedID.
	ID string `json:"id"`
	// Ticket identifies the report from creation through resolution.
	Ticket       uuid.UUID `json:"ticket"`
	State        State     `json:"-"`
	ReporterName string    `json:"reporter_name"`

	Message *transport.MessageRef `json:"message,omitempty"`

	BroadChoice      int    `json:"broad_choice"`
	SpecificChoice   int    `json:"specific_choice"`
	BroadCategory    string `json:"broad_category"`
	SpecificCategory string `json:"specific_category"`

	OptionalMessage *string `json:"optional_message,omitempty"`
	PostVisibility  string  `json:"post_visibility,omitempty"`
	UserVisibility  string  `json:"user_visibility,omitempty"`

	Cancelled bool `json:"cancelled"`

	upperBound int
}

// NewAutomated builds a complete report for a message the classifier flagged.
// Automated reports are always filed as Covid-19 misinformation.
func NewAutomated(msg *transport.MessageRef) *Report {
	return &Report{
		ID:               AutomatedID,
		Ticket:           uuid.New(),
		State:            StateComplete,
		ReporterName:     AutomatedID,
		Message:          msg,
		BroadChoice:      BroadMisinformation,
		SpecificChoice:   2,
		BroadCategory:    BroadLabel(BroadMisinformation),
		SpecificCategory: SpecificLabel(BroadMisinformation, 2),
	}
}

// Automated reports whether the report was raised by the classifier.
func (r *Report) Automated() bool { return r.ID == AutomatedID }

// Complete reports whether the conversation has ended, by completion or cancellation.
func (r *Report) Complete() bool { return r.State == StateComplete }

// Misinformation reports whether the report falls under the misinformation category.
func (r *Report) Misinformation() bool { return r.BroadChoice == BroadMisinformation }

// HighRisk reports whether the specific category is one of the high-risk misinformation topics.
func (r *Report) HighRisk() bool {
	return r.Misinformation() && IsHighRisk(SpecificLabel(r.BroadChoice, r.SpecificChoice))
}

// Offender returns the author id of the reported message.
func (r *Report) Offender() string {
	if r.Message == nil {
		return ""
	}
	return r.Message.AuthorID
}

// Note returns the reporter's optional message, "" when none was given.
func (r *Report) Note() string {
	if r.OptionalMessage == nil {
		return ""
	}
	return *r.OptionalMessage
}

// Summary renders the reporter-facing recap of everything collected. It only
// reads the report, so repeated calls return the same text.
func (r *Report) Summary() string {
	var b strings.Builder
	b.WriteString("Thank you for your report! Here is the information we got from you:")
	b.WriteString("\nThe message you reported falls under " + BroadLabel(r.BroadChoice))
	b.WriteString(", and is more specifically related to " + SpecificLabel(r.BroadChoice, r.SpecificChoice))
	b.WriteString("\nWould you like to no longer see posts from the user who made the post you are reporting? " + r.PostVisibility)
	if r.PostVisibility == VisibilityYes {
		b.WriteString("\nHow would you like to change the status of the user's ability to interact with you? " + r.UserVisibility)
	}
	b.WriteString("\n\nOnce again, we appreciate the report and will follow up with necessary changes.")
	return b.String()
}
