package moderation

import (
	"fmt"
	"strings"

	"github.com/jmerrifield20/modbot/internal/report"
)

// Verdict words accepted from moderators.
const (
	VerdictYes     = "yes"
	VerdictNo      = "no"
	VerdictUnclear = "unclear"
)

const automatedReporterName = "COVID-19 misinformation Bot"

const (
	promptYesNo        = "Is a response necessary? Please enter `yes` or `no`."
	promptYesNoUnclear = "Is a response necessary? Please enter `yes`, `no`, or `unclear`."
)

func verdictPrompt(r *report.Report) string {
	if r.Misinformation() {
		return promptYesNoUnclear
	}
	return promptYesNo
}

// Render composes the moderator-facing message for r. flagged adds the
// repeat-offender warning with the offender's current count.
func Render(r *report.Report, flagged bool, count int) string {
	var b strings.Builder
	author := ""
	content := ""
	if r.Message != nil {
		author = r.Message.AuthorName
		content = r.Message.Content
	}

	b.WriteString("NEW REPORT \n")
	if r.Automated() {
		fmt.Fprintf(&b, "made by `%s` regarding a post by `%s`", automatedReporterName, author)
		fmt.Fprintf(&b, "\n• The message was automatically flagged as **%s**", r.BroadCategory)
		fmt.Fprintf(&b, "\n• And is more specifically related to **%s**", r.SpecificCategory)
	} else {
		fmt.Fprintf(&b, "made by `%s` regarding a post by `%s`", r.ReporterName, author)
		fmt.Fprintf(&b, "\n• The message reported falls under **%s**", r.BroadCategory)
		fmt.Fprintf(&b, "\n• And is more specifically related to **%s**", r.SpecificCategory)
		fmt.Fprintf(&b, "\n• Here is an optional message from the reporter: **%s**", r.Note())
		fmt.Fprintf(&b, "\n• Would the reporter like to no longer see posts from the same user? **%s**", r.PostVisibility)
		if r.PostVisibility == report.VisibilityYes {
			fmt.Fprintf(&b, "\nHow would the reporter like to change the status of the offending user's relationship with them? **%s**", r.UserVisibility)
		}
	}

	fmt.Fprintf(&b, "\n\n And here is the message content: ```%s```", content)
	if flagged {
		fmt.Fprintf(&b, "\nATTENTION: This user has been reported %d times. It may be appropriate to take further action by restricting this user.", count)
	}
	b.WriteString("\n" + verdictPrompt(r))
	return b.String()
}
