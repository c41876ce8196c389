package report

// Keywords recognized by the reporting conversation.
const (
	StartKeyword  = "report"
	CancelKeyword = "cancel"
	HelpKeyword   = "help"
)

const (
	replyCancelled = "Report cancelled."

	promptWelcome = "Thank you for starting the reporting process. " +
		"Say `help` at any time for more information.\n\n" +
		"Please copy paste the link to the message you want to report.\n" +
		"You can obtain this link by right-clicking the message and clicking `Copy Message Link`."

	replyBadLink        = "I'm sorry, I couldn't read that link. Please try again or say `cancel` to cancel."
	replyUnknownGuild   = "I cannot accept reports of messages from guilds that I'm not in. Please have the guild owner add me to the guild and try again."
	replyUnknownChannel = "It seems this channel was deleted or never existed. Please try again or say `cancel` to cancel."
	replyUnknownMessage = "It seems this message was deleted or never existed. Please try again or say `cancel` to cancel."
	replyLookupFailed   = "I couldn't look up that message right now. Please try again or say `cancel` to cancel."

	replyFound        = "Great, I found this message:"
	promptBroadHeader = "What is the reason you are reporting this message? (Choose from below.)\n"

	replyBadBroad        = "I'm sorry but I do not understand. Please enter a number from 1 to 5."
	replyBadSpecificFmt  = "I'm sorry but I do not understand. Please enter a number from 1 to %d."
	replyBadYesNo        = "I'm sorry but I do not understand. Please enter `yes` or `no`. (Please use lowercase)."
	replyBadMuteBlock    = "I'm sorry but I do not understand. Please enter `mute` or `block`. (Please use lowercase)."
	promptOptional       = "If you would like to add more information to your report, here is space to do so. Enter your message when you are ready to proceed."
	addendumCDC          = "\n\nAlso, here is the link to visit the CDC website for the latest information on Covid-19: https://www.cdc.gov/coronavirus/2019-ncov/index.html"
	promptPostVisibility = "\n\nWould you like to no longer see posts by this user? Please enter `yes` or `no`."
	promptUserVisibility = "We can mute this user, so you can no longer see their posts, or we can block them so they cannot contact you at all. Which would you prefer? Please choose `mute` or `block`."
)

var acknowledgements = map[int]string{
	BroadMisinformation: "Thank you for your report. We will send this to our fact-checking partners and when misinformation is confirmed, we will limit the content's distribution and warn other users.",
	BroadDangerous:      "Thank you for your report. It will be reviewed by our content moderation team, who will decide future action, including any necessary reports to law enforcement. Thank you for trying to keep our platform safe.",
}

const defaultAcknowledgement = "Thank you for your report. It will be reviewed by our content moderation team, who will decide future action, including if the post should be removed or the user banned."

// HelpText is the usage text sent in reply to the help keyword.
const HelpText = "Use the `report` command to begin the reporting process.\n" +
	"Use the `cancel` command to cancel the report process.\n"

func acknowledgement(broad int) string {
	if ack, ok := acknowledgements[broad]; ok {
		return ack
	}
	return defaultAcknowledgement
}
