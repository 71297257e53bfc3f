// Package messages holds the user facing text that the bot sends in response to interactions.
package messages

const (
	// ErrUserErrorProcessing is shown when an interaction fails for a reason the user cannot fix.
	ErrUserErrorProcessing = "Something went wrong while processing your request. Please try again later."

	// ErrNotPermitted is shown to users running admin only commands.
	ErrNotPermitted = "You do not have permission to use this command!"

	// ErrStaffOnly is shown when a staff only action is attempted by someone without the staff role.
	ErrStaffOnly = "You do not have permission to use this command. This action is restricted to staff members only."

	// ErrClaimStaffOnly is shown when a non staff member presses the claim button.
	ErrClaimStaffOnly = "You do not have permission to claim this ticket. This action is restricted to staff members only."

	// ErrCloseNotPermitted is shown when someone other than staff or the creator tries to close a ticket.
	ErrCloseNotPermitted = "You do not have permission to close this ticket. This action is restricted to staff members or the ticket creator."

	// ErrGuildOnly is shown when an interaction arrives outside a server.
	ErrGuildOnly = "This command can only be used in a server."

	// ErrUnknownInteraction is shown when no handler exists for a command or button.
	ErrUnknownInteraction = "This command is not recognised. It may have been removed."

	// ErrAlreadyOpen is shown when the user already has an open ticket.
	ErrAlreadyOpen = "You already have an open ticket! Please wait until it is closed before creating a new one."

	// ErrNotTicketChannel is shown when a ticket command is used outside a ticket channel.
	ErrNotTicketChannel = "This command can only be used in a ticket channel."

	// ErrNotOpenTicket is shown when a close is requested on a ticket that is already closed.
	ErrNotOpenTicket = "This channel is not an open ticket."

	// ErrNotClosedTicket is shown when a reopen is requested on a ticket that is not closed.
	ErrNotClosedTicket = "This channel is not a closed ticket."

	// ErrTicketNotFound is shown when the ticket record no longer exists.
	ErrTicketNotFound = "This ticket could not be found. It may have been deleted."

	// ErrPanelNotConfigured is shown when a ticket is requested before the support panel is set up.
	ErrPanelNotConfigured = "The support panel has not been set up for this server. Please ask an administrator to run /support."

	// ErrNotClaimed is shown when unclaiming a ticket that nobody claimed.
	ErrNotClaimed = "This ticket has not been claimed."

	// ErrNotClaimer is shown when someone other than the claimer tries to unclaim.
	ErrNotClaimer = "Only the person who claimed this ticket can unclaim it."

	// ErrCreatorUnknown is shown when the ticket record is missing the creator.
	ErrCreatorUnknown = "Could not determine the ticket creator. The ticket data may be missing."

	// ErrCreatorLeft is shown when reopening a ticket whose creator left the server.
	ErrCreatorLeft = "The ticket creator is no longer in the server."

	// ErrCategoryNotFound is shown when the stored ticket category no longer exists.
	ErrCategoryNotFound = "Error: Ticket category not found!"

	// ErrParticipantRequired is shown when add/remove is used without a user or role.
	ErrParticipantRequired = "You must provide at least one option (user or role) to proceed."

	// ErrRemoveSelf is shown when staff try to remove themselves from a ticket.
	ErrRemoveSelf = "You cannot remove yourself from the ticket while retaining staff access."

	// ErrEditNothing is shown when /edit is run without any option.
	ErrEditNothing = "You must provide at least one option to edit (title, description, color, button_label, or image)."

	// ErrPanelNotFound is shown when /edit targets a channel without a panel.
	ErrPanelNotFound = "No support panel found in the specified channel. Please set up a panel using /support first."

	// ErrPanelMessageMissing is shown when the panel message cannot be located.
	ErrPanelMessageMissing = "Could not find the support panel message in the specified channel. Please ensure the panel exists and hasn't been deleted."

	// ErrInvalidColor is shown when the color option cannot be parsed.
	ErrInvalidColor = "The color must be a hex code such as 0xFF0000 or #FF0000."

	// ErrCloseFailed is shown when the channel could not be edited while closing.
	ErrCloseFailed = "Failed to close the ticket due to an error."

	// ErrReopenFailed is shown when the channel could not be edited while reopening.
	ErrReopenFailed = "Failed to reopen the ticket due to an error."

	// ErrTranscriptFailed is shown when the ticket closed but the transcript could not be generated.
	ErrTranscriptFailed = "Failed to generate transcript. Ticket closed but transcript unavailable."
)

const (
	// ClosureCanceled acknowledges the abort button.
	ClosureCanceled = "Ticket closure canceled."

	// TicketClosed acknowledges the proceed button.
	TicketClosed = "Ticket closed!"

	// ClaimedTicket acknowledges a claim.
	ClaimedTicket = "You have claimed this ticket!"

	// UnclaimedTicket acknowledges an unclaim.
	UnclaimedTicket = "You have unclaimed this ticket."

	// ConfirmationPosted acknowledges a close request.
	ConfirmationPosted = "A confirmation prompt has been posted in the ticket."

	// PanelGuide is appended to the setup and edit confirmations.
	PanelGuide = "**Embed Customization Guide:**\n" +
		"**Image URL Rules:**\n" +
		"- Use a valid URL starting with `http://` or `https://`.\n" +
		"- The URL must end with `.png`, `.jpg`, `.jpeg`, or `.gif`.\n" +
		"- Avoid adding parameters like `?` or `#` at the end of the URL.\n" +
		"- Use `none` as the image in /edit to remove the image.\n" +
		"**Note on Embed Color:** use a hex color code in the format `0xRRGGBB` (e.g., `0xFF0000` for red)."
)
