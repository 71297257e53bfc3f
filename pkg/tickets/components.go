package tickets

import (
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/entities"
)

const (
	// SupportButtonID is the custom ID of the create ticket button on the support panel.
	SupportButtonID = "support_button"

	// ClaimButtonID is the custom ID of the claim button on the welcome message.
	ClaimButtonID = "claim_ticket"

	// CloseButtonID is the custom ID of the close button on the welcome message.
	CloseButtonID = "close_ticket"

	// ConfirmCloseButtonID is the custom ID of the proceed button on the close prompt.
	ConfirmCloseButtonID = "confirm_close"

	// AbortCloseButtonID is the custom ID of the abort button on the close prompt.
	AbortCloseButtonID = "abort_close"
)

const (
	// PanelFooter marks the bot's panel and welcome embeds.
	PanelFooter = "🎫 Support"

	supportEmoji = "📬"
	claimEmoji   = "📩"
	closeEmoji   = "🔒"
)

// Embed colors.
const (
	ColorRed    = 0xE74C3C
	ColorGold   = 0xF1C40F
	ColorOrange = 0xE67E22
	ColorBlue   = 0x3498DB
)

const (
	panelDescription = "Welcome to our assistance center!\n" +
		"Tap the button below to initiate a ticket, where our expert team will promptly address your concerns.\n" +
		"**Guidance:** Please remain polite, provide detailed information, and refrain from excessive pings. Our support will reach out soon!"

	// imageNone removes the panel image when given to EditPanel.
	imageNone = "none"
)

var (
	// initialButtons are the remembered labels of the welcome message buttons.
	initialButtons = []string{claimEmoji + " Claim Ticket", closeEmoji + " Close Ticket"}

	// confirmationButtons are the remembered labels of the close prompt buttons.
	confirmationButtons = []string{"Proceed", "Abort"}

	imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}
)

// ValidImageURL reports whether the URL can be used as an embed image.
func ValidImageURL(u string) bool {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return false
	}
	lower := strings.ToLower(u)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func panelEmbed(p *entities.Panel) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       p.Title,
		Description: p.Description,
		Color:       p.Color,
		Footer:      &discordgo.MessageEmbedFooter{Text: PanelFooter},
	}
	if p.ImageURL != "" && ValidImageURL(p.ImageURL) {
		embed.Image = &discordgo.MessageEmbedImage{URL: p.ImageURL}
	}
	return embed
}

func panelComponents(p *entities.Panel) []discordgo.MessageComponent {
	label := p.ButtonLabel
	if label == "" {
		label = entities.DefaultButtonLabel
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    label,
					Style:    discordgo.SuccessButton,
					Emoji:    discordgo.ComponentEmoji{Name: supportEmoji},
					CustomID: SupportButtonID,
				},
			},
		},
	}
}

func welcomeMessage(p *entities.Panel) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{panelEmbed(p)},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Claim Ticket",
						Style:    discordgo.SuccessButton,
						Emoji:    discordgo.ComponentEmoji{Name: claimEmoji},
						CustomID: ClaimButtonID,
					},
					discordgo.Button{
						Label:    "Close Ticket",
						Style:    discordgo.DangerButton,
						Emoji:    discordgo.ComponentEmoji{Name: closeEmoji},
						CustomID: CloseButtonID,
					},
				},
			},
		},
	}
}

func confirmationMessage(id int) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Ticket Closure",
				Description: fmt.Sprintf("Confirm closing %s?", entities.OpenName(id)),
				Color:       ColorOrange,
			},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    confirmationButtons[0],
						Style:    discordgo.SuccessButton,
						CustomID: ConfirmCloseButtonID,
					},
					discordgo.Button{
						Label:    confirmationButtons[1],
						Style:    discordgo.DangerButton,
						CustomID: AbortCloseButtonID,
					},
				},
			},
		},
	}
}

func notice(description string, color int) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Description: description,
				Color:       color,
			},
		},
	}
}

func userMention(id string) string {
	return "<@" + id + ">"
}

func roleMention(id string) string {
	return "<@&" + id + ">"
}

func channelMention(id string) string {
	if id == "" {
		return ""
	}
	return "<#" + id + ">"
}

func isPanelMessage(msg *discordgo.Message, botID string) bool {
	if msg == nil || msg.Author == nil || msg.Author.ID != botID || len(msg.Embeds) == 0 {
		return false
	}
	footer := msg.Embeds[0].Footer
	return footer != nil && footer.Text == PanelFooter
}
