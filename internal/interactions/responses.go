// ABOUTME: Builders translating auth outcomes into Discord response payloads.
// ABOUTME: All flow responses are ephemeral embeds; errors never leak raw details.

package interactions

import (
	"fmt"

	"github.com/goonauthnetwork/discord-auth/internal/auth"
)

const embedTitle = "Goon Authentication"

// Embed accent colors.
const (
	colorTeal = 0x1abc9c
	colorRed  = 0xe74c3c
	colorGray = 0x95a5a6
)

const profileURL = "https://forums.somethingawful.com/member.php?action=editprofile"

// ephemeralEmbed builds a single-embed ephemeral message response.
func ephemeralEmbed(description string, color int, components []ActionRow) *Response {
	return &Response{
		Type: responseChannelMessage,
		Data: &ResponseData{
			Flags: flagEphemeral,
			Embeds: []Embed{{
				Title:       embedTitle,
				Description: description,
				Color:       color,
			}},
			Components: components,
		},
	}
}

// verifyButtons is the action row offered alongside a fresh challenge.
func verifyButtons() []ActionRow {
	return []ActionRow{{
		Type: 1,
		Components: []Button{
			{Type: 2, Style: buttonLink, Label: "SA Profile", URL: profileURL},
			{Type: 2, Style: buttonSuccess, Label: "Verify Hash", CustomID: "auth.verify"},
			{Type: 2, Style: buttonDanger, Label: "Cancel", CustomID: "auth.cancel"},
		},
	}}
}

// renderOutcome maps an orchestrator outcome to a Discord response.
func renderOutcome(out auth.Outcome) *Response {
	switch out.Kind {
	case auth.OutcomeChallengeIssued:
		message := fmt.Sprintf(
			"Please place the following hash anywhere in the "+
				"**Additional Information** section of your Something Awful profile."+
				"\n\n**%s**\n\n"+
				"Note: The hash expires after **five minutes**.\n\n"+
				"Once finished, click the \"Verify Hash\" button below.",
			out.Challenge)
		return ephemeralEmbed(message, colorTeal, verifyButtons())

	case auth.OutcomeAlreadyAuthenticated:
		return ephemeralEmbed("You're already authenticated in this server.", colorTeal, nil)

	case auth.OutcomeWelcomeBack:
		message := fmt.Sprintf(
			"Welcome back %s, you're already authenticated so you get to skip the line!",
			out.UserName)
		return ephemeralEmbed(message, colorTeal, nil)

	case auth.OutcomeNotYetValidated:
		return ephemeralEmbed(
			"Failed to validate, is the hash in your profile? Give the forum "+
				"a moment and try the button again.", colorGray, verifyButtons())

	case auth.OutcomeVerified:
		message := fmt.Sprintf(
			"Validation succeeded, welcome to the Goon Auth Network, %s!",
			out.UserName)
		return ephemeralEmbed(message, colorTeal, nil)

	case auth.OutcomeCancelled:
		return ephemeralEmbed("Auth attempt cancelled.", colorGray, nil)

	case auth.OutcomeError:
		return ephemeralEmbed(out.Message, colorRed, nil)
	}

	return ephemeralEmbed("Something unexpected happened, please try again.", colorRed, nil)
}

// helpResponse describes the auth flow for /help.
func helpResponse() *Response {
	return ephemeralEmbed(
		"Use **/auth** with your Something Awful username to get a challenge "+
			"hash, paste it into your SA profile, then click **Verify Hash**. "+
			"Server owners use **/setup** to pick the authenticated role and "+
			"notice channels.", colorTeal, nil)
}
