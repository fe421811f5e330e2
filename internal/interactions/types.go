// ABOUTME: Wire types for Discord interaction webhooks.
// ABOUTME: Minimal subset of the interaction request and response schemas.

package interactions

// Interaction types, per Discord's interaction schema.
const (
	interactionPing               = 1
	interactionApplicationCommand = 2
	interactionMessageComponent   = 3
)

// Response types.
const (
	responsePong           = 1
	responseChannelMessage = 4
)

// flagEphemeral marks a response visible only to the invoking user.
const flagEphemeral = 64

// Interaction is an inbound interaction payload.
type Interaction struct {
	ID      string           `json:"id"`
	Type    int              `json:"type"`
	GuildID string           `json:"guild_id,omitempty"`
	Member  *Member          `json:"member,omitempty"`
	Data    *InteractionData `json:"data,omitempty"`
}

// Member identifies the guild member who triggered the interaction.
type Member struct {
	User User `json:"user"`
}

// User is the invoking Discord user.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

// InteractionData carries the command name, component ID, and options.
type InteractionData struct {
	Name     string   `json:"name,omitempty"`
	CustomID string   `json:"custom_id,omitempty"`
	Options  []Option `json:"options,omitempty"`
}

// Option is one supplied command option. Snowflake-valued options (roles,
// channels) arrive as strings.
type Option struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// StringOption returns the named option's value as a string, or "".
func (d *InteractionData) StringOption(name string) string {
	for _, opt := range d.Options {
		if opt.Name == name {
			if s, ok := opt.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// Response is the payload returned to Discord for an interaction.
type Response struct {
	Type int           `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// ResponseData is the message content of a response.
type ResponseData struct {
	Content    string      `json:"content,omitempty"`
	Flags      int         `json:"flags,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []ActionRow `json:"components,omitempty"`
}

// Embed is a rich message block.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color,omitempty"`
}

// ActionRow is a container for message components.
type ActionRow struct {
	Type       int      `json:"type"` // always 1
	Components []Button `json:"components"`
}

// Button styles.
const (
	buttonSuccess = 3
	buttonDanger  = 4
	buttonLink    = 5
)

// Button is a clickable message component.
type Button struct {
	Type     int    `json:"type"` // always 2
	Style    int    `json:"style"`
	Label    string `json:"label"`
	CustomID string `json:"custom_id,omitempty"`
	URL      string `json:"url,omitempty"`
}
