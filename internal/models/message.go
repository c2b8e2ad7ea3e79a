package models

// MessageType classifies an inbound WhatsApp message after webhook
// normalization
type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageVideo    MessageType = "video"
	MessageDocument MessageType = "document"
)

// InboundMessage is a normalized inbound WhatsApp message. Interactive
// list replies arrive as MessageText with Body set to the selected
// option id.
type InboundMessage struct {
	From             string      `json:"from"`
	Type             MessageType `json:"type"`
	Body             string      `json:"body"`
	MediaURL         string      `json:"media_url"`
	MediaContentType string      `json:"media_content_type"`
}

// MenuOption is one selectable row of an interactive list menu
type MenuOption struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Menu describes an interactive list message. When ContentSID is set the
// gateway sends the registered Twilio content template; otherwise the
// menu is rendered as a plain-text option list.
type Menu struct {
	Header     string       `json:"header"`
	Body       string       `json:"body"`
	Footer     string       `json:"footer"`
	Button     string       `json:"button"`
	Section    string       `json:"section"`
	Options    []MenuOption `json:"options"`
	ContentSID string       `json:"-"`
}

// DriveFile identifies a stored artifact in the media store
type DriveFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attachment is an in-memory email attachment
type Attachment struct {
	Filename string
	Content  []byte
}

// Email is an outbound email message
type Email struct {
	To          string
	Cc          []string
	Bcc         []string
	Subject     string
	Body        string
	Attachments []Attachment
}
