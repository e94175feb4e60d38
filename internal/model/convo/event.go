package convo

// Kind classifies an inbound event by content.
type Kind string

const (
	KindText    Kind = "text"
	KindVoice   Kind = "voice"
	KindPhoto   Kind = "photo"
	KindCommand Kind = "command"
)

// PhotoSize is one resolution variant of an inbound photo; the transport
// typically provides several thumbnails plus the full image.
type PhotoSize struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Event is the transport-agnostic inbound message shape. The transport
// layer only translates raw messages into this struct; it never touches
// session fields.
type Event struct {
	SessionID string `json:"sessionId"`
	Kind      Kind   `json:"kind"`

	// Text carries the message text for KindText, or the command (with
	// leading slash) for KindCommand.
	Text string `json:"text,omitempty"`

	// Audio carries raw voice bytes for KindVoice.
	Audio       []byte `json:"audio,omitempty"`
	AudioFormat string `json:"audioFormat,omitempty"`

	// Photo carries the available size variants for KindPhoto.
	Photo []PhotoSize `json:"photo,omitempty"`
}

// LargestPhoto returns the highest-resolution variant, or false when the
// event carries no photo.
func (e Event) LargestPhoto() (PhotoSize, bool) {
	if len(e.Photo) == 0 {
		return PhotoSize{}, false
	}
	best := e.Photo[0]
	for _, p := range e.Photo[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best, true
}

// Image is an outbound attachment: either inline bytes or a URL the
// transport can forward.
type Image struct {
	URL  string `json:"url,omitempty"`
	Data []byte `json:"data,omitempty"`
}

// Reply is the outbound side of one turn. Text may carry lightweight
// markdown markers; Keyboard is a closed set of suggested replies the
// transport may render.
type Reply struct {
	Text     string   `json:"text"`
	Image    *Image   `json:"image,omitempty"`
	Keyboard []string `json:"keyboard,omitempty"`
}
