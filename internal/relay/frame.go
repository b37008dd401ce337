package relay

// Translation modes understood by the relay.
const (
	KeyText        = "text"
	KeyAudioToText = "audio_to_text"
	KeyVoice       = "vv"
	KeyNone        = "none"
)

// Frame is the outbound envelope. The id is echoed back by the relay so
// concurrent in-flight sends can never be mismatched.
type Frame struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	Lang       string `json:"lang"`
	SenderLang string `json:"sender_lang"`
	Key        string `json:"key"`
}

// Response is the inbound envelope carrying the translated payload.
type Response struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}
