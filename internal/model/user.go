package model

type UserProfile struct {
	Username string `db:"Username" json:"username"`
	PhotoURL string `db:"PhotoURL" json:"photoURL,omitempty"`
	Language string `db:"Language" json:"language,omitempty"`
}

// LanguageOrDefault falls back to english when the profile has no language
// set, matching what the relay expects.
func (p *UserProfile) LanguageOrDefault() string {
	if p == nil || p.Language == "" {
		return "english"
	}
	return p.Language
}

type ChatSummary struct {
	LastMessage string `json:"lastMessage"`
	Timestamp   int64  `json:"timestamp"`
	UnreadCount int    `json:"unreadCount"`
}
