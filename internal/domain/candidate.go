package domain

import "time"

// PlatformWAX marks a candidate whose social handle is their wallet account.
const PlatformWAX = "WAX"

// Candidate represents a player profile created at signup.
type Candidate struct {
	ID            int64
	Nickname      string
	Gender        string
	Platform      string
	SocialHandle  string
	Age           string
	ProfilePic    string
	LoveLanguages []string
	Hobbies       []string
	DealBreakers  []string
	WaxAccount    string
	IsRealSignup  bool
	IsSimulated   bool
	IsSubscribed  bool
	AdFree        bool
	FullHearts    int
	BrokenHearts  int
	MatchedWith   []string
	MetadataCID   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
