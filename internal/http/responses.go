package http

import (
	"time"

	"popballoons/internal/domain"
	"popballoons/internal/service"
	"popballoons/internal/storage"
)

type SessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	Account       string            `json:"account,omitempty"`
	Method        domain.AuthMethod `json:"method,omitempty"`
	Wallet        string            `json:"wallet,omitempty"`
	LoggedInAt    *string           `json:"logged_in_at,omitempty"`
}

type PrefillResponse struct {
	Platform             string `json:"platform"`
	SocialHandle         string `json:"social_handle"`
	SocialHandleReadOnly bool   `json:"social_handle_read_only"`
}

type RegistrationResponse struct {
	Registered bool               `json:"registered"`
	Candidate  *CandidateResponse `json:"candidate,omitempty"`
	Prefill    *PrefillResponse   `json:"prefill,omitempty"`
}

type LoginResponse struct {
	Token        string                `json:"token"`
	ExpiresAt    string                `json:"expires_at"`
	Session      SessionResponse       `json:"session"`
	Registration *RegistrationResponse `json:"registration,omitempty"`
}

type PurchaseResponse struct {
	ID            int64             `json:"id"`
	Account       string            `json:"account"`
	Action        string            `json:"action"`
	Quantity      string            `json:"quantity"`
	TransactionID string            `json:"transaction_id"`
	Method        domain.AuthMethod `json:"method"`
	CreatedAt     string            `json:"created_at"`
}

type MediaResponse struct {
	CID            string `json:"cid"`
	URL            string `json:"url"`
	Size           int64  `json:"size"`
	MirrorLocation string `json:"mirror_location,omitempty"`
}

type CandidateResponse struct {
	ID            int64    `json:"id"`
	Nickname      string   `json:"nickname"`
	Gender        string   `json:"gender"`
	Platform      string   `json:"platform"`
	SocialHandle  string   `json:"socialHandle"`
	Age           string   `json:"age"`
	ProfilePic    string   `json:"profilePic"`
	LoveLanguages []string `json:"loveLanguages"`
	Hobbies       []string `json:"hobbies"`
	DealBreakers  []string `json:"dealBreakers"`
	WaxAccount    *string  `json:"waxAccount"`
	IsRealSignup  bool     `json:"isRealSignup"`
	MatchedWith   []string `json:"matchedWith"`
	FullHearts    int      `json:"fullHearts"`
	BrokenHearts  int      `json:"brokenHearts"`
	IsSimulated   bool     `json:"isSimulated"`
	IsSubscribed  bool     `json:"isSubscribed"`
	AdFree        bool     `json:"adFree"`
	MetadataCID   string   `json:"metadataCid,omitempty"`
}

type SpotResponse struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type SignupResponse struct {
	Candidate CandidateResponse `json:"candidate"`
	Placed    bool              `json:"placed"`
	Spot      *SpotResponse     `json:"spot,omitempty"`
	Waitlist  string            `json:"waitlist,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

func sessionToResponse(s domain.UserSession) SessionResponse {
	resp := SessionResponse{
		Authenticated: s.Authenticated,
		Account:       s.Account,
		Method:        s.Method,
	}
	if s.Authenticated {
		resp.Wallet = s.Method.Label()
		v := s.LoggedInAt.Format(time.RFC3339)
		resp.LoggedInAt = &v
	}
	return resp
}

func registrationToResponse(reg *service.Registration) *RegistrationResponse {
	if reg == nil {
		return nil
	}
	resp := &RegistrationResponse{Registered: reg.Registered}
	if reg.Candidate != nil {
		c := candidateToResponse(*reg.Candidate)
		resp.Candidate = &c
	}
	if reg.Prefill != nil {
		resp.Prefill = &PrefillResponse{
			Platform:             reg.Prefill.Platform,
			SocialHandle:         reg.Prefill.SocialHandle,
			SocialHandleReadOnly: reg.Prefill.SocialHandleReadOnly,
		}
	}
	return resp
}

func purchaseToResponse(p domain.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:            p.ID,
		Account:       p.Account,
		Action:        p.Action,
		Quantity:      p.Quantity,
		TransactionID: p.TransactionID,
		Method:        p.Method,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}

func objectToResponse(obj storage.Object) MediaResponse {
	return MediaResponse{
		CID:            obj.CID,
		URL:            obj.URL,
		Size:           obj.Size,
		MirrorLocation: obj.MirrorLocation,
	}
}

func candidateToResponse(c domain.Candidate) CandidateResponse {
	resp := CandidateResponse{
		ID:            c.ID,
		Nickname:      c.Nickname,
		Gender:        c.Gender,
		Platform:      c.Platform,
		SocialHandle:  c.SocialHandle,
		Age:           c.Age,
		ProfilePic:    c.ProfilePic,
		LoveLanguages: c.LoveLanguages,
		Hobbies:       c.Hobbies,
		DealBreakers:  c.DealBreakers,
		IsRealSignup:  c.IsRealSignup,
		MatchedWith:   c.MatchedWith,
		FullHearts:    c.FullHearts,
		BrokenHearts:  c.BrokenHearts,
		IsSimulated:   c.IsSimulated,
		IsSubscribed:  c.IsSubscribed,
		AdFree:        c.AdFree,
		MetadataCID:   c.MetadataCID,
	}
	if c.WaxAccount != "" {
		v := c.WaxAccount
		resp.WaxAccount = &v
	}
	if resp.MatchedWith == nil {
		resp.MatchedWith = []string{}
	}
	return resp
}
