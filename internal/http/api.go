package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"popballoons/internal/domain"
	"popballoons/internal/payment"
	"popballoons/internal/repository"
	"popballoons/internal/service"
	"popballoons/internal/session"
	"popballoons/internal/storage"
	"popballoons/internal/wallet"
)

var errInvalidForm = errors.New("invalid form")

// Handler wires HTTP routes to domain services.
type Handler struct {
	sessions  *session.Store
	wallets   *wallet.Registry
	purchases service.PurchaseService
	signup    service.SignupService
	media     storage.Service
	tokens    *TokenIssuer
	maxUpload int64
	logger    *logrus.Entry
}

// Options carries the collaborators of the HTTP handler.
type Options struct {
	Sessions       *session.Store
	Wallets        *wallet.Registry
	Purchases      service.PurchaseService
	Signup         service.SignupService
	Media          storage.Service
	Tokens         *TokenIssuer
	MaxUploadBytes int64
	Logger         *logrus.Logger
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		sessions:  opts.Sessions,
		wallets:   opts.Wallets,
		purchases: opts.Purchases,
		signup:    opts.Signup,
		media:     opts.Media,
		tokens:    opts.Tokens,
		maxUpload: opts.MaxUploadBytes,
		logger:    logger.WithField("component", "http"),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.GET("/catalogue", h.catalogue)
		api.GET("/wallets", h.listWallets)
		api.POST("/session/login", h.login)

		client := api.Group("", h.requireClient())
		client.GET("/session", h.currentSession)
		client.POST("/session/logout", h.logout)
		client.POST("/purchases", h.createPurchase)
		client.GET("/purchases", h.listPurchases)
		client.POST("/media", h.uploadMedia)
		client.POST("/signup", h.createCandidate)
		client.GET("/candidates/:account", h.getCandidate)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type loginRequest struct {
	Method string `json:"method" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, existing := h.lookupManager(c)
	if !existing {
		m = h.sessions.Create()
	}

	account, err := m.Login(c.Request.Context(), domain.AuthMethod(strings.ToLower(strings.TrimSpace(req.Method))))
	if err != nil {
		if !existing {
			h.sessions.Remove(m.ClientID())
		}
		h.writeError(c, err)
		return
	}

	h.sessions.Touch(m)

	token, expires, err := h.tokens.Issue(m.ClientID(), account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := LoginResponse{
		Token:     token,
		ExpiresAt: expires.Format(time.RFC3339),
		Session:   sessionToResponse(m.Current()),
	}
	if reg, err := h.signup.CheckRegistration(c.Request.Context(), account); err != nil {
		h.logger.WithError(err).Warn("check registration")
	} else {
		resp.Registration = registrationToResponse(reg)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) logout(c *gin.Context) {
	m := managerFrom(c)
	resp := gin.H{"logged_out": true}
	if err := m.Logout(c.Request.Context()); err != nil {
		resp["warnings"] = []string{err.Error()}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) currentSession(c *gin.Context) {
	c.JSON(http.StatusOK, sessionToResponse(managerFrom(c).Current()))
}

func (h *Handler) listWallets(c *gin.Context) {
	methods := h.wallets.Methods()
	resp := make([]gin.H, len(methods))
	for i, m := range methods {
		resp[i] = gin.H{"method": m, "label": m.Label()}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) catalogue(c *gin.Context) {
	c.JSON(http.StatusOK, h.purchases.Catalogue())
}

type purchaseRequest struct {
	Action      string `json:"action"`
	Description string `json:"description"`
	Coords      string `json:"coords"`
}

func (h *Handler) createPurchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action := strings.TrimSpace(req.Action)
	if action == "" {
		action = payment.ActionFromDescription(req.Description)
	}
	if action == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action is required"})
		return
	}

	purchase, err := h.purchases.Purchase(c.Request.Context(), managerFrom(c).Active(), action, req.Coords)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, purchaseToResponse(*purchase))
}

func (h *Handler) listPurchases(c *gin.Context) {
	purchases, err := h.purchases.History(c.Request.Context(), managerFrom(c).Current().Account)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]PurchaseResponse, len(purchases))
	for i := range purchases {
		resp[i] = purchaseToResponse(purchases[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) uploadMedia(c *gin.Context) {
	if h.media == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage service not configured"})
		return
	}
	h.limitBody(c)

	in, closeFile, err := formUpload(c, "file")
	if err != nil {
		h.writeError(c, err)
		return
	}
	if in == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer closeFile()
	in.Account = managerFrom(c).Current().Account

	obj, err := h.media.Upload(c.Request.Context(), *in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, objectToResponse(*obj))
}

func (h *Handler) createCandidate(c *gin.Context) {
	h.limitBody(c)

	form := service.SignupForm{
		Nickname:      c.PostForm("nickname"),
		Gender:        c.PostForm("gender"),
		Platform:      c.PostForm("platform"),
		SocialHandle:  c.PostForm("social_handle"),
		Age:           c.PostForm("age"),
		ProfilePic:    c.PostForm("profile_pic"),
		LoveLanguages: c.PostFormArray("love_languages"),
		Hobbies:       c.PostFormArray("hobbies"),
		DealBreakers:  c.PostFormArray("deal_breakers"),
		TermsAccepted: formBool(c.PostForm("terms_confirmed")),
	}

	in, closeFile, err := formUpload(c, "profile_pic_upload")
	if err != nil {
		h.writeError(c, err)
		return
	}
	if in != nil {
		defer closeFile()
		form.Picture = in
	}

	result, err := h.signup.Signup(c.Request.Context(), managerFrom(c).Active(), form)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := SignupResponse{
		Candidate: candidateToResponse(*result.Candidate),
		Placed:    result.Placement.Placed,
		Warnings:  result.Warnings,
	}
	if result.Placement.Placed {
		resp.Spot = &SpotResponse{X: result.Placement.X, Y: result.Placement.Y}
	}
	resp.Waitlist = result.Placement.Waitlisted
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) getCandidate(c *gin.Context) {
	candidate, err := h.signup.GetByWaxAccount(c.Request.Context(), c.Param("account"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidateToResponse(*candidate))
}

func (h *Handler) limitBody(c *gin.Context) {
	if h.maxUpload > 0 {
		// room for the other form fields
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1<<20)
	}
}

// formBool reads a checkbox value; browsers post "on" for a checked box.
func formBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "on" || v == "yes" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// formUpload returns nil when the multipart field is absent.
func formUpload(c *gin.Context, field string) (*storage.UploadInput, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, fmt.Errorf("%w: %w", errInvalidForm, err)
	}
	file, err := header.Open()
	if err != nil {
		return nil, func() {}, fmt.Errorf("%w: %w", errInvalidForm, err)
	}
	return &storage.UploadInput{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, func() { _ = file.Close() }, nil
}

// writeError maps domain errors to the status the UI reacts to.
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		authErr    *domain.AuthError
		paymentErr *domain.PaymentError
		uploadErr  *domain.UploadError
		maxErr     *http.MaxBytesError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnknownMethod):
		status = http.StatusBadRequest
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
	case errors.As(err, &paymentErr):
		status = http.StatusPaymentRequired
	case errors.As(err, &maxErr), errors.Is(err, domain.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &uploadErr):
		status = http.StatusBadGateway
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrCandidateExists):
		status = http.StatusConflict
	case errors.Is(err, service.ErrTermsNotAccepted),
		errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrMissingPreferences),
		errors.Is(err, payment.ErrUnknownItem),
		errors.Is(err, payment.ErrInvalidCoords),
		errors.Is(err, errInvalidForm):
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).Errorf("%s %s", c.Request.Method, c.FullPath())
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
