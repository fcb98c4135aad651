// Package sandbox is a self-contained, in-memory stand-in for the booking
// backend. It serves the same /api routes with the same JSON shapes so the
// client can be developed and tested end to end without the real service.
package sandbox

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/diaglab/diaglab/internal/platform/blobstore"
	"github.com/diaglab/diaglab/internal/platform/middleware"
)

// Demo accounts created on startup.
const (
	AdminEmail      = "admin@ambica.com"
	AdminPassword   = "admin123"
	PatientEmail    = "patient@ambica.com"
	PatientPassword = "patient123"
)

// Slot capacity and layout of the morning collection window.
const (
	slotCapacity = 3
	slotStart    = 6 * time.Hour
	slotEnd      = 8*time.Hour + 30*time.Minute
	slotStep     = 15 * time.Minute
)

type Options struct {
	// Secret signs access tokens. Required.
	Secret string
	// KeyID and KeySecret stand in for the payment gateway credentials.
	// KeySecret signs checkout results; see SignPayment.
	KeyID     string
	KeySecret string

	Logger zerolog.Logger
	Now    func() time.Time
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// Demo adds a completed appointment with a ready PDF report for the
	// demo patient.
	Demo bool
}

type Server struct {
	echo     *echo.Echo
	store    *store
	files    blobstore.Store
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time

	secret    []byte
	keyID     string
	keySecret string
	cost      int
}

func New(opts Options) (*Server, error) {
	if opts.Secret == "" {
		return nil, errors.New("sandbox: secret is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.KeyID == "" {
		opts.KeyID = "rzp_test_sandbox"
	}
	if opts.KeySecret == "" {
		opts.KeySecret = opts.Secret
	}

	s := &Server{
		store:     newStore(),
		files:     blobstore.NewMemoryStore(),
		validate:  validator.New(),
		logger:    opts.Logger,
		now:       opts.Now,
		secret:    []byte(opts.Secret),
		keyID:     opts.KeyID,
		keySecret: opts.KeySecret,
		cost:      opts.BcryptCost,
	}

	if err := s.seedUsers(); err != nil {
		return nil, fmt.Errorf("sandbox: seed users: %w", err)
	}
	if opts.Demo {
		if err := s.seedDemo(); err != nil {
			return nil, fmt.Errorf("sandbox: seed demo data: %w", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recovery(s.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(s.logger))

	s.registerRoutes(e.Group("/api"))
	s.echo = e
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) registerRoutes(g *echo.Group) {
	g.GET("/", s.handleRoot)

	auth := g.Group("/auth")
	auth.POST("/register", s.handleRegister)
	auth.POST("/login", s.handleLogin)
	auth.GET("/me", s.handleMe, s.requireUser)

	admin := []echo.MiddlewareFunc{s.requireUser, s.requireAdmin}

	g.GET("/tests", s.handleListTests)
	g.GET("/tests/:id", s.handleGetTest)
	g.POST("/tests", s.handleCreateTest, admin...)
	g.PUT("/tests/:id", s.handleUpdateTest, admin...)
	g.DELETE("/tests/:id", s.handleDeleteTest, admin...)

	g.GET("/packages", s.handleListPackages)
	g.GET("/packages/:id", s.handleGetPackage)
	g.POST("/packages", s.handleCreatePackage, admin...)
	g.PUT("/packages/:id", s.handleUpdatePackage, admin...)
	g.DELETE("/packages/:id", s.handleDeletePackage, admin...)

	g.GET("/memberships", s.handleListMemberships)
	g.POST("/memberships", s.handleCreateMembership, admin...)
	g.PUT("/memberships/:id", s.handleUpdateMembership, admin...)
	g.DELETE("/memberships/:id", s.handleDeleteMembership, admin...)

	g.GET("/appointments/slots", s.handleSlots)
	g.POST("/appointments", s.handleCreateAppointment, s.requireUser)
	g.GET("/appointments", s.handleMyAppointments, s.requireUser)
	g.GET("/appointments/all", s.handleAllAppointments, admin...)
	g.PUT("/appointments/:id", s.handleUpdateAppointment, admin...)

	g.POST("/payments/create-order", s.handleCreateOrder, s.requireUser)
	g.POST("/payments/verify", s.handleVerifyPayment, s.requireUser)
	g.GET("/payments/history", s.handlePaymentHistory, s.requireUser)

	g.POST("/reports/upload", s.handleUploadReport, admin...)
	g.GET("/reports", s.handleMyReports, s.requireUser)
	g.GET("/reports/all", s.handleAllReports, admin...)
	g.GET("/reports/:id/download", s.handleDownloadReport, s.requireUser)
	g.DELETE("/reports/:id", s.handleDeleteReport, admin...)

	g.GET("/admin/stats", s.handleStats, admin...)
	g.GET("/admin/users", s.handleUsers, admin...)
	g.GET("/admin/search-patients", s.handleSearchPatients, admin...)
	g.POST("/admin/seed-data", s.handleSeedData, admin...)
}

// errorHandler writes every error as {"detail": "..."}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	detail := "Internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"detail": detail})
}
