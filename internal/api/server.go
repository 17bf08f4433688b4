package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/raspicam-bridge/internal/auth"
	"github.com/nerrad567/raspicam-bridge/internal/camera"
	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/config"
	"github.com/nerrad567/raspicam-bridge/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Security   config.SecurityConfig
	Logger     *logging.Logger
	Controller *camera.Controller
	Users      *auth.UserStore

	// CameraName is shown by GET /camera.
	CameraName string

	// Metrics sources. All optional.
	DB     DBStatsProvider
	MQTT   ConnectionChecker
	Bridge BridgeStatsProvider

	// Telemetry answers trend queries. Nil disables GET /camera/telemetry.
	Telemetry TelemetryQuerier

	Version string
}

// Server is the HTTP API server.
//
// It is created with New, started with Start and stopped with Close.
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	secCfg     config.SecurityConfig
	logger     *logging.Logger
	ctrl       *camera.Controller
	users      *auth.UserStore
	tickets    *auth.TicketStore
	cameraName string
	db         DBStatsProvider
	mqtt       ConnectionChecker
	bridge     BridgeStatsProvider
	telemetry  TelemetryQuerier
	version    string

	hub       *Hub
	server    *http.Server
	startTime time.Time
	cancel    context.CancelFunc
}

// New creates a server and subscribes its WebSocket hub to controller
// changes. The server is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if deps.Controller == nil {
		return nil, errors.New("camera controller is required")
	}
	if deps.Users == nil {
		return nil, errors.New("user store is required")
	}
	if deps.Security.JWT.Secret == "" {
		return nil, errors.New("JWT secret is required")
	}

	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		secCfg:     deps.Security,
		logger:     deps.Logger,
		ctrl:       deps.Controller,
		users:      deps.Users,
		tickets:    auth.NewTicketStore(auth.DefaultTicketTTL),
		cameraName: deps.CameraName,
		db:         deps.DB,
		mqtt:       deps.MQTT,
		bridge:     deps.Bridge,
		telemetry:  deps.Telemetry,
		version:    deps.Version,
		hub:        NewHub(deps.WS, deps.Logger, deps.Controller),
		startTime:  time.Now(),
	}

	s.ctrl.OnChange(func(change camera.Change) {
		s.hub.Broadcast(ChannelPropertyChanged, change)
	})

	return s, nil
}

// Start launches the HTTP listener in a background goroutine. The hub runs
// until ctx is cancelled or Close is called.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close waits up to ten seconds for in-flight requests, then closes the
// listener and every WebSocket client.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return errors.New("api server not started")
	}
	return nil
}
