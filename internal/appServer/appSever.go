// launching the server: storage, credential store, kafka, http
package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/pfpframe/config"
	"github.com/ds124wfegd/pfpframe/internal/database"
	"github.com/ds124wfegd/pfpframe/internal/pkg/compositor"
	"github.com/ds124wfegd/pfpframe/internal/pkg/imagehost"
	"github.com/ds124wfegd/pfpframe/internal/pkg/kafka"
	"github.com/ds124wfegd/pfpframe/internal/pkg/signer"
	"github.com/ds124wfegd/pfpframe/internal/pkg/storage"
	"github.com/ds124wfegd/pfpframe/internal/service"
	"github.com/ds124wfegd/pfpframe/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// closer is run in order on shutdown.
type closer func() error

func newCredentialStore(cfg *config.Config) (database.CredentialRepository, closer, error) {
	if !cfg.Redis.Enabled {
		return database.NewMemoryCredentialRepository(), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	repo, err := database.NewRedisCredentialRepository(ctx, client, cfg.Redis.KeyPrefix, cfg.Redis.TTL)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return repo, client.Close, nil
}

func newProducer(cfg *config.Config) kafka.Producer {
	if !cfg.Kafka.Enabled {
		return kafka.NewMockProducer()
	}
	return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

// NewHandler builds the full dependency graph behind the HTTP API.
func NewHandler(cfg *config.Config) (http.Handler, []closer, error) {
	credentials, closeCredentials, err := newCredentialStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	producer := newProducer(cfg)

	fetchClient := &http.Client{Timeout: cfg.App.FetchTimeout}
	remoteClient := &http.Client{Timeout: cfg.App.RemoteTimeout}

	composites := database.NewCompositeRepository(storage.NewFileStorage(cfg.Storage.Path))
	renderer := compositor.NewRenderer(compositor.NewHTTPLoader(fetchClient, cfg.App.MaxImageBytes, cfg.App.MaxImagePixels))

	signerClient := signer.NewClient(cfg.Signer.BaseURL, remoteClient)
	handshake := signer.NewHandshake(
		signerClient,
		signer.NewHubClient(cfg.Hub.BaseURL, remoteClient),
		credentials,
		signer.HandshakeConfig{
			RequestFID:   cfg.Signer.RequestFID,
			DeadlineTTL:  cfg.Signer.DeadlineTTL,
			PollInterval: cfg.Signer.PollInterval,
			MaxWait:      cfg.Signer.MaxWait,
		},
	)
	authorizer := signer.NewAuthorizer(credentials, handshake)

	compositeService := service.NewCompositeService(composites, renderer)
	publishService := service.NewPublishService(
		composites,
		authorizer,
		imagehost.NewClient(cfg.ImageHost.BaseURL, remoteClient),
		signerClient,
		producer,
		service.PublishConfig{JobTimeout: cfg.App.JobTimeout},
	)

	router := transport.InitRoutes(
		transport.NewCompositeHandler(compositeService),
		transport.NewPublishHandler(publishService, cfg.App.QRSize),
		cfg.Server.RequestTimeout,
	)
	return router, []closer{producer.Close, closeCredentials}, nil
}

func NewServer(cfg *config.Config) {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if cfg.Signer.RequestFID == 0 {
		logrus.Warn("signer.request_fid is not set, signed key requests will be rejected")
	}

	handler, closers, err := NewHandler(cfg)
	if err != nil {
		logrus.Fatalf("error occured while wiring dependencies: %s", err.Error())
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, handler); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":    cfg.Server.Port,
		"version": cfg.Server.AppVersion,
	}).Info("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
	for _, c := range closers {
		if err := c(); err != nil {
			logrus.WithError(err).Warn("error occured while closing resource")
		}
	}
}
