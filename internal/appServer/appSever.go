package appServer

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/emergency-ops/config"
	"github.com/ds124wfegd/emergency-ops/internal/alert"
	"github.com/ds124wfegd/emergency-ops/internal/broadcast"
	repository "github.com/ds124wfegd/emergency-ops/internal/database/postgres"
	"github.com/ds124wfegd/emergency-ops/internal/detection"
	"github.com/ds124wfegd/emergency-ops/internal/rabbitMQ"
	"github.com/ds124wfegd/emergency-ops/internal/service"
	"github.com/ds124wfegd/emergency-ops/internal/transport"
	"github.com/ds124wfegd/emergency-ops/internal/worker"
	"github.com/ds124wfegd/emergency-ops/pkg/email"
	"github.com/ds124wfegd/emergency-ops/pkg/postgres"
	"github.com/ds124wfegd/emergency-ops/pkg/redis"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	// Database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	repos := repository.NewRepository(db)

	// Realtime fabric
	redisClient := redis.NewRedisClient(&cfg.Redis)
	defer redisClient.Close()
	broadcaster := broadcast.NewBroadcaster(broadcast.NewRedisPublisher(redisClient))

	// Email transport
	var sender email.Sender
	if cfg.Email.Enabled && cfg.Email.APIKey != "" {
		sender = email.NewResendSender(cfg.Email.APIKey, cfg.Email.From)
		logrus.Info("Email sender initialized")
	} else {
		sender = email.NewNoopSender()
		logrus.Warn("Email sending disabled, using noop sender")
	}

	// Delayed dispatch queue
	queue, err := rabbitMQ.NewRabbitMQ(rabbitMQ.Config{
		URL:       rabbitURL(&cfg.Rabbit),
		QueueName: cfg.Rabbit.QueueName,
	})
	if err != nil {
		logrus.Fatalf("Failed to initialize RabbitMQ: %v", err)
	}
	defer queue.Close()

	// Services
	services := service.NewService(repos, broadcaster, sender, queue)

	// Detection alerting
	gate := alert.NewCooldownGate(
		cfg.Alerting.ConfidenceThreshold,
		cfg.Alerting.CooldownWindow,
		cfg.Alerting.CooldownCapacity,
	)
	pipeline := alert.NewPipeline(gate, services.Notifications, broadcaster)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scheduled notification worker
	scheduler := worker.NewScheduler(services.Notifications, queue, cfg.Scheduler.SweepInterval)
	go func() {
		if err := scheduler.Run(ctx); err != nil {
			logrus.Errorf("Scheduler stopped: %v", err)
		}
	}()

	// Kafka detection intake
	if cfg.Kafka.Enabled {
		consumer := detection.NewConsumer(detection.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		}, pipeline)
		defer consumer.Close()
		go consumer.Run(ctx)
		logrus.Info("Kafka detection consumer started")
	}

	// Handlers
	notificationHandler := transport.NewNotificationHandler(services.Notifications)
	messageHandler := transport.NewMessageHandler(services.Messages)
	detectionHandler := transport.NewDetectionHandler(pipeline)
	alertHandler := transport.NewAlertHandler(gate)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		routes := transport.InitRoutes(notificationHandler, messageHandler, detectionHandler, alertHandler, queue)
		if err := srv.Run(cfg, routes); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}

func rabbitURL(cfg *config.RabbitConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.Username, cfg.Password, cfg.Host, cfg.Port)
}
