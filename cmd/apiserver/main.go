package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"

	"social-go/internal/auth"
	"social-go/internal/config"
	"social-go/internal/handlers/apiserver"
	appKafka "social-go/internal/kafka"
	"social-go/internal/logging"
	"social-go/internal/mailer"
	"social-go/internal/metrics"
	"social-go/internal/middleware"
	appRedis "social-go/internal/redis"
	"social-go/internal/services"
	"social-go/internal/storage"
	"social-go/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法加载配置: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	log.WithFields(logrus.Fields{"app": cfg.AppName, "version": cfg.AppVersion}).Info("API 服务器配置加载成功")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 链路追踪
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.WithError(err).Fatal("无法初始化链路追踪")
	}

	// 3. 关系数据库
	db, err := storage.InitDB(cfg.Database, log, cfg.Telemetry.Enabled)
	if err != nil {
		log.WithError(err).Fatal("无法初始化数据库")
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		log.WithError(err).Fatal("数据库表迁移失败")
	}
	log.Info("数据库连接成功，表迁移完成")

	// 4. MongoDB
	mongoStore, err := storage.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		log.WithError(err).Fatal("无法连接到 MongoDB")
	}
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Warn("创建 MongoDB 索引失败")
	}
	log.WithField("database", cfg.Mongo.Database).Info("成功连接到 MongoDB")

	// 5. Token 黑名单：Redis 不可用时退回到进程内黑名单
	var blacklist auth.TokenBlacklist
	redisClient, err := appRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("无法连接到 Redis，使用进程内 Token 黑名单")
		blacklist = auth.NewMemoryBlacklist()
	} else {
		defer redisClient.Close()
		blacklist = appRedis.NewRedisTokenBlacklist(redisClient)
		log.Info("成功连接到 Redis")
	}

	// 6. 邮件：kafka 传输时邮件先写入发件箱 topic
	var producer appKafka.MessageProducer
	if cfg.Mail.Transport == "kafka" {
		producer, err = appKafka.NewConfluentKafkaProducer(cfg.Kafka, log)
		if err != nil {
			log.WithError(err).Fatal("无法创建 Kafka 生产者")
		}
		defer producer.Close()
	}
	mail, err := mailer.New(cfg, producer, log)
	if err != nil {
		log.WithError(err).Fatal("无法初始化邮件发送")
	}

	// 7. 文件存储
	storageService, err := storage.NewStorageService(ctx, cfg.Storage)
	if err != nil {
		log.WithError(err).Fatal("无法初始化存储服务")
	}

	// 8. Repositories 与 Services
	userRepo := storage.NewGormUserRepository(db)
	friendReqRepo := storage.NewGormFriendRequestRepository(db)
	friendshipRepo := storage.NewGormFriendshipRepository(db)
	viewRepo := storage.NewGormProfileViewRepository(db)
	postRepo := storage.NewMongoPostRepository(mongoStore)
	commentRepo := storage.NewMongoCommentRepository(mongoStore)

	authService := services.NewAuthService(db, mail, blacklist, cfg, log)
	userService := services.NewUserService(userRepo, friendshipRepo, viewRepo, cfg.Auth, log)
	friendService := services.NewFriendRequestService(db, userRepo, friendReqRepo, friendshipRepo, log)
	postService := services.NewPostService(postRepo, commentRepo, userRepo, friendshipRepo, log)
	commentService := services.NewCommentService(postRepo, commentRepo, userRepo, log)

	// 9. 路由
	m := metrics.NewMetrics("social")
	latency := middleware.NewLatencyRecorder()

	r := mux.NewRouter()
	r.Use(middleware.RequestTimer(log, latency), middleware.Metrics(m), middleware.Timeout(cfg.APIServer.RequestTimeout))

	apiserver.RegisterRoutes(r, apiserver.Handlers{
		Auth:   apiserver.NewAuthHandler(authService, m, log),
		User:   apiserver.NewUserHandler(userService, log),
		Friend: apiserver.NewFriendRequestHandler(friendService, m, log),
		Post:   apiserver.NewPostHandler(postService, commentService, m, log),
		Upload: apiserver.NewUploadHandler(storageService, cfg.Storage, log),
		AuthMW: middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, blacklist),
		Extra: func(r *mux.Router) {
			r.Handle("/healthz", healthHandler(db, mongoStore)).Methods(http.MethodGet)
			r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
			r.Handle("/debug/latency", latency.Handler()).Methods(http.MethodGet)
		},
	})

	// 本地存储时直接提供上传文件
	if cfg.Storage.Type == "local" {
		staticPath := strings.TrimSuffix(cfg.Storage.BaseURL, "/") + "/"
		r.PathPrefix(staticPath).Handler(http.StripPrefix(staticPath, http.FileServer(http.Dir(cfg.Storage.LocalPath))))
		log.WithFields(logrus.Fields{"path": staticPath, "dir": cfg.Storage.LocalPath}).Info("提供上传文件")
	}

	// 10. 启动 HTTP 服务器并实现优雅关闭
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      wrapHandler(r, cfg, log),
		ReadTimeout:  cfg.APIServer.ReadTimeout,
		WriteTimeout: cfg.APIServer.WriteTimeout,
		IdleTimeout:  cfg.APIServer.IdleTimeout,
	}

	go func() {
		log.WithField("addr", serverAddr).Info("API 服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("API 服务器启动失败")
		}
	}()

	<-ctx.Done()
	log.Info("收到关闭信号，正在关闭 API 服务器...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("API 服务器强制关闭")
	}
	if err := mongoStore.Disconnect(ctxShutdown); err != nil {
		log.WithError(err).Warn("断开 MongoDB 失败")
	}
	if err := shutdownTracing(ctxShutdown); err != nil {
		log.WithError(err).Warn("关闭链路追踪失败")
	}
	log.Info("API 服务器已成功关闭")
}

// wrapHandler 依次加上请求体大小限制、CORS、panic 恢复和链路追踪。
func wrapHandler(r http.Handler, cfg config.Config, log *logrus.Logger) http.Handler {
	// 上传请求需要比 JSON 请求更大的上限
	bodyLimit := cfg.APIServer.MaxBodyBytes
	if upload := (cfg.Storage.MaxFileSizeMB + 1) << 20; upload > bodyLimit {
		bodyLimit = upload
	}
	h := http.MaxBytesHandler(r, bodyLimit)

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	h = handlers.CORS(corsOptions...)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(log), handlers.PrintRecoveryStack(true))(h)

	if cfg.Telemetry.Enabled {
		h = otelhttp.NewHandler(h, cfg.Telemetry.ServiceName)
	}
	return h
}

func healthHandler(db *gorm.DB, mongoStore *storage.MongoStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"postgres": "ok", "mongo": "ok"}
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["postgres"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		if err := mongoStore.Client.Ping(ctx, nil); err != nil {
			status["mongo"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})
}
