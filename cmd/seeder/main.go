package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"social-go/internal/config"
	"social-go/internal/logging"
	"social-go/internal/seed"
	"social-go/internal/services"
	"social-go/internal/storage"
)

// seeder 为开发环境生成假数据，写入与 API 服务器相同的数据库。
func main() {
	configPath := flag.String("config", "", "path to config file")
	planPath := flag.String("plan", "", "path to a YAML seed plan (defaults are used when empty)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法加载配置: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	plan, err := seed.LoadPlan(*planPath)
	if err != nil {
		log.WithError(err).Fatal("无法加载种子计划")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := storage.InitDB(cfg.Database, log, false)
	if err != nil {
		log.WithError(err).Fatal("无法初始化数据库")
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		log.WithError(err).Fatal("数据库表迁移失败")
	}

	mongoStore, err := storage.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		log.WithError(err).Fatal("无法连接到 MongoDB")
	}
	defer mongoStore.Disconnect(context.Background())
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Warn("创建 MongoDB 索引失败")
	}

	userRepo := storage.NewGormUserRepository(db)
	friendshipRepo := storage.NewGormFriendshipRepository(db)
	postRepo := storage.NewMongoPostRepository(mongoStore)
	commentRepo := storage.NewMongoCommentRepository(mongoStore)

	seeder := seed.NewSeeder(
		userRepo,
		friendshipRepo,
		services.NewPostService(postRepo, commentRepo, userRepo, friendshipRepo, log),
		services.NewCommentService(postRepo, commentRepo, userRepo, log),
		log,
	)
	res, err := seeder.Run(ctx, plan)
	if err != nil {
		log.WithError(err).Fatal("生成数据失败")
	}
	fmt.Printf("users=%d friendships=%d posts=%d comments=%d replies=%d likes=%d\n",
		res.Users, res.Friendships, res.Posts, res.Comments, res.Replies, res.Likes)
}
