package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"social-go/internal/config"
	"social-go/internal/logging"
	"social-go/internal/mailer"
	"social-go/internal/services"
	"social-go/internal/storage"
)

func usage() {
	fmt.Println("使用方法:")
	fmt.Println("  ./admin purge-unverified      - 删除验证链接已过期的未验证用户")
	fmt.Println("  ./admin show-user <userID>    - 显示用户信息、好友和访问记录")
	fmt.Println("  ./admin stats                 - 显示用户、好友关系和好友请求统计")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(os.Getenv("SOCIAL_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法加载配置: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	// 直接用 lib/pq 打开连接，再交给 gorm
	sqlDB, err := sql.Open("postgres", storage.PostgresDSN(cfg.Database))
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create GORM instance")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "purge-unverified":
		purgeUnverified(ctx, db, cfg, log)

	case "show-user":
		if len(os.Args) < 3 {
			log.Fatal("需要指定用户ID")
		}
		userID, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatalf("无效的用户ID: %v", err)
		}
		showUser(ctx, db, cfg, log, uint(userID))

	case "stats":
		showStats(ctx, sqlDB, log)

	default:
		usage()
		log.Fatalf("未知命令: %s", os.Args[1])
	}
}

func purgeUnverified(ctx context.Context, db *gorm.DB, cfg config.Config, log *logrus.Logger) {
	authService := services.NewAuthService(db, mailer.NewLogSender(log), nil, cfg, log)
	n, err := authService.PurgeExpiredRegistrations(ctx)
	if err != nil {
		log.WithError(err).Fatalf("清理失败，已删除 %d 个", n)
	}
	fmt.Printf("已删除 %d 个过期的未验证注册\n", n)
}

func showUser(ctx context.Context, db *gorm.DB, cfg config.Config, log *logrus.Logger, userID uint) {
	userService := services.NewUserService(
		storage.NewGormUserRepository(db),
		storage.NewGormFriendshipRepository(db),
		storage.NewGormProfileViewRepository(db),
		cfg.Auth,
		log,
	)
	user, err := userService.GetUser(ctx, userID)
	if err != nil {
		log.Fatalf("获取用户失败: %v", err)
	}

	fmt.Printf("用户 %d 信息:\n", user.ID)
	fmt.Println("--------------------------------------")
	fmt.Printf("姓名: %s\n", user.DisplayName())
	fmt.Printf("邮箱: %s (已验证: %v)\n", user.Email, user.Verified)
	fmt.Printf("所在地: %s\n", user.Location)
	fmt.Printf("职业: %s\n", user.Profession)
	fmt.Printf("注册时间: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("好友 (%d 人):\n", len(user.Friends))
	for i, f := range user.Friends {
		fmt.Printf("  #%d ID: %d, 姓名: %s %s\n", i+1, f.ID, f.FirstName, f.LastName)
	}
	fmt.Printf("资料访问次数: %d\n", len(user.Views))
}

func showStats(ctx context.Context, sqlDB *sql.DB, log *logrus.Logger) {
	queries := []struct {
		label string
		query string
	}{
		{"用户总数", `SELECT COUNT(*) FROM users`},
		{"未验证用户", `SELECT COUNT(*) FROM users WHERE verified = false`},
		{"好友关系", `SELECT COUNT(*) FROM friendships`},
		{"待处理好友请求", `SELECT COUNT(*) FROM friend_requests WHERE request_status = 'Pending'`},
		{"资料访问", `SELECT COUNT(*) FROM profile_views`},
	}
	for _, q := range queries {
		var n int64
		if err := sqlDB.QueryRowContext(ctx, q.query).Scan(&n); err != nil {
			log.WithError(err).WithField("query", q.label).Error("统计失败")
			continue
		}
		fmt.Printf("%-12s %d\n", q.label+":", n)
	}
}
