// @title           iPatrol HTTP Service API
// @version         1.0
// @description     A security guard patrol management system with realtime location tracking and emergency alerting
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.yourcompany.com/support
// @contact.email  support@yourcompany.com

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer: ` prefix
package main

import (
	"context"
	"fmt"
	"ipatrol-http-service/internal/app/routes"
	"ipatrol-http-service/internal/domain/models"
	"ipatrol-http-service/internal/domain/services"
	"ipatrol-http-service/internal/domain/services/container"
	"ipatrol-http-service/internal/infrastructure/config"
	"ipatrol-http-service/internal/infrastructure/database"
	Logger "ipatrol-http-service/pkg/logger"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// 设置最大处理器数量，提高并发性能
	runtime.GOMAXPROCS(runtime.NumCPU())

	// 初始化日志配置
	if err := Logger.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}

	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		Logger.Warning("无法加载.env文件: %v", err)
		// 即使加载失败也继续执行，可能环境变量已经通过其他方式设置
	} else {
		Logger.Info("成功加载.env文件")
	}

	// 获取配置
	cfg := config.GetConfig()

	// 创建优化的数据库连接池
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		log.Fatalf("无法创建数据库连接池: %v", err)
	}
	db := pool.GetDB()

	// 根据配置执行不同的数据库操作
	if cfg.DBMigrationMode == "drop" {
		// 删除并重建表
		log.Println("警告: 在drop模式下运行，将删除并重建所有表")
		err = dropAndRecreateTables(db)
		if err != nil {
			log.Fatalf("删除并重建表失败: %v", err)
		}
	} else if cfg.DBMigrationMode == "alter" {
		// 执行高级迁移，先清理历史外键约束再同步表结构
		log.Println("在alter模式下运行，将修改表结构以匹配模型")
		err = advancedMigrate(db)
		if err != nil {
			log.Fatalf("高级迁移失败: %v", err)
		}
	} else {
		// 默认AutoMigrate，只会添加新列和新表，不会删除或修改列
		log.Println("在标准模式下运行，将只添加新列和新表")
		if err := autoMigrate(db); err != nil {
			log.Fatalf("自动迁移失败: %v", err)
		}
	}

	// 确保系统中有超级管理员账户
	ensureAdminExists(db, cfg)

	// 初始化Redis客户端，连接失败时降级为直接读库
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 初始化路由和服务容器
	r, serviceContainer := routes.SetupRouter(db, cfg, redisClient)

	// 启动实时位置快照推送
	serviceContainer.GetWebSocketService().StartSnapshotTicker()

	// 启动定位记录保留期清理任务
	purgeStop := startLocationPurge(serviceContainer)

	// 打印系统信息
	printSystemInfo(pool)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		// 注意监听所有接口(0.0.0.0)而不是只监听localhost
		Logger.Info("服务器启动在: http://0.0.0.0:%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			Logger.Error("启动服务器失败: %v", err)
			os.Exit(1)
		}
	}()

	// 等待退出信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	Logger.Info("收到退出信号，开始关闭服务")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Logger.Error("关闭HTTP服务失败: %v", err)
	}

	// 停止快照推送和WebSocket连接
	serviceContainer.GetWebSocketService().Stop()
	close(purgeStop)

	// 断开MQTT桥接
	if bridge := serviceContainer.GetMQTTBridgeService(); bridge != nil {
		bridge.Disconnect()
	}

	if err := redisClient.Close(); err != nil {
		Logger.Warning("关闭Redis连接失败: %v", err)
	}
	if err := pool.Close(); err != nil {
		Logger.Warning("关闭数据库连接池失败: %v", err)
	}
	Logger.Info("服务已退出")
}

// startLocationPurge 启动每日一次的定位记录清理任务，返回停止通道
func startLocationPurge(sc *container.ServiceContainer) chan struct{} {
	stop := make(chan struct{})
	trackingService := sc.GetService("tracking").(services.InterfaceTrackingService)

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				deleted, err := trackingService.PurgeOldRecords()
				if err != nil {
					Logger.Warning("清理过期定位记录失败: %v", err)
					continue
				}
				if deleted > 0 {
					Logger.Info("已清理%d条过期定位记录", deleted)
				}
			case <-stop:
				return
			}
		}
	}()
	return stop
}

// autoMigrate 自动迁移所有模型（只添加新列和新表）
func autoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Guard{},
		&models.Client{},
		&models.Site{},
		&models.Shift{},
		&models.LocationRecord{},
		&models.GeofenceEvent{},
		&models.EmergencyAlert{},
		&models.Notification{},
		&models.SystemLog{},
	)

	if err != nil {
		return err
	}

	fmt.Println("Database migration completed")
	return nil
}

// advancedMigrate 删除历史外键约束后再执行AutoMigrate，
// 用于模型字段被移除或改名后的结构同步
func advancedMigrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB connection: %w", err)
	}

	// 查询public模式下的所有外键约束
	rows, err := sqlDB.Query(`
		SELECT con.conname, cl.relname
		FROM pg_constraint con
		JOIN pg_class cl ON cl.oid = con.conrelid
		JOIN pg_namespace ns ON ns.oid = cl.relnamespace
		WHERE con.contype = 'f' AND ns.nspname = 'public'
	`)
	if err != nil {
		log.Printf("查询外键约束失败: %v", err)
	} else {
		defer rows.Close()

		for rows.Next() {
			var constraintName, tableName string
			if err := rows.Scan(&constraintName, &tableName); err != nil {
				log.Printf("扫描外键约束信息失败: %v", err)
				continue
			}

			log.Printf("删除外键约束: %s 从表 %s", constraintName, tableName)
			_, err = sqlDB.Exec(fmt.Sprintf(`ALTER TABLE "%s" DROP CONSTRAINT "%s"`,
				tableName, constraintName))
			if err != nil {
				log.Printf("删除外键约束失败: %v", err)
			}
		}
	}

	// 执行标准AutoMigrate以添加新列和新表
	return autoMigrate(db)
}

// dropAndRecreateTables 删除并重建所有表
func dropAndRecreateTables(db *gorm.DB) error {
	// 警告: 这将删除所有数据
	log.Println("警告: 正在删除并重建所有表，所有数据将丢失")

	// 获取public模式下的所有表名
	var tables []string
	err := db.Raw(`
		SELECT tablename FROM pg_tables WHERE schemaname = 'public'
	`).Scan(&tables).Error
	if err != nil {
		return fmt.Errorf("failed to get table names: %w", err)
	}

	// 级联删除所有表
	for _, table := range tables {
		log.Printf("正在删除表: %s", table)
		err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS "%s" CASCADE`, table)).Error
		if err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	// 重新创建所有表
	log.Println("正在重新创建所有表")
	return autoMigrate(db)
}

// ensureAdminExists 确保系统中至少有一个超级管理员账户
func ensureAdminExists(db *gorm.DB, cfg *config.Config) {
	var count int64
	db.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&count)

	// 如果没有超级管理员，则创建一个默认账户
	if count == 0 {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.DefaultAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("无法为默认管理员哈希密码: %v", err)
			return
		}

		admin := models.User{
			Phone:    cfg.DefaultAdminPhone,
			Username: "admin",
			Password: string(hashedPassword),
			Role:     models.RoleSuperAdmin,
			Status:   models.UserStatusActive,
		}

		result := db.Create(&admin)
		if result.Error != nil {
			log.Printf("无法创建默认管理员: %v", result.Error)
			return
		}

		log.Printf("已创建默认超级管理员账户 (手机号: %s)", cfg.DefaultAdminPhone)
	}
}

// printSystemInfo 打印运行环境和连接池信息
func printSystemInfo(pool *database.ConnectionPool) {
	Logger.Info("Go版本: %s, CPU核数: %d", runtime.Version(), runtime.NumCPU())
	if stats, err := pool.Stats(); err == nil {
		Logger.Info("数据库连接池: %v", stats)
	}
}
