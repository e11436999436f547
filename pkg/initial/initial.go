// Package initial opens the backing services the server depends on.
package initial

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sowp-lms/pkg/config"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/offline"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/search"
	"sowp-lms/pkg/storage"
)

func DSN(cfg config.Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
}

func ConDB(cfg config.Config, log *logger.Logger) (*gorm.DB, error) {
	log.Info("connecting to postgres", "host", cfg.DBHost, "db", cfg.DBName, "port", cfg.DBPort)
	level := gormlogger.Warn
	if cfg.Mode == "prod" {
		level = gormlogger.Error
	}
	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

func SyncDB(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ConLocal opens the SQLite file behind the offline mirror.
func ConLocal(cfg config.Config) (*gorm.DB, error) {
	return offline.Open(cfg.LocalDBPath)
}

func InitRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	return rdb, nil
}

func InitES(cfg config.Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESAddress},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: %w", err)
	}
	return client, nil
}

func InitMinio(ctx context.Context, cfg config.Config, log *logger.Logger) (*storage.MinioPhotos, error) {
	client, err := storage.NewMinioClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey)
	if err != nil {
		return nil, err
	}
	photos := storage.NewMinioPhotos(client, cfg.MinioBucket, log)
	if err := photos.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return photos, nil
}

// Reindex pushes every course and topic into the search index. Failures on
// single documents are logged and skipped.
func Reindex(ctx context.Context, r *repos.Repos, idx search.Indexer, log *logger.Logger) error {
	courses, err := r.Courses.List(ctx, nil)
	if err != nil {
		return err
	}
	var indexed int
	for _, c := range courses {
		if err := idx.IndexCourse(ctx, c); err != nil {
			log.Warn("index course", "course", c.ID, "error", err)
			continue
		}
		indexed++
		topics, err := r.Topics.ListByCourse(ctx, nil, c.ID)
		if err != nil {
			return err
		}
		for _, t := range topics {
			if err := idx.IndexTopic(ctx, t); err != nil {
				log.Warn("index topic", "course", c.ID, "order", t.OrderIndex, "error", err)
			}
		}
	}
	log.Info("search index rebuilt", "courses", indexed, "of", len(courses))
	return nil
}
