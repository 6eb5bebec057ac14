package config

import (
	"os"
	"strings"
	"testing"

	gormLogger "gorm.io/gorm/logger"

	"exambuilder/models"
)

// unsetenv clears key for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unsetenv %s: %v", key, err)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "DB_DRIVER", "PORT", "REDIS_CHANNEL", "OTEL_SAMPLER_RATIO")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("DBDriver = %q, want postgres", cfg.DBDriver)
	}
	if cfg.RedisChannel != "exam-events" {
		t.Fatalf("RedisChannel = %q", cfg.RedisChannel)
	}
	if cfg.OtelSamplerRatio != 1 {
		t.Fatalf("OtelSamplerRatio = %v", cfg.OtelSamplerRatio)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", " SQLite ")
	t.Setenv("SQLITE_PATH", "/tmp/exams.db")
	t.Setenv("PORT", "9090")
	t.Setenv("BIND_ADDRESS", "127.0.0.1")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.SQLitePath != "/tmp/exams.db" || cfg.RedisDB != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if got := cfg.ListenAddr(); got != "127.0.0.1:9090" {
		t.Fatalf("ListenAddr = %q", got)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")
		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "DB_DRIVER") {
			t.Fatalf("expected DB_DRIVER error, got %v", err)
		}
	})
	t.Run("redis db", func(t *testing.T) {
		unsetenv(t, "DB_DRIVER")
		t.Setenv("REDIS_DB", "two")
		if _, err := Load(); err == nil || !strings.HasPrefix(err.Error(), "parse env:") {
			t.Fatalf("expected parse env error, got %v", err)
		}
	})
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "u",
		DBPassword: "p",
		DBName:     "exams",
		DBSSLMode:  "require",
	}
	want := "host=db user=u password=p dbname=exams port=5433 sslmode=require TimeZone=UTC"
	if got := cfg.PostgresDSN(); got != want {
		t.Fatalf("PostgresDSN = %q, want %q", got, want)
	}
}

func TestInitRedisDisabled(t *testing.T) {
	client, err := InitRedis(&Config{})
	if err != nil || client != nil {
		t.Fatalf("expected nil client without error, got %v, %v", client, err)
	}
}

func TestMigrateCreatesSchema(t *testing.T) {
	db, err := OpenSQLite("file:config_migrate_test?mode=memory&cache=shared", gormLogger.Silent)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	m := db.Migrator()
	for _, model := range []interface{}{&models.Exam{}, &models.Question{}, &models.MultipleChoiceOption{}, &models.FormulaAnswer{}} {
		if !m.HasTable(model) {
			t.Fatalf("missing table for %T", model)
		}
	}
	if !m.HasIndex(&models.FormulaAnswer{}, "QuestionID") {
		t.Fatalf("missing formula_answers.question_id index")
	}

	var fk int
	if err := db.Raw("PRAGMA foreign_keys").Scan(&fk).Error; err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if fk != 1 {
		t.Fatalf("foreign keys not enforced")
	}
}
