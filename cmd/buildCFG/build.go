package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type SMTPConfig struct {
	Host string
	Port int
	From string
	Pass string
}

type PortalConfig struct {
	SessionTTL time.Duration
	StudentKey string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("db.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("db.master_dsn is required")
	}
	slaveDSNs := cfg.GetStringSlice("db.slave_dsns")

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("db.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("db.max_idle_conns"),
		ConnMaxLifetime: cfg.GetDuration("db.conn_max_lifetime"),
	}
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 5
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("database configuration loaded")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return rc, fmt.Errorf("rabbit.url is required")
	}
	if rc.Exchange == "" {
		rc.Exchange = "sales.receipts"
	}
	if rc.Queue == "" {
		rc.Queue = "sales.receipts.mail"
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbitmq configuration loaded")
	return rc, nil
}

func BuildSMTPConfig(cfg *config.Config, log *zerolog.Logger) SMTPConfig {
	sc := SMTPConfig{
		Host: cfg.GetString("smtp.host"),
		Port: cfg.GetInt("smtp.port"),
		From: cfg.GetString("smtp.from"),
		Pass: cfg.GetString("smtp.pass"),
	}
	if sc.Port == 0 {
		sc.Port = 587
	}
	if sc.Host == "" {
		log.Warn().Msg("smtp.host not set, receipt mail disabled")
	}
	return sc
}

func BuildPortalConfig(cfg *config.Config, log *zerolog.Logger) PortalConfig {
	pc := PortalConfig{
		SessionTTL: cfg.GetDuration("portal.session_ttl"),
		StudentKey: cfg.GetString("portal.student_key"),
	}
	if pc.SessionTTL == 0 {
		pc.SessionTTL = 12 * time.Hour
	}
	if pc.StudentKey == "" {
		pc.StudentKey = "phone"
	}
	log.Info().Str("student_key", pc.StudentKey).Dur("session_ttl", pc.SessionTTL).Msg("portal configuration loaded")
	return pc
}
