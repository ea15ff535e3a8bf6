package render

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Tubesmith/internal/config"
)

// appConfigHeader — первая строка production.yaml.
const appConfigHeader = "# Generated by tubesmith. Manual edits are overwritten on the next run.\n"

// appConfig — структура production.yaml приложения.
//
// Маршалинг через yaml.v3 берёт на себя квотирование и экранирование
// строковых значений, поэтому описание инстанса с кавычками или
// двоеточиями не ломает файл.
type appConfig struct {
	Webserver   webserverSection   `yaml:"webserver"`
	Secrets     secretsSection     `yaml:"secrets"`
	Database    databaseSection    `yaml:"database"`
	Redis       redisSection       `yaml:"redis"`
	SMTP        *smtpSection       `yaml:"smtp,omitempty"`
	Instance    instanceSection    `yaml:"instance"`
	Transcoding transcodingSection `yaml:"transcoding"`
}

type webserverSection struct {
	HTTPS    bool   `yaml:"https"`
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
}

type secretsSection struct {
	PeerTube string `yaml:"peertube"`
}

type databaseSection struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	SSL      bool   `yaml:"ssl"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type redisSection struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
}

type smtpSection struct {
	Transport       string `yaml:"transport"`
	Hostname        string `yaml:"hostname"`
	Port            int    `yaml:"port"`
	Username        string `yaml:"username,omitempty"`
	Password        string `yaml:"password,omitempty"`
	TLS             bool   `yaml:"tls"`
	DisableStartTLS bool   `yaml:"disable_starttls"`
	FromAddress     string `yaml:"from_address"`
}

type instanceSection struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Languages   []string `yaml:"languages"`
}

type transcodingSection struct {
	Resolutions map[string]bool `yaml:"resolutions"`
}

// renderAppConfig собирает production.yaml из конфигурации.
func renderAppConfig(cfg *config.Config) ([]byte, error) {
	resolutions := make(map[string]bool, len(cfg.Resolutions))
	for _, r := range cfg.Resolutions {
		resolutions[r] = true
	}

	doc := appConfig{
		Webserver: webserverSection{
			HTTPS:    cfg.HTTPS,
			Hostname: cfg.Domain,
			Port:     cfg.WebPort,
		},
		Secrets: secretsSection{PeerTube: cfg.Secret},
		Database: databaseSection{
			Hostname: cfg.DBHost,
			Port:     cfg.DBPort,
			SSL:      cfg.DBSSL,
			Username: cfg.DBUser,
			Password: cfg.DBPass,
			Name:     cfg.DBName,
		},
		Redis: redisSection{Hostname: "127.0.0.1", Port: 6379},
		Instance: instanceSection{
			Name:        cfg.InstanceName,
			Description: cfg.InstanceDesc,
			Languages:   cfg.Languages,
		},
		Transcoding: transcodingSection{Resolutions: resolutions},
	}

	// SMTP-блок присутствует, только когда почта сконфигурирована
	if cfg.SMTPHost != "" {
		doc.SMTP = &smtpSection{
			Transport:       "smtp",
			Hostname:        cfg.SMTPHost,
			Port:            cfg.SMTPPort,
			Username:        cfg.SMTPUser,
			Password:        cfg.SMTPPass,
			TLS:             cfg.SMTPTLS,
			DisableStartTLS: cfg.SMTPDisableStartTLS,
			FromAddress:     cfg.FromAddress,
		}
	}

	body, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal application config: %w", err)
	}
	return append([]byte(appConfigHeader), body...), nil
}
