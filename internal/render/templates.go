package render

import (
	"bytes"
	"fmt"
	"regexp"
	"text/template"

	"github.com/shaiso/Tubesmith/internal/config"
)

// Допустимые символы для значений, подставляемых в nginx-конфиг и
// systemd unit. text/template не знает синтаксис этих файлов, поэтому
// значения проверяются до подстановки.
var (
	serverNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	userNameRe   = regexp.MustCompile(`^[a-z_][a-z0-9_-]*$`)
	pathRe       = regexp.MustCompile(`^[A-Za-z0-9._/-]+$`)
)

var nginxTemplate = template.Must(template.New("nginx").Parse(`server {
  server_name {{.ServerName}};
  listen 80;
  listen [::]:80;

  client_max_body_size 8G;

  location / {
    proxy_pass http://127.0.0.1:{{.WebPort}};
    proxy_http_version 1.1;
    proxy_set_header Host $host;
    proxy_set_header X-Real-IP $remote_addr;
    proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
    proxy_set_header X-Forwarded-Proto $scheme;
  }

  location ~ ^/(socket\.io|tracker/socket) {
    proxy_pass http://127.0.0.1:{{.WebPort}};
    proxy_http_version 1.1;
    proxy_set_header Upgrade $http_upgrade;
    proxy_set_header Connection "upgrade";
    proxy_set_header Host $host;
    proxy_set_header X-Real-IP $remote_addr;
  }
}
`))

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=PeerTube
After=postgresql.service redis-server.service

[Service]
User={{.User}}
WorkingDirectory={{.Dir}}
Environment=NODE_ENV=production
ExecStart=/usr/bin/node dist/server
Restart=always
RestartSec=10

[Install]
WantedBy=multi-user.target
`))

// renderNginxSite собирает конфиг сайта nginx.
func renderNginxSite(cfg *config.Config) ([]byte, error) {
	if !serverNameRe.MatchString(cfg.Domain) {
		return nil, fmt.Errorf("%w: server_name %q", ErrUnsafeValue, cfg.Domain)
	}

	var buf bytes.Buffer
	data := struct {
		ServerName string
		WebPort    int
	}{ServerName: cfg.Domain, WebPort: cfg.WebPort}
	if err := nginxTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render nginx site: %w", err)
	}
	return buf.Bytes(), nil
}

// renderUnit собирает systemd unit сервиса.
func renderUnit(cfg *config.Config) ([]byte, error) {
	if !userNameRe.MatchString(cfg.User) {
		return nil, fmt.Errorf("%w: service user %q", ErrUnsafeValue, cfg.User)
	}
	if !pathRe.MatchString(config.AppDir) {
		return nil, fmt.Errorf("%w: working directory %q", ErrUnsafeValue, config.AppDir)
	}

	var buf bytes.Buffer
	data := struct {
		User string
		Dir  string
	}{User: cfg.User, Dir: config.AppDir}
	if err := unitTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render systemd unit: %w", err)
	}
	return buf.Bytes(), nil
}
