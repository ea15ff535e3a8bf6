package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Фиксированные пути и параметры установки.
const (
	// RepoURL — upstream-репозиторий PeerTube.
	RepoURL = "https://github.com/Chocobozzz/PeerTube.git"

	// DefaultRevision — известная стабильная ревизия по умолчанию.
	DefaultRevision = "production"

	// HomeDir — домашняя директория сервисного пользователя.
	HomeDir = "/var/www"

	// AppDir — директория с исходниками и сборкой PeerTube.
	AppDir = "/var/www/peertube"

	// AppConfigPath — итоговый конфиг приложения.
	AppConfigPath = "/var/www/peertube/config/production.yaml"

	// NginxSitePath — конфиг сайта nginx.
	NginxSitePath = "/etc/nginx/sites-available/peertube"

	// NginxLinkPath — симлинк активного сайта nginx.
	NginxLinkPath = "/etc/nginx/sites-enabled/peertube"

	// UnitPath — systemd unit сервиса.
	UnitPath = "/etc/systemd/system/peertube.service"

	// UnitName — имя systemd unit.
	UnitName = "peertube"

	// SecretPath — персистентный секрет приложения.
	SecretPath = "/etc/tubesmith/secret"

	// ReportDir — директория отчётов о прогонах установщика.
	ReportDir = "/var/log/tubesmith"

	// MetricsPath — метрики последнего прогона (textfile collector).
	MetricsPath = "/var/lib/tubesmith/metrics.prom"

	// SwapPath — swap-файл, создаваемый MemGuard.
	SwapPath = "/swapfile"
)

// Значения параметров по умолчанию.
const (
	defaultWebPort      = 9000
	defaultDBHost       = "127.0.0.1"
	defaultDBPort       = 5432
	defaultDBUser       = "peertube"
	defaultDBName       = "peertube"
	defaultSMTPPort     = 587
	defaultInstanceName = "MyTube"
	defaultInstanceDesc = "Public PeerTube instance"
	defaultLanguages    = "en,de,ar"
	defaultResolutions  = "720p,1080p"
	defaultUser         = "peertube"
)

// Config — валидированная конфигурация установки.
//
// Создаётся один раз через Load и далее не изменяется: все шаги
// установщика читают одни и те же значения, а повторный рендеринг
// с тем же Config даёт байт-в-байт одинаковые файлы.
type Config struct {
	// Domain — доменное имя или IPv4-адрес инстанса.
	Domain string

	// HTTPS — запрошен ли выпуск TLS-сертификата.
	HTTPS bool

	// WebPort — порт приложения за reverse-proxy.
	WebPort int

	// DBHost, DBPort, DBUser, DBPass, DBName, DBSSL — подключение
	// приложения к PostgreSQL.
	DBHost string
	DBPort int
	DBUser string
	DBPass string
	DBName string
	DBSSL  bool

	// SMTPHost и связанные поля — исходящая почта. Пустой SMTPHost
	// означает, что SMTP-блок в конфиге приложения опускается.
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPass            string
	SMTPTLS             bool
	SMTPDisableStartTLS bool

	// FromAddress — адрес отправителя писем инстанса.
	FromAddress string

	// InstanceName, InstanceDesc — название и описание инстанса.
	InstanceName string
	InstanceDesc string

	// Languages — коды локалей в порядке, заданном оператором.
	Languages []string

	// Resolutions — целевые разрешения транскодинга.
	Resolutions []string

	// Revision — закреплённая ревизия upstream (ветка, тег или коммит).
	Revision string

	// User — системный пользователь сервиса.
	User string

	// Secret — секрет приложения (hex). Берётся из PT_SECRET или
	// SecretStore, чтобы рендеринг оставался детерминированным.
	Secret string
}

var (
	ipv4Re   = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)
	domainRe = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9.-]*[A-Za-z0-9])?$`)
	secretRe = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// knownResolutions — метки разрешений, которые понимает транскодер.
var knownResolutions = map[string]bool{
	"144p": true, "240p": true, "360p": true, "480p": true,
	"720p": true, "1080p": true, "1440p": true, "2160p": true,
}

// Load создаёт Config из параметров, применяя значения по умолчанию
// и валидацию. store используется для разрешения секрета приложения,
// когда PT_SECRET не задан; store опрашивается только после успешной
// валидации остальных параметров.
func Load(params map[string]string, store SecretStore) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := params[key]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		Domain:       get("PT_DOMAIN", ""),
		DBHost:       get("PT_DB_HOST", defaultDBHost),
		DBUser:       get("PT_DB_USER", defaultDBUser),
		DBPass:       get("PT_DB_PASS", ""),
		DBName:       get("PT_DB_NAME", defaultDBName),
		SMTPHost:     get("PT_SMTP_HOST", ""),
		SMTPUser:     get("PT_SMTP_USER", ""),
		SMTPPass:     get("PT_SMTP_PASS", ""),
		FromAddress:  get("PT_FROM_ADDRESS", ""),
		InstanceName: get("PT_INSTANCE_NAME", defaultInstanceName),
		InstanceDesc: get("PT_INSTANCE_DESC", defaultInstanceDesc),
		Revision:     get("PT_REVISION", DefaultRevision),
		User:         get("PT_USER", defaultUser),
		Secret:       get("PT_SECRET", ""),
	}

	// Обязательные параметры
	if cfg.DBPass == "" {
		return nil, missing("PT_DB_PASS")
	}
	if cfg.Domain == "" {
		return nil, missing("PT_DOMAIN")
	}
	if !ipv4Re.MatchString(cfg.Domain) && !domainRe.MatchString(cfg.Domain) {
		return nil, invalid("PT_DOMAIN", "not a valid domain name or ipv4 address")
	}

	var err error
	if cfg.HTTPS, err = parseBool(params, "PT_HTTPS", false); err != nil {
		return nil, err
	}
	if cfg.DBSSL, err = parseBool(params, "PT_DB_SSL", false); err != nil {
		return nil, err
	}
	if cfg.SMTPTLS, err = parseBool(params, "PT_SMTP_TLS", true); err != nil {
		return nil, err
	}
	if cfg.SMTPDisableStartTLS, err = parseBool(params, "PT_SMTP_DISABLE_STARTTLS", false); err != nil {
		return nil, err
	}

	if cfg.WebPort, err = parsePort(params, "PT_WEB_PORT", defaultWebPort); err != nil {
		return nil, err
	}
	if cfg.DBPort, err = parsePort(params, "PT_DB_PORT", defaultDBPort); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = parsePort(params, "PT_SMTP_PORT", defaultSMTPPort); err != nil {
		return nil, err
	}

	// HTTPS на голый IP невозможен: certbot не выпустит сертификат.
	// Политика — жёсткий отказ до любых изменений хоста.
	if cfg.HTTPS && ipv4Re.MatchString(cfg.Domain) {
		return nil, &ValidationError{Key: "PT_HTTPS", Message: "https requested for an ip address", Err: ErrHTTPSWithoutDomain}
	}

	if cfg.Languages, err = parseList(params, "PT_LANGUAGES", defaultLanguages, nil); err != nil {
		return nil, err
	}
	if cfg.Resolutions, err = parseList(params, "PT_RESOLUTIONS", defaultResolutions, knownResolutions); err != nil {
		return nil, err
	}

	if cfg.FromAddress == "" {
		cfg.FromAddress = fmt.Sprintf("PeerTube <no-reply@%s>", cfg.Domain)
	}

	if cfg.Secret != "" && !secretRe.MatchString(cfg.Secret) {
		return nil, invalid("PT_SECRET", "must be 64 hex characters")
	}
	if cfg.Secret == "" {
		if cfg.Secret, err = resolveSecret(store); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// IsIPDomain сообщает, задан ли в качестве домена голый IPv4-адрес.
func (c *Config) IsIPDomain() bool {
	return ipv4Re.MatchString(c.Domain)
}

func parseBool(params map[string]string, key string, def bool) (bool, error) {
	v, ok := params[key]
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, invalid(key, fmt.Sprintf("%q is not a boolean", v))
}

func parsePort(params map[string]string, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	port, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || port < 1 || port > 65535 {
		return 0, invalid(key, fmt.Sprintf("%q is not a valid port", v))
	}
	return port, nil
}

// parseList разбирает comma-separated список, сохраняя порядок и
// отбрасывая пустые элементы и дубликаты.
func parseList(params map[string]string, key, def string, allowed map[string]bool) ([]string, error) {
	v, ok := params[key]
	if !ok || strings.TrimSpace(v) == "" {
		v = def
	}

	var out []string
	seen := make(map[string]bool)
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		if allowed != nil && !allowed[item] {
			return nil, invalid(key, fmt.Sprintf("unknown value %q", item))
		}
		seen[item] = true
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil, invalid(key, "list is empty")
	}
	return out, nil
}
