package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/Tubesmith/internal/config"
	"github.com/shaiso/Tubesmith/internal/host"
)

func testConfig() *config.Config {
	return &config.Config{
		Domain:       "tube.example.org",
		HTTPS:        false,
		WebPort:      9000,
		DBHost:       "127.0.0.1",
		DBPort:       5432,
		DBUser:       "peertube",
		DBPass:       "s3cret",
		DBName:       "peertube",
		FromAddress:  "PeerTube <no-reply@tube.example.org>",
		InstanceName: "MyTube",
		InstanceDesc: "Public PeerTube instance",
		Languages:    []string{"en", "de", "ar"},
		Resolutions:  []string{"720p", "1080p"},
		Revision:     "production",
		User:         "peertube",
		Secret:       strings.Repeat("ab", 32),
	}
}

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer(host.NewFake(), nil)

	first, err := r.Render(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Render(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(first.AppConfig, second.AppConfig) {
		t.Error("application config must be byte-identical across renders")
	}
	if !bytes.Equal(first.NginxSite, second.NginxSite) {
		t.Error("nginx site must be byte-identical across renders")
	}
	if !bytes.Equal(first.Unit, second.Unit) {
		t.Error("unit file must be byte-identical across renders")
	}
}

func TestRender_PortConsistency(t *testing.T) {
	cfg := testConfig()
	cfg.WebPort = 9123

	set, err := NewRenderer(host.NewFake(), nil).Render(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(string(set.AppConfig), "port: 9123") {
		t.Error("application config must carry the web port")
	}
	if !strings.Contains(string(set.NginxSite), "proxy_pass http://127.0.0.1:9123;") {
		t.Error("nginx site must proxy to the web port")
	}
}

func TestRender_LanguageOrder(t *testing.T) {
	set, err := NewRenderer(host.NewFake(), nil).Render(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc struct {
		Instance struct {
			Languages []string `yaml:"languages"`
		} `yaml:"instance"`
	}
	if err := yaml.Unmarshal(set.AppConfig, &doc); err != nil {
		t.Fatalf("rendered config is not valid yaml: %v", err)
	}

	want := []string{"en", "de", "ar"}
	if len(doc.Instance.Languages) != len(want) {
		t.Fatalf("languages = %v, want %v", doc.Instance.Languages, want)
	}
	for i, lang := range want {
		if doc.Instance.Languages[i] != lang {
			t.Errorf("languages[%d] = %q, want %q", i, doc.Instance.Languages[i], lang)
		}
	}
}

func TestRender_SMTPOmittedWhenUnset(t *testing.T) {
	set, err := NewRenderer(host.NewFake(), nil).Render(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(set.AppConfig), "smtp:") {
		t.Error("smtp block must be omitted when no smtp host is configured")
	}

	cfg := testConfig()
	cfg.SMTPHost = "mail.example.org"
	cfg.SMTPPort = 587
	cfg.SMTPTLS = true
	set, err = NewRenderer(host.NewFake(), nil).Render(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(set.AppConfig), "smtp:") {
		t.Error("smtp block expected when smtp host is configured")
	}
	if !strings.Contains(string(set.AppConfig), "mail.example.org") {
		t.Error("smtp hostname missing from rendered config")
	}
}

func TestRender_DescriptionEscaping(t *testing.T) {
	cfg := testConfig()
	cfg.InstanceDesc = `It's "special": videos & more`

	set, err := NewRenderer(host.NewFake(), nil).Render(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc struct {
		Instance struct {
			Description string `yaml:"description"`
		} `yaml:"instance"`
	}
	if err := yaml.Unmarshal(set.AppConfig, &doc); err != nil {
		t.Fatalf("rendered config is not valid yaml: %v", err)
	}
	if doc.Instance.Description != cfg.InstanceDesc {
		t.Errorf("description round-trip = %q, want %q", doc.Instance.Description, cfg.InstanceDesc)
	}
}

func TestRender_UnsafeDomain(t *testing.T) {
	cfg := testConfig()
	cfg.Domain = "tube.example.org; }"

	_, err := NewRenderer(host.NewFake(), nil).Render(cfg)
	if !errors.Is(err, ErrUnsafeValue) {
		t.Fatalf("expected ErrUnsafeValue, got %v", err)
	}
}

func TestRender_UnsafeUser(t *testing.T) {
	cfg := testConfig()
	cfg.User = "pt user"

	_, err := NewRenderer(host.NewFake(), nil).Render(cfg)
	if !errors.Is(err, ErrUnsafeValue) {
		t.Fatalf("expected ErrUnsafeValue, got %v", err)
	}
}

func TestRender_WebSocketLocations(t *testing.T) {
	set, err := NewRenderer(host.NewFake(), nil).Render(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	site := string(set.NginxSite)
	if !strings.Contains(site, "socket\\.io|tracker/socket") {
		t.Error("websocket locations missing from nginx site")
	}
	if !strings.Contains(site, `proxy_set_header Upgrade $http_upgrade;`) {
		t.Error("websocket upgrade header missing from nginx site")
	}
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()
	cfg := testConfig()
	r := NewRenderer(h, nil)

	set, err := r.Render(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Write(ctx, cfg, set); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := h.Files[config.AppConfigPath]; !ok {
		t.Fatal("application config not written")
	}
	if h.Perms[config.AppConfigPath] != 0o600 {
		t.Errorf("application config perms = %o, want 0600", h.Perms[config.AppConfigPath])
	}
	if !h.Ran("chown peertube:peertube " + config.AppConfigPath) {
		t.Error("application config must be handed to the service user")
	}
	if h.Links[config.NginxLinkPath] != config.NginxSitePath {
		t.Error("nginx site must be linked into sites-enabled")
	}
	if _, ok := h.Files[config.UnitPath]; !ok {
		t.Error("unit file not written")
	}
}

func TestWrite_ExistingLinkKept(t *testing.T) {
	ctx := context.Background()
	h := host.NewFake()
	h.Links[config.NginxLinkPath] = config.NginxSitePath
	cfg := testConfig()
	r := NewRenderer(h, nil)

	set, err := r.Render(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Write(ctx, cfg, set); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
