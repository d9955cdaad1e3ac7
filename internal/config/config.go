// Package config loads server configuration from an optional YAML file with
// environment variable overrides. Environment always wins so that deployments
// can keep secrets out of the config file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "driveshare.yaml"
	defaultDBPath     = "driveshare.db"
	defaultLinkTTL    = 24 * time.Hour
)

// SharePoint holds the Microsoft Graph credentials and site addressing.
type SharePoint struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Domain       string `yaml:"domain"`    // e.g. contoso.sharepoint.com
	SitePath     string `yaml:"site_path"` // e.g. /sites/allcompany
}

// Server holds the HTTP listener and link-minting settings.
type Server struct {
	Host           string `yaml:"host"`
	Port           string `yaml:"port"`
	PublicBaseURL  string `yaml:"public_base_url"`  // empty: derive from request headers
	LinkSigningKey string `yaml:"link_signing_key"` // empty: unsigned open links
	LinkTTL        string `yaml:"link_ttl"`         // duration, only used when signing
	DBPath         string `yaml:"db_path"`
}

// Folder describes one logical upload destination on the drive.
type Folder struct {
	Name         string   `yaml:"name"`
	Path         string   `yaml:"path"`
	AllowedTypes []string `yaml:"allowed_types"`
	Description  string   `yaml:"description"`
}

// Config is the full application configuration.
type Config struct {
	SharePoint SharePoint `yaml:"sharepoint"`
	Server     Server     `yaml:"server"`
	Folders    []Folder   `yaml:"folders"`
}

// MissingError reports required configuration values that were not provided.
type MissingError struct {
	Fields []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Fields, ", ")
}

// defaultFolders mirrors the upload destinations the web UI offers.
func defaultFolders() []Folder {
	return []Folder{
		{Name: "Images", Path: "/Images", Description: "Image files",
			AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp", "image/svg+xml"}},
		{Name: "Video", Path: "/Video", Description: "Video files",
			AllowedTypes: []string{"video/mp4", "video/webm", "video/x-matroska", "video/x-msvideo", "video/quicktime"}},
		{Name: "Audio", Path: "/Audio", Description: "Audio files",
			AllowedTypes: []string{"audio/mpeg", "audio/wav", "audio/ogg", "audio/mp4", "audio/flac"}},
		{Name: "Documents", Path: "/Docs", Description: "Office documents and PDFs",
			AllowedTypes: []string{
				"application/pdf",
				"application/msword",
				"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
				"application/vnd.ms-excel",
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
				"application/vnd.ms-powerpoint",
				"application/vnd.openxmlformats-officedocument.presentationml.presentation",
				"text/plain",
			}},
		{Name: "Files", Path: "/Files", Description: "Everything else",
			AllowedTypes: []string{"*/*"}},
	}
}

// Load reads the config file (if present) and applies environment overrides.
// A missing file is not an error; env-only deployments are supported.
func Load() (*Config, error) {
	path := os.Getenv("DRIVESHARE_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.DBPath == "" {
		cfg.Server.DBPath = defaultDBPath
	}
	if len(cfg.Folders) == 0 {
		cfg.Folders = defaultFolders()
	}

	return cfg, nil
}

// applyEnv overrides file values with environment variables. The SHAREPOINT_*
// names match what the original deployment used.
func applyEnv(cfg *Config) {
	setIfPresent(&cfg.SharePoint.TenantID, "SHAREPOINT_TENANT_ID")
	setIfPresent(&cfg.SharePoint.ClientID, "SHAREPOINT_CLIENT_ID")
	setIfPresent(&cfg.SharePoint.ClientSecret, "SHAREPOINT_CLIENT_SECRET")
	setIfPresent(&cfg.SharePoint.Domain, "SHAREPOINT_DOMAIN")
	setIfPresent(&cfg.SharePoint.SitePath, "SHAREPOINT_SITE_PATH")

	setIfPresent(&cfg.Server.Host, "HOST")
	setIfPresent(&cfg.Server.Port, "PORT")
	setIfPresent(&cfg.Server.PublicBaseURL, "DRIVESHARE_PUBLIC_URL")
	setIfPresent(&cfg.Server.LinkSigningKey, "DRIVESHARE_LINK_KEY")
	setIfPresent(&cfg.Server.LinkTTL, "DRIVESHARE_LINK_TTL")
	setIfPresent(&cfg.Server.DBPath, "DRIVESHARE_DB")
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that every Graph credential is present. The server still
// starts without them; requests that need the upstream fail with a config
// error instead.
func (c *Config) Validate() error {
	var missing []string
	if c.SharePoint.TenantID == "" {
		missing = append(missing, "sharepoint.tenant_id")
	}
	if c.SharePoint.ClientID == "" {
		missing = append(missing, "sharepoint.client_id")
	}
	if c.SharePoint.ClientSecret == "" {
		missing = append(missing, "sharepoint.client_secret")
	}
	if c.SharePoint.Domain == "" {
		missing = append(missing, "sharepoint.domain")
	}
	if c.SharePoint.SitePath == "" {
		missing = append(missing, "sharepoint.site_path")
	}
	if len(missing) > 0 {
		return &MissingError{Fields: missing}
	}
	return nil
}

// LinkTTL parses the configured link lifetime, falling back to the default.
func (c *Config) LinkTTL() time.Duration {
	if c.Server.LinkTTL == "" {
		return defaultLinkTTL
	}
	d, err := time.ParseDuration(c.Server.LinkTTL)
	if err != nil || d <= 0 {
		return defaultLinkTTL
	}
	return d
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// FolderByName returns the upload folder with the given name, or the
// catch-all Files folder when the name is unknown.
func (c *Config) FolderByName(name string) Folder {
	var fallback *Folder
	for i := range c.Folders {
		if c.Folders[i].Name == name {
			return c.Folders[i]
		}
		if c.Folders[i].Path == "/Files" {
			fallback = &c.Folders[i]
		}
	}
	if fallback != nil {
		return *fallback
	}
	return Folder{Name: "Files", Path: "/Files", AllowedTypes: []string{"*/*"}}
}

// Allows reports whether the folder accepts the given MIME type.
func (f Folder) Allows(mimeType string) bool {
	for _, t := range f.AllowedTypes {
		if t == "*/*" || t == mimeType {
			return true
		}
	}
	return false
}
