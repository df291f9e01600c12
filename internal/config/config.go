package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Browser
		Notebook
		Timeouts
		Pacing
		Database
		Covers
		Tasks
		Audit
		SignInLimit
	}

	HTTP struct {
		Port        int32
		Host        string
		CORSOrigins []string // empty disables CORS
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		LogLevel                 string
		LogFormat                string // "json" or "console"
	}
	Browser struct {
		Headless  bool
		Bin       string // Chrome binary; empty lets rod download/locate one
		RemoteURL string // DevTools websocket of an already running Chrome
		NoSandbox bool
	}
	Notebook struct {
		HomeURL       string
		SignInURL     string
		URLPattern    string // regexp matched against the post-login URL
		LibraryURL    string // optional explicit library view; empty = stay on the redirect target
		SelectorsFile string // optional YAML selector profile
	}
	Timeouts struct {
		SelectorProbe time.Duration
		SecretField   time.Duration
		LoginRedirect time.Duration
		LibraryWait   time.Duration
		Sync          time.Duration
	}
	Pacing struct {
		KeystrokeDelay time.Duration
		HomeDwell      time.Duration
		SignInDwell    time.Duration
		TypeDwell      time.Duration
		ContinueDwell  time.Duration
		SubmitDwell    time.Duration
		LibrarySettle  time.Duration
		DetailDwell    time.Duration
		BackDwell      time.Duration
	}
	Database struct {
		Path           string
		PersistCatalog bool
	}
	Covers struct {
		Enabled bool
		Dir     string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Audit struct {
		RetentionDays   int
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	SignInLimit struct {
		Enabled     bool
		MaxFailures int
		Window      time.Duration
		Lockout     time.Duration
	}
)

// loadDotEnv populates the environment from a .env file when one exists.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("WARNING: could not load .env file: %v", err)
	}
}

func NewConfig() *Config {
	loadDotEnv()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("cors_allowed_origins", "")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	// Browser defaults
	v.SetDefault("browser_headless", true)
	v.SetDefault("browser_bin", "")
	v.SetDefault("browser_remote_url", "")
	v.SetDefault("browser_no_sandbox", true)

	// Notebook endpoints
	v.SetDefault("notebook_home_url", DefaultHomeURL)
	v.SetDefault("notebook_signin_url", DefaultSignInURL)
	v.SetDefault("notebook_url_pattern", DefaultNotebookURLPattern)
	v.SetDefault("notebook_library_url", "")
	v.SetDefault("notebook_selectors_file", "")

	// Bounded waits
	v.SetDefault("selector_probe_timeout", DefaultSelectorProbeTimeout.String())
	v.SetDefault("secret_field_timeout", DefaultSecretFieldTimeout.String())
	v.SetDefault("login_redirect_timeout", DefaultLoginRedirectTimeout.String())
	v.SetDefault("library_wait_timeout", DefaultLibraryWaitTimeout.String())
	v.SetDefault("sync_timeout", DefaultSyncTimeout.String())

	// Human-like pacing
	v.SetDefault("keystroke_delay", "100ms")
	v.SetDefault("home_dwell", "2s")
	v.SetDefault("signin_dwell", "3s")
	v.SetDefault("type_dwell", "1s")
	v.SetDefault("continue_dwell", "3s")
	v.SetDefault("submit_dwell", "5s")
	v.SetDefault("library_settle", "3s")
	v.SetDefault("detail_dwell", "2s")
	v.SetDefault("back_dwell", "1s")

	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("catalog_persist", true)
	v.SetDefault("covers_enabled", false)
	v.SetDefault("covers_dir", DefaultCoversDir)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	// Lockout after repeated sign-in failures on POST /sync
	v.SetDefault("signin_limit_enabled", true)
	v.SetDefault("signin_max_failures", 5)
	v.SetDefault("signin_failure_window", "15m")
	v.SetDefault("signin_lockout", "30m")

	return &Config{
		HTTP: HTTP{
			Port:        v.GetInt32("PORT"),
			Host:        v.GetString("HOST"),
			CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			LogLevel:                 v.GetString("LOG_LEVEL"),
			LogFormat:                v.GetString("LOG_FORMAT"),
		},
		Browser: Browser{
			Headless:  v.GetBool("BROWSER_HEADLESS"),
			Bin:       v.GetString("BROWSER_BIN"),
			RemoteURL: v.GetString("BROWSER_REMOTE_URL"),
			NoSandbox: v.GetBool("BROWSER_NO_SANDBOX"),
		},
		Notebook: Notebook{
			HomeURL:       v.GetString("NOTEBOOK_HOME_URL"),
			SignInURL:     v.GetString("NOTEBOOK_SIGNIN_URL"),
			URLPattern:    v.GetString("NOTEBOOK_URL_PATTERN"),
			LibraryURL:    v.GetString("NOTEBOOK_LIBRARY_URL"),
			SelectorsFile: v.GetString("NOTEBOOK_SELECTORS_FILE"),
		},
		Timeouts: Timeouts{
			SelectorProbe: v.GetDuration("SELECTOR_PROBE_TIMEOUT"),
			SecretField:   v.GetDuration("SECRET_FIELD_TIMEOUT"),
			LoginRedirect: v.GetDuration("LOGIN_REDIRECT_TIMEOUT"),
			LibraryWait:   v.GetDuration("LIBRARY_WAIT_TIMEOUT"),
			Sync:          v.GetDuration("SYNC_TIMEOUT"),
		},
		Pacing: Pacing{
			KeystrokeDelay: v.GetDuration("KEYSTROKE_DELAY"),
			HomeDwell:      v.GetDuration("HOME_DWELL"),
			SignInDwell:    v.GetDuration("SIGNIN_DWELL"),
			TypeDwell:      v.GetDuration("TYPE_DWELL"),
			ContinueDwell:  v.GetDuration("CONTINUE_DWELL"),
			SubmitDwell:    v.GetDuration("SUBMIT_DWELL"),
			LibrarySettle:  v.GetDuration("LIBRARY_SETTLE"),
			DetailDwell:    v.GetDuration("DETAIL_DWELL"),
			BackDwell:      v.GetDuration("BACK_DWELL"),
		},
		Database: Database{
			Path:           v.GetString("DATABASE_PATH"),
			PersistCatalog: v.GetBool("CATALOG_PERSIST"),
		},
		Covers: Covers{
			Enabled: v.GetBool("COVERS_ENABLED"),
			Dir:     v.GetString("COVERS_DIR"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		SignInLimit: SignInLimit{
			Enabled:     v.GetBool("SIGNIN_LIMIT_ENABLED"),
			MaxFailures: v.GetInt("SIGNIN_MAX_FAILURES"),
			Window:      v.GetDuration("SIGNIN_FAILURE_WINDOW"),
			Lockout:     v.GetDuration("SIGNIN_LOCKOUT"),
		},
	}
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
