package config

import "time"

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./notebook-sync.db"

	// DefaultCoversDir is where cached cover images are written
	DefaultCoversDir = "./covers"
)

// Identity provider endpoints used by the reader notebook.
const (
	DefaultHomeURL   = "https://www.amazon.com"
	DefaultSignInURL = "https://www.amazon.com/ap/signin?openid.pape.max_auth_age=0&openid.return_to=https%3A%2F%2Fread.amazon.com%2Fnotebook&openid.identity=http%3A%2F%2Fspecs.openid.net%2Fauth%2F2.0%2Fidentifier_select&openid.assoc_handle=amzn_readk_us&openid.mode=checkid_setup&openid.claimed_id=http%3A%2F%2Fspecs.openid.net%2Fauth%2F2.0%2Fidentifier_select&openid.ns=http%3A%2F%2Fspecs.openid.net%2Fauth%2F2.0"

	// DefaultNotebookURLPattern matches the post-login destination.
	DefaultNotebookURLPattern = `/notebook`
)

// Bounded waits of the extraction pipeline.
const (
	DefaultSelectorProbeTimeout = 2 * time.Second
	DefaultSecretFieldTimeout   = 10 * time.Second
	DefaultLoginRedirectTimeout = 30 * time.Second
	DefaultLibraryWaitTimeout   = 15 * time.Second
	DefaultSyncTimeout          = 10 * time.Minute
)
