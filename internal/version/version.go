package version

// Version is overridden at build time with -ldflags "-X github.com/loanlink/backend/internal/version.Version=...".
var Version = "dev"
