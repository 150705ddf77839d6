package cli

// Version is overridden at build time with -ldflags "-X github.com/Fepozopo/dithr/pkg/cli.Version=..."
var Version = "0.1.0"
