package bootstrap

// Version is set at build time with -ldflags "-X ...bootstrap.Version=v1.2.3".
var Version = "dev"
