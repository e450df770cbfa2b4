package version

// Name is the program name. It also prefixes environment variables and config files.
const Name = "signcfg"

const Description = "Resolve Android release signing configuration from key.properties"

// Version is set at build time.
//
//nolint:gochecknoglobals
var Version = "0.0.0-dev"
