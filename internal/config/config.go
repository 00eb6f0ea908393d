// Package config holds the settings a replay run is configured with. This
// package only defines the struct the flag parser populates, instantiated
// per run instead of a package global so tests can build independent
// configurations.
package config

// Mode names a replay mode. Validate checks it against the known values;
// the replay engine for each conversation is chosen by its protocol, not
// by Mode.
type Mode string

const (
	ModeTCP  Mode = "tcp"
	ModeUDP  Mode = "udp"
	ModeHTTP Mode = "http" // TCP replay with the HTTP response comparator
)

// Config is constructed by value and passed by pointer to collaborators.
type Config struct {
	// CaptureFile is the path to the offline packet capture to replay.
	CaptureFile string

	// Mode is only validated; cmd/pcapreplay replays TCP conversations
	// with the TCP engine (which always runs the HTTP comparator on RECV)
	// and UDP conversations with the UDP engine whatever Mode holds.
	Mode Mode

	// TargetSpecs are textual target-server rewrite rules, one per
	// occurrence of the CLI flag, parsed by flow.Registry.AddSpec.
	TargetSpecs []string

	// ValidatorSpec selects the UDP PacketValidator; see
	// validator.ParseSpec.
	ValidatorSpec string

	// ScriptOutputDir names a directory for conversation script files.
	// Validate accepts a config that sets it without a CaptureFile;
	// nothing in this repository writes script files to it, and
	// cmd/pcapreplay has no flag that sets it.
	ScriptOutputDir string

	// Verbose records the -v flag. cmd/pcapreplay does not pass it on to
	// logp, so the log level is not changed by it.
	Verbose bool
}

// Validate checks field combinations that the out-of-scope CLI parser
// would otherwise reject before a run starts.
func (c *Config) Validate() error {
	if c.CaptureFile == "" && c.ScriptOutputDir == "" {
		return errCaptureFileRequired
	}
	switch c.Mode {
	case ModeTCP, ModeUDP, ModeHTTP, "":
	default:
		return errUnknownMode
	}
	return nil
}

var (
	errCaptureFileRequired = configError("capture file path is required")
	errUnknownMode         = configError("unknown replay mode")
)

type configError string

func (e configError) Error() string { return string(e) }
