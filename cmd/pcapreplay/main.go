// Command pcapreplay reads an offline packet capture, reconstructs its
// TCP and UDP conversations, and replays each against a live (possibly
// redirected) server, reporting any mismatch against the captured
// traffic. Flag parsing here is intentionally minimal; this file exists
// so the core packages are reachable end to end.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	galayers "github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/negbie/logp"

	"github.com/pcapreplay/pcapreplay/internal/config"
	"github.com/pcapreplay/pcapreplay/internal/conversation"
	netlayers "github.com/pcapreplay/pcapreplay/internal/layers"
	"github.com/pcapreplay/pcapreplay/internal/flow"
	"github.com/pcapreplay/pcapreplay/internal/replay"
	"github.com/pcapreplay/pcapreplay/internal/report"
	"github.com/pcapreplay/pcapreplay/internal/validator"
)

type targetFlags []string

func (t *targetFlags) String() string { return fmt.Sprint([]string(*t)) }
func (t *targetFlags) Set(s string) error {
	*t = append(*t, s)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("pcapreplay", flag.ContinueOnError)
	var targets targetFlags
	captureFile := fs.String("r", "", "capture file to replay")
	mode := fs.String("mode", "http", "replay mode: tcp, udp, or http")
	validatorSpec := fs.String("validator", "", "UDP validator spec (default|external:cmd[:arg...])")
	verbose := fs.Bool("v", false, "verbose flag (recorded in the run configuration; the log level is unchanged)")
	fs.Var(&targets, "target", "target-server rewrite rule (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := &config.Config{
		CaptureFile:   *captureFile,
		Mode:          config.Mode(*mode),
		TargetSpecs:   targets,
		ValidatorSpec: *validatorSpec,
		Verbose:       *verbose,
	}
	if err := cfg.Validate(); err != nil {
		logp.Critical("%v", err)
		return 1
	}

	summary := &report.Summary{}
	if err := replayCapture(cfg, summary); err != nil {
		logp.Critical("%v", err)
		return 1
	}

	raw, _ := summary.MarshalJSON()
	fmt.Fprintln(os.Stdout, string(raw))

	if summary.Mismatches > 0 {
		return 1
	}
	return 0
}

func replayCapture(cfg *config.Config, summary *report.Summary) error {
	rules := flow.NewRegistry()
	for _, spec := range cfg.TargetSpecs {
		if err := rules.AddSpec(spec); err != nil {
			return fmt.Errorf("target spec %q: %w", spec, err)
		}
	}

	store := conversation.NewStore(rules)

	f, err := os.Open(cfg.CaptureFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := ingestCapture(f, store, summary); err != nil {
		return err
	}

	spec, err := validator.ParseSpec(cfg.ValidatorSpec)
	if err != nil {
		return err
	}
	v := validator.New(spec)

	for _, entry := range store.Entries() {
		if err := replayOne(entry, store, v, summary); err != nil {
			logp.Warn("replay failed for %s conversation: %v", entry.Conv.Protocol(), err)
			summary.IncReplayError()
		}
	}

	return nil
}

func ingestCapture(r io.Reader, store *conversation.Store, summary *report.Summary) error {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return fmt.Errorf("invalid capture file: %w", err)
	}

	link := netlayers.LinkTypeUnknown
	switch pr.LinkType() {
	case galayers.LinkTypeEthernet:
		link = netlayers.LinkTypeEthernet
	case galayers.LinkTypeNull, galayers.LinkTypeLoop:
		link = netlayers.LinkTypeNull
	}

	for {
		data, ci, err := pr.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		pkt, err := netlayers.Dissect(link, ci.CaptureLength, ci.Length, data)
		if err != nil {
			return err // ErrTruncated is always fatal, never a silent drop
		}
		if pkt == nil {
			summary.IncDroppedFrames()
			continue
		}

		conv, err := store.Ingest(pkt)
		if err != nil {
			return fmt.Errorf("internal failure: %w", err)
		}
		if conv == nil {
			summary.IncDroppedFrames()
		}
	}

	for _, conv := range store.Conversations() {
		summary.IncConversation(conv.Protocol())
	}

	return nil
}

func replayOne(entry conversation.Entry, store *conversation.Store, v validator.Validator, summary *report.Summary) error {
	onAction := func() {
		store.RecordReplayed(entry.Key)
		summary.IncActionsReplayed()
	}

	switch c := entry.Conv.(type) {
	case *conversation.TcpConversation:
		engine := replay.NewTCPEngine(c)
		engine.OnMismatch(summary.IncMismatch)
		engine.OnActionReplayed(onAction)
		return engine.Replay()
	case *conversation.UdpConversation:
		engine := replay.NewUDPEngine(c, v)
		engine.OnMismatch(summary.IncMismatch)
		engine.OnActionReplayed(onAction)
		return engine.Replay()
	default:
		return fmt.Errorf("unrecognized conversation type")
	}
}
