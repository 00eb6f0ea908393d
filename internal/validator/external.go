package validator

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os/exec"
	"strings"
	"time"

	netconversation "github.com/pcapreplay/pcapreplay/internal/conversation"
)

// externalTimeout bounds how long an external validator command may run
// before a replay comparison is treated as failed.
const externalTimeout = 5 * time.Second

// ExternalValidator delegates the comparison to an external command,
// taking the place of PythonPacketValidator's embedded-interpreter
// callback. Go has no in-tree equivalent of embedding CPython, so the
// callback boundary is an external process instead: cmd is invoked with
// its configured args followed by the base64-encoded expected and actual
// payloads, and must print "true" or "false" to stdout.
type ExternalValidator struct {
	cmd  string
	args []string
}

// NewExternalValidator returns a validator that shells out to cmd.
func NewExternalValidator(cmd string, args []string) *ExternalValidator {
	return &ExternalValidator{cmd: cmd, args: args}
}

// Validate invokes the external command, ignoring sub-tokens: the
// external callback receives the raw payloads and is responsible for any
// templated comparison itself.
func (v *ExternalValidator) Validate(expected, actual []byte, _ []netconversation.SubToken, _ Context) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), externalTimeout)
	defer cancel()

	args := append(append([]string{}, v.args...),
		base64.StdEncoding.EncodeToString(expected),
		base64.StdEncoding.EncodeToString(actual))

	cmd := exec.CommandContext(ctx, v.cmd, args...)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("external validator %q failed: %w", v.cmd, err)
	}

	result := strings.TrimSpace(out.String())
	switch result {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("external validator %q returned unexpected output %q", v.cmd, result)
	}
}
