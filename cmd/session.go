package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bnema/refine-cli/internal/adapters/records/recordjson"
	statusadapter "github.com/bnema/refine-cli/internal/adapters/render/status"
	"github.com/bnema/refine-cli/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func newSessionCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and control refinement sessions",
	}
	cmd.AddCommand(newSessionStatusCmd(state), newSessionStopCmd(state))
	return cmd
}

func newSessionStatusCmd(state *cliState) *cobra.Command {
	var (
		format string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show a session's iterations, scores and status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := state.app.service.GetSessionStatus(cmd.Context(), domain.SessionID(args[0]))
			if err != nil {
				return err
			}

			if asJSON {
				format = formatJSON
			}
			switch format {
			case formatJSON:
				return writeSessionJSON(cmd.OutOrStdout(), session)
			case formatYAML:
				data, err := recordjson.EncodeSession(session)
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), data)
			case formatText:
				output, err := statusadapter.RenderSession(session, statusadapter.RenderOptions{Now: time.Now()})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
				return err
			default:
				return fmt.Errorf("unsupported format %q (want text, json or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Shorthand for --format json")

	return cmd
}

// newSessionStopCmd only reaches sessions owned by this process; sessions
// started elsewhere are stopped through the HTTP API of the process running
// them.
func newSessionStopCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <session-id>",
		Short: "Stop a session running in this process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := state.app.service.StopSession(cmd.Context(), domain.SessionID(args[0]))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "session %s: %s\n", session.ID, session.Status)
			return err
		},
	}
}

func writeSessionJSON(w io.Writer, session domain.Session) error {
	data, err := recordjson.EncodeSession(session)
	if err != nil {
		return err
	}
	return writeIndentedJSON(w, data)
}

func writeJobJSON(w io.Writer, record domain.JobRecord) error {
	data, err := recordjson.EncodeJob(record)
	if err != nil {
		return err
	}
	return writeIndentedJSON(w, data)
}

func writeIndentedJSON(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

// writeYAML re-encodes a JSON document as YAML. JSON is valid YAML, so the
// decoder reads it directly.
func writeYAML(w io.Writer, data []byte) error {
	var v map[string]any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("convert to yaml: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
