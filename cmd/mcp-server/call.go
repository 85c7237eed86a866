package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/njchilds90/gotensor"
)

var flagInput string

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Run one tool request read from a JSON or YAML file",
	Long:  "Reads a {tool, params} request from --input (or stdin with '-') and prints the response as JSON. Files ending in .yaml or .yml are decoded as YAML.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(flagInput, cmd.InOrStdin())
		if err != nil {
			return err
		}
		req, err := decodeRequest(flagInput, data)
		if err != nil {
			return err
		}
		resp := newToolbox().Handle(req)
		out, err := prettyJSON(resp)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		if resp.Error != "" {
			return fmt.Errorf("tool %s: %s", req.Tool, resp.Error)
		}
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the tool schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), gotensor.MCPToolSpec())
		return nil
	},
}

func init() {
	callCmd.Flags().StringVarP(&flagInput, "input", "i", "-", "request file (.json, .yaml, .yml) or - for stdin")
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return data, nil
}

// decodeRequest decodes a tool request. YAML input is converted to JSON
// first so both formats yield the same parameter types.
func decodeRequest(path string, data []byte) (gotensor.ToolRequest, error) {
	var req gotensor.ToolRequest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		js, err := yaml.YAMLToJSON(data)
		if err != nil {
			return req, fmt.Errorf("decode YAML request: %w", err)
		}
		data = js
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	if req.Tool == "" {
		return req, fmt.Errorf("request has no tool")
	}
	return req, nil
}
