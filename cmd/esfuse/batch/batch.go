/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package batch provides the batch command for esfuse.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"esfuse.dev/esfuse/cmd/esfuse/cliproject"
	"esfuse.dev/esfuse/esfuse"
)

// Cmd traverses one or more entry modules and prints one JSON line per
// visited module (NDJSON), success or failure.
var Cmd = &cobra.Command{
	Use:   "batch <file...>",
	Short: "Traverse entry modules and print every visited module",
	Args:  cobra.MinimumNArgs(1),
	RunE:  run,
}

type lineOutput struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType,omitempty"`
	Error    string `json:"error,omitempty"`
}

func init() {
	Cmd.Flags().Bool("vendors", true, "traverse into node_modules")
	Cmd.Flags().Bool("packages", true, "traverse across package boundaries")
	Cmd.Flags().Bool("natives", false, "traverse .node native modules")
	Cmd.Flags().String("generated-folder", "__generated__", "virtual folder for hashed module output paths")
}

func run(cmd *cobra.Command, args []string) error {
	p, osfs, err := cliproject.New(viper.GetString("package"), nil)
	if err != nil {
		return fmt.Errorf("building project: %w", err)
	}

	entries, err := cliproject.EntryLocators(p, args)
	if err != nil {
		return err
	}

	vendors, _ := cmd.Flags().GetBool("vendors")
	packages, _ := cmd.Flags().GetBool("packages")
	natives, _ := cmd.Flags().GetBool("natives")
	generatedFolder, _ := cmd.Flags().GetString("generated-folder")

	results := esfuse.Batch(context.Background(), p, osfs, entries, esfuse.BatchOptions{
		TraverseDependencies: true,
		TraversePackages:     packages,
		TraverseVendors:      vendors,
		TraverseNatives:      natives,
		GeneratedFolder:      generatedFolder,
		UseEsfuseRuntime:     true,
	})

	encoder := json.NewEncoder(os.Stdout)
	for url, result := range results {
		line := lineOutput{URL: url}
		if result.Err != nil {
			line.Error = result.Err.Error()
		} else {
			line.MimeType = result.Module.MimeType
		}
		if err := encoder.Encode(line); err != nil {
			fmt.Fprintf(os.Stderr, "error encoding result for %s: %v\n", url, err)
		}
	}
	return nil
}
