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

// Package bundle provides the bundle command for esfuse.
package bundle

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"esfuse.dev/esfuse/cmd/esfuse/cliproject"
	"esfuse.dev/esfuse/esfuse"
)

// Cmd traverses one or more entry modules and concatenates the result
// into a single output bundle.
var Cmd = &cobra.Command{
	Use:   "bundle <file...>",
	Short: "Traverse and bundle entry modules into one output file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  run,
}

func init() {
	Cmd.Flags().Bool("inline-source-map", false, "embed the merged source map as a data: URL comment")
	Cmd.Flags().Bool("require-on-load", false, "assign module.exports to the entry's require() result when the bundle loads")
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

	results := esfuse.Batch(context.Background(), p, osfs, entries, esfuse.BatchOptions{
		TraverseDependencies: true,
		TraversePackages:     true,
		TraverseVendors:      true,
		GeneratedFolder:      "__generated__",
		UseEsfuseRuntime:     true,
		PromisifyEntryPoint:  true,
	})

	for url, result := range results {
		if result.Err != nil {
			return fmt.Errorf("batch failed for %s: %s", url, result.Err.Error())
		}
	}

	inline, _ := cmd.Flags().GetBool("inline-source-map")
	requireOnLoad, _ := cmd.Flags().GetBool("require-on-load")
	out, err := esfuse.Bundle(results, esfuse.BundleOptions{
		Entries:         entries,
		InlineSourceMap: inline,
		RequireOnLoad:   requireOnLoad,
		Project:         p,
	})
	if err != nil {
		return fmt.Errorf("bundle: %w", err)
	}

	output := viper.GetString("output")
	if output == "" {
		fmt.Println(out.Code)
		return nil
	}
	if err := osfs.WriteFile(output, []byte(out.Code), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	if out.SourceMap != nil {
		if err := osfs.WriteFile(output+".map", out.SourceMap, 0644); err != nil {
			return fmt.Errorf("writing %s.map: %w", output, err)
		}
	}
	return nil
}
