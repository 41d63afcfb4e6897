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

// Command esfuse resolves, fetches, transforms, traverses, and bundles
// JavaScript/TypeScript module graphs.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"esfuse.dev/esfuse/cmd/esfuse/batch"
	"esfuse.dev/esfuse/cmd/esfuse/bundle"
	"esfuse.dev/esfuse/cmd/esfuse/fetch"
	"esfuse.dev/esfuse/cmd/esfuse/resolve"
	"esfuse.dev/esfuse/cmd/esfuse/transform"
	"esfuse.dev/esfuse/cmd/esfuse/version"
)

var rootCmd = &cobra.Command{
	Use:   "esfuse",
	Short: "Resolve, transform, and bundle JavaScript/TypeScript module graphs",
	Long:  `esfuse is a pluggable resolve/fetch/transform/bundle pipeline for JS and TS.`,
}

func init() {
	rootCmd.PersistentFlags().StringP("package", "p", ".", "project root directory")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output file (default: stdout)")

	_ = viper.BindPFlag("package", rootCmd.PersistentFlags().Lookup("package"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))

	rootCmd.AddCommand(resolve.Cmd)
	rootCmd.AddCommand(fetch.Cmd)
	rootCmd.AddCommand(transform.Cmd)
	rootCmd.AddCommand(batch.Cmd)
	rootCmd.AddCommand(bundle.Cmd)
	rootCmd.AddCommand(version.Cmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
