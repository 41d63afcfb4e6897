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

// Package resolve provides the resolve command for esfuse.
package resolve

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"esfuse.dev/esfuse/cmd/esfuse/cliproject"
	"esfuse.dev/esfuse/esfuse"
)

// Cmd resolves a bare or relative specifier against an issuer file and
// prints the resulting canonical URL.
var Cmd = &cobra.Command{
	Use:   "resolve <specifier> <issuer-file>",
	Short: "Resolve a specifier to its canonical module URL",
	Args:  cobra.ExactArgs(2),
	RunE:  run,
}

func init() {
	Cmd.Flags().StringSlice("conditions", nil, "export condition priority (e.g. browser,import,default)")
}

func run(cmd *cobra.Command, args []string) error {
	conditions, _ := cmd.Flags().GetStringSlice("conditions")

	p, osfs, err := cliproject.New(viper.GetString("package"), conditions)
	if err != nil {
		return fmt.Errorf("building project: %w", err)
	}

	issuerLocators, err := cliproject.EntryLocators(p, args[1:2])
	if err != nil {
		return err
	}

	loc, diagErr := esfuse.Resolve(context.Background(), p, osfs, esfuse.ResolveArgs{
		Request: args[0],
		Issuer:  issuerLocators[0],
	})
	if diagErr != nil {
		return fmt.Errorf("resolve: %s", diagErr.Error())
	}

	fmt.Println(loc.URL())
	return nil
}
