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

// Package fetch provides the fetch command for esfuse.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"esfuse.dev/esfuse/cmd/esfuse/cliproject"
	"esfuse.dev/esfuse/esfuse"
)

// Cmd reads one module through the fetch stage and prints its code,
// or, with --json, the whole result including its MIME type.
var Cmd = &cobra.Command{
	Use:   "fetch <file>",
	Short: "Fetch a module's raw (pre-transform) content",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	Cmd.Flags().Bool("json", false, "print the result as JSON instead of raw code")
}

func run(cmd *cobra.Command, args []string) error {
	p, osfs, err := cliproject.New(viper.GetString("package"), nil)
	if err != nil {
		return fmt.Errorf("building project: %w", err)
	}

	locators, err := cliproject.EntryLocators(p, args)
	if err != nil {
		return err
	}

	result, diagErr := esfuse.Fetch(context.Background(), p, osfs, locators[0])
	if diagErr != nil {
		return fmt.Errorf("fetch: %s", diagErr.Error())
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return nil
	}
	fmt.Println(result.Code)
	return nil
}
