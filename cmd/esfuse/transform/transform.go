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

// Package transform provides the transform command for esfuse.
package transform

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"esfuse.dev/esfuse/cmd/esfuse/cliproject"
	"esfuse.dev/esfuse/esfuse"
)

// Cmd fetches and transforms a single module, printing the generated
// code without traversing its imports.
var Cmd = &cobra.Command{
	Use:   "transform <file>",
	Short: "Transform a single module and print the generated code",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	Cmd.Flags().Bool("runtime", true, "wrap the output in the $esfuse$ registration envelope")
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
	loc := locators[0]

	fetched, diagErr := esfuse.Fetch(context.Background(), p, osfs, loc)
	if diagErr != nil {
		return fmt.Errorf("fetch: %s", diagErr.Error())
	}

	useRuntime, _ := cmd.Flags().GetBool("runtime")
	result, diagErr := esfuse.Transform(esfuse.TransformArgs{
		Locator:          loc,
		MimeType:         fetched.MimeType,
		Code:             fetched.Code,
		ModuleURL:        loc.URL(),
		UseEsfuseRuntime: useRuntime,
	})
	if diagErr != nil {
		return fmt.Errorf("transform: %s", diagErr.Error())
	}

	fmt.Println(result.Code)
	return nil
}
