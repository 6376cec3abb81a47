package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbenzar/stovewatch/internal/extract"
	"github.com/kbenzar/stovewatch/internal/recipe"
)

var detectJSON bool

var detectCmd = &cobra.Command{
	Use:   "detect <recipe-file>",
	Short: "Show the timers detected in a recipe without running them",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		r, err := recipe.Load(args[0])
		if err != nil {
			exitErr("loading recipe", err)
		}

		descs := extract.DetectRecipe(r)

		if detectJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(descs); err != nil {
				exitErr("encoding output", err)
			}
			return
		}

		if len(descs) == 0 {
			fmt.Println("no timers detected")
			return
		}
		for i, d := range descs {
			fmt.Printf("%2d. %-22s %-10s %q\n", i+1, d.Label, d.CookingAction, d.Context)
		}
	},
}

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Emit descriptors as JSON")
	RootCmd.AddCommand(detectCmd)
}
