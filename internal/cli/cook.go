package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbenzar/stovewatch/internal/display"
	"github.com/kbenzar/stovewatch/internal/domain"
	"github.com/kbenzar/stovewatch/internal/extract"
	"github.com/kbenzar/stovewatch/internal/notify"
	"github.com/kbenzar/stovewatch/internal/recipe"
	"github.com/kbenzar/stovewatch/internal/timer"
)

var noSound bool

var cookCmd = &cobra.Command{
	Use:   "cook <recipe-file>",
	Short: "Run the interactive countdown board for a recipe",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		defer log.Sync()

		r, err := recipe.Load(args[0])
		if err != nil {
			exitErr("loading recipe", err)
		}

		descs := extract.DetectRecipe(r)
		if len(descs) == 0 {
			fmt.Println("no timers detected in", args[0])
			return
		}

		store, closeStore, err := openStore(log)
		if err != nil {
			exitErr("opening store", err)
		}
		defer closeStore()

		var alerter domain.Alerter = notify.NoopAlerter{}
		if !noSound {
			if chime, err := notify.NewChime(log); err != nil {
				log.Warn("audio unavailable, chime disabled: %v", err)
			} else {
				alerter = chime
			}
		}

		agg := timer.NewAggregator(context.Background(), r.ID, descs, log,
			timer.WithAggregatorStore(store),
			timer.WithAggregatorAlerter(alerter),
		)

		board := display.NewBoard(r.Title, agg)
		if err := board.Run(); err != nil {
			exitErr("running display", err)
		}
	},
}

func init() {
	cookCmd.Flags().BoolVar(&noSound, "no-sound", false, "Disable the completion chime")
	RootCmd.AddCommand(cookCmd)
}
