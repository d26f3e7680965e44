package cli

import (
	"time"

	"github.com/alexanderramin/dermaloop/internal/app"
	"github.com/alexanderramin/dermaloop/internal/catalog"
	"github.com/alexanderramin/dermaloop/internal/reconcile"
	"github.com/alexanderramin/dermaloop/internal/rules"
	"github.com/spf13/cobra"
)

// App holds everything the commands need.
type App struct {
	Session    *app.Session
	Catalog    catalog.Searcher
	Reconciler *reconcile.Reconciler
	Rules      *rules.Engine

	// ReadImage loads the selfie for analyze; defaults to os.ReadFile.
	ReadImage func(path string) ([]byte, error)
	Now       func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "dermaloop" command and registers all
// subcommands against the provided App.
func NewRootCmd(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "dermaloop",
		Short:         "Skincare coach: selfie analysis, routines and chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAnalyzeCmd(a),
		newRoutineCmd(a),
		newReconcileCmd(a),
		newChatCmd(a),
		newMemoryCmd(a),
		newProductsCmd(a),
	)

	return root
}
