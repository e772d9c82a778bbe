package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jsp88/jsp/internal/app"
	"github.com/jsp88/jsp/internal/screen"
)

// runApp opens the store, builds dependencies, and launches the TUI. start,
// when set, is opened on top of the home screen.
func runApp(cmd *cobra.Command, start func(env *screen.Env) screen.Screen) error {
	rt, err := newRuntime(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	var opts []app.Option
	if start != nil {
		if err := rt.requireLogin(cmd.Context()); err != nil {
			return err
		}
		opts = append(opts, app.WithStartScreen(start), app.WithoutSplash())
	}
	return app.Run(rt.env(), opts...)
}
