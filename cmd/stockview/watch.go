// Part of the stockview CLI - this file implements the 'stockview watch'
// subcommand.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/invlab/stockview/stockview"
	"github.com/invlab/stockview/stockview/source"
)

var watchCmd = &cobra.Command{
	Use:   "watch <entity>",
	Short: "Re-render an entity list when the data file changes",
	Long: `Print the entity's composed view and keep it current: whenever the JSON
data file changes on disk, reload it and render the view again. Ctrl-C
stops watching. Only meaningful with --data.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	schema, err := resolveSchema(args[0])
	if err != nil {
		return err
	}

	src, cleanup, err := openFileSource()
	if err != nil {
		return err
	}
	defer cleanup()

	sess, err := stockview.NewSession(src, schema, stockview.Options{Logger: mainLogger})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	render := func() error {
		if err := sess.Refresh(ctx); err != nil {
			return err
		}
		if err := sess.ResolveRefs(ctx); err != nil {
			mainLogger.Warn("reference resolution incomplete", "error", err)
		}
		renderTable(sess, schema, sess.Model())
		return nil
	}
	if err := render(); err != nil {
		return err
	}

	watcher, err := source.NewWatcher(src.Path())
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", src.Path(), err)
	}
	defer func() { _ = watcher.Close() }()

	watcher.OnChange = func() error {
		if err := src.Reload(ctx); err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(mutedStyle.Render("data file changed, reloading"))
		return render()
	}
	watcher.OnError = func(err error) {
		fmt.Fprintln(os.Stderr, errorStyle.Render("watch error: "+err.Error()))
	}

	fmt.Println(mutedStyle.Render(fmt.Sprintf("watching %s, Ctrl-C to stop", src.Path())))
	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
