// Command notifyicon-demo shows a tray icon with a context menu and
// drives it with commands read from stdin:
//
//	message <text>   info <text>   warning <text>   error <text>
//	custom <text>    clear         set-focus        remove
//	create
//
// Each line is echoed back with the result of the command.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelepuginivan/notifyicon"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "notifyicon-demo",
		Short:         "Show a tray icon driven by commands read from stdin",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, cmd.Flags())
			if err != nil {
				return err
			}

			initLog(cfg.Debug)

			if err := runDemo(cmd.Context(), cfg); err != nil {
				log.Error().Err(err).Msg("notifyicon-demo failed")
				return err
			}

			return nil
		},
	}

	registerFlags(cmd.Flags())

	return cmd
}

func runDemo(ctx context.Context, cfg *config) error {
	shell, err := notifyicon.DefaultShell()
	if err != nil {
		return err
	}

	icon := notifyicon.NewWithContextMenu(shell, notifyicon.IDFromName("notifyicon-demo"))

	logger := log.Logger.With().Str("component", "notifyicon").Logger()
	icon.SetLogger(&logger)

	var handle notifyicon.Handle
	if cfg.Icon != "" {
		handle, err = notifyicon.LoadIconFile(cfg.Icon)
		if err != nil {
			return err
		}
	}

	icon.SetIcon(handle)
	icon.SetToolTip(cfg.ToolTip)
	icon.SetUseStandardToolTip(cfg.StandardToolTip)

	var (
		exit     = make(chan struct{})
		exitOnce sync.Once
	)

	show := notifyicon.NewPopupMenuItem("Show", func(item *notifyicon.PopupMenuItem) {
		item.Checked = !item.Checked
		icon.SetVisible(item.Checked)
	})
	show.Checked = true

	icon.ContextMenu = notifyicon.NewPopupMenu(
		show,
		&notifyicon.PopupSeparator{},
		notifyicon.NewPopupMenuItem("Exit", func(*notifyicon.PopupMenuItem) {
			exitOnce.Do(func() { close(exit) })
		}),
	)

	icon.OnLeftClick(func(p notifyicon.Point) {
		log.Info().Int32("x", p.X).Int32("y", p.Y).Msg("left click")
	})
	icon.OnBalloonChange(func(visible bool) {
		log.Debug().Bool("visible", visible).Msg("balloon changed")
	})
	icon.OnTaskbarCreated(func() {
		log.Info().Msg("taskbar restarted")
	})
	icon.OnFault(func(err error) {
		log.Error().Err(err).Msg("tray icon fault")
	})

	if !icon.Create() {
		log.Warn().Msg("tray icon was not created, use \"create\" to retry")
	}

	defer func() {
		if err := icon.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close tray icon")
		}
	}()

	if cfg.Watch && cfg.Icon != "" {
		watcher, err := watchIcon(cfg.Icon, func(path string) {
			h, err := notifyicon.LoadIconFile(path)
			if err != nil {
				log.Error().Err(err).Msg("failed to load icon")
				return
			}
			icon.Invoke(func() { icon.SetIcon(h) })
		})
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	d := &dispatcher{
		icon:       icon,
		customIcon: handle,
		invoke:     icon.Invoke,
	}

	input := make(chan error, 1)
	go func() {
		input <- d.run(os.Stdin, os.Stdout)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	select {
	case <-exit:
	case <-ctx.Done():
	case err := <-input:
		if err != nil {
			return err
		}
	}

	return nil
}
