package main

import (
	"context"

	"github.com/san-kum/stepviz/internal/generator"
	"github.com/san-kum/stepviz/internal/step"
	"github.com/san-kum/stepviz/internal/viz"
	"github.com/spf13/cobra"
)

var (
	theme      string
	autoplay   bool
	recordPath string
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play [algorithm]",
		Short: "play an algorithm in the terminal; without an id, pick one from a menu",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPlay,
	}
	addInputFlags(cmd)
	cmd.Flags().StringVar(&theme, "theme", viz.ThemeOneDark.Name, "color theme")
	cmd.Flags().BoolVar(&autoplay, "autoplay", false, "start playing immediately")
	cmd.Flags().StringVar(&recordPath, "record", viz.DefaultRecordPath, "GIF path for recordings (V key)")
	return cmd
}

func playerOptions() (viz.Options, error) {
	speeds, err := cfg.PlaybackSpeeds()
	if err != nil {
		return viz.Options{}, err
	}
	anim, err := cfg.AnimationConfig()
	if err != nil {
		return viz.Options{}, err
	}
	return viz.Options{
		Speeds:        speeds,
		InitialSpeed:  cfg.Playback.InitialSpeed,
		Animation:     anim,
		FrameInterval: cfg.FrameInterval(),
		Theme:         theme,
		Autoplay:      autoplay,
		RecordPath:    recordPath,
	}, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	opts, err := playerOptions()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		entries, err := menuEntries()
		if err != nil {
			return err
		}
		return viz.RunMenu(entries, loader(cmd.Context()), opts)
	}

	def, _, seq, err := generate(cmd.Context(), args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	opts.Title = def.Metadata().Name
	return viz.Play(seq, opts)
}

// menuEntries lists every algorithm grouped by category.
func menuEntries() ([]viz.Entry, error) {
	var entries []viz.Entry
	for _, c := range generator.Categories() {
		metas, err := reg.List(c)
		if err != nil {
			return nil, err
		}
		for _, m := range metas {
			entries = append(entries, viz.Entry{
				ID:          m.ID,
				Name:        m.Name,
				Category:    string(m.Category),
				Description: m.Description,
				Presets:     cfg.ListPresets(m),
			})
		}
	}
	return entries, nil
}

func loader(ctx context.Context) viz.LoadFunc {
	return func(id, name string) (step.Sequence, error) {
		def, err := reg.Get(id)
		if err != nil {
			return nil, err
		}
		inputs, err := cfg.Preset(def.Metadata(), name)
		if err != nil {
			return nil, err
		}
		return gen.Run(ctx, def, inputs)
	}
}
