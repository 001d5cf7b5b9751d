package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Razzula/stagehand/internal/config"
	"github.com/Razzula/stagehand/internal/process"
	"github.com/Razzula/stagehand/internal/speech"
)

func currentApp() *app {
	spawner := process.ExecSpawner{}
	if verbose {
		spawner.Stderr = os.Stderr
	}
	return newApp(cfg, log.Logger, spawner)
}

var (
	frameIndex    int
	frameOut      string
	frameResample bool
)

var frameCmd = &cobra.Command{
	Use:   "frame [scene]",
	Short: "Render one frame of a scene as a PNG data URL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if frameResample {
			cfg.Render.Resample = config.ResampleNearest
		}
		a := currentApp()

		sc, err := a.loadScene(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		r := a.renderer(cmd.Context())
		if frameOut != "" {
			data, err := r.RenderStill(cmd.Context(), sc, frameIndex)
			if err != nil {
				return err
			}
			return writeFile(frameOut, data)
		}

		url, err := r.RenderFrame(cmd.Context(), sc, frameIndex)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

var videoCmd = &cobra.Command{
	Use:   "video [scene]",
	Short: "Render a scene to <output_dir>/<id>.mp4",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := currentApp()

		sc, err := a.loadScene(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		r := a.renderer(cmd.Context())
		bar := progressbar.Default(int64(len(sc.Frames)), "Encoding")
		r.OnFrame = func(done, total int) {
			bar.Add(1)
		}

		out, err := r.RenderVideo(cmd.Context(), sc)
		bar.Finish()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var audioRate int

var audioCmd = &cobra.Command{
	Use:   "audio <media>",
	Short: "Extract mono float audio and write it to <temp_dir>/audio.wav",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := currentApp()

		wavPath := filepath.Join(cfg.TempDir, "audio.wav")
		samples, err := a.ffmpeg.ExtractAudio(cmd.Context(), args[0], audioRate, wavPath)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d samples at %d Hz (%.2fs) written to %s\n",
			len(samples), audioRate, float64(len(samples))/float64(audioRate), wavPath)
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe <media>",
	Short: "Print media metadata as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := currentApp().ffmpeg.Probe(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	},
}

var diariseCmd = &cobra.Command{
	Use:   "diarise [wav]",
	Short: "Label the speakers of a WAV file (default: <temp_dir>/audio.wav)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := currentApp()

		wavPath := filepath.Join(cfg.TempDir, "audio.wav")
		if len(args) > 0 {
			wavPath = args[0]
		}

		report, err := speech.NewDiariser(a.logger, cfg.Speech, a.spawner).Diarise(cmd.Context(), wavPath)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report)
		return nil
	},
}

var checkOut string

var checkCmd = &cobra.Command{
	Use:   "check [scene]",
	Short: "Validate a scene and optionally rewrite it as JSON or YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return currentApp().checkScene(args, cmd.InOrStdin(), checkOut, cmd.OutOrStdout())
	},
}

var configCmd = &cobra.Command{
	Use:   "config [file]",
	Short: "Print the effective configuration, or save it to file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		return currentApp().writeConfig(path, cmd.OutOrStdout())
	},
}

func init() {
	frameCmd.Flags().IntVar(&frameIndex, "index", 0, "frame script to render")
	frameCmd.Flags().StringVarP(&frameOut, "out", "o", "", "write the PNG to this file instead of printing a data URL")
	frameCmd.Flags().BoolVar(&frameResample, "resample", false, "scale props to their placement size (nearest neighbour)")

	audioCmd.Flags().IntVar(&audioRate, "rate", 16000, "sample rate in Hz")

	checkCmd.Flags().StringVarP(&checkOut, "out", "o", "", "write the scene to this .json, .yaml or .yml file")
}
