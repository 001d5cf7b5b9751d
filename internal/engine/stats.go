package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/Razzula/stagehand/internal/scene"
	"github.com/Razzula/stagehand/internal/video"
)

const benchmarkLog = "benchmark.log"

func (r *Renderer) showStats(sc *scene.Scene, loadTime time.Duration, stats video.Stats, totalTime time.Duration) {
	renderTime := stats.Total - stats.Encode
	fps := 0.0
	if totalTime > 0 {
		fps = float64(stats.Frames) / totalTime.Seconds()
	}

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Prop Loading: %.2fs\n"+
			"Compositing + Streaming: %.2fs\n"+
			"Encoder Finish: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		r.Config.BuildVersion, totalTime.Seconds(), loadTime.Seconds(), renderTime.Seconds(), stats.Encode.Seconds(), fps,
	)
	if r.Report != nil {
		fmt.Fprint(r.Report, report)
	}

	entry := fmt.Sprintf("[%s] Build: %s | Scene: %s | Frames: %d | Total: %.2fs | Load: %.2fs | Render: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		r.Config.BuildVersion,
		sc.ID,
		stats.Frames,
		totalTime.Seconds(),
		loadTime.Seconds(),
		renderTime.Seconds(),
		fps,
	)

	if err := appendLine(benchmarkLog, entry); err != nil {
		r.logger.Warn().Err(err).Str("path", benchmarkLog).Msg("could not append benchmark entry")
	}
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
