// Package speech runs the external speaker diarisation script.
package speech

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Razzula/stagehand/internal/config"
	"github.com/Razzula/stagehand/internal/logging"
	"github.com/Razzula/stagehand/internal/process"
)

// ErrNoToken is returned when no diarisation credential is configured.
var ErrNoToken = errors.New("HF_TOKEN must be set")

// Diariser labels the speakers of a WAV file with a Python script.
type Diariser struct {
	cfg     config.SpeechConfig
	spawner process.Spawner
	logger  zerolog.Logger
}

func NewDiariser(logger zerolog.Logger, cfg config.SpeechConfig, s process.Spawner) *Diariser {
	if s == nil {
		s = process.ExecSpawner{}
	}
	return &Diariser{
		cfg:     cfg,
		spawner: s,
		logger:  logging.WithComponent(logger, "speech"),
	}
}

// Diarise runs the script on wavPath and returns its report verbatim.
func (d *Diariser) Diarise(ctx context.Context, wavPath string) (string, error) {
	if d.cfg.Token == "" {
		return "", ErrNoToken
	}

	d.logger.Debug().Str("wav", wavPath).Str("script", d.cfg.ScriptPath).Msg("diarising audio")

	out, err := process.Output(ctx, d.spawner, d.cfg.PythonPath, d.cfg.ScriptPath, d.cfg.Token, wavPath)
	if err != nil {
		return "", fmt.Errorf("diarisation script failed: %w", err)
	}
	return string(out), nil
}
