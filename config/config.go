// Package config reads the settings of a simulation run from the environment
// and from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sarchlab/spikeputor/addrdec"
	"github.com/sarchlab/spikeputor/board"
	"github.com/sarchlab/spikeputor/sdram"
	"github.com/sarchlab/spikeputor/sim"
)

// The environment variables that configure a run.
const (
	EnvFreqMHz         = "SPIKESIM_FREQ_MHZ"
	EnvCASLatency      = "SPIKESIM_CAS_LATENCY"
	EnvRefreshInterval = "SPIKESIM_REFRESH_INTERVAL"
	EnvRowPolicy       = "SPIKESIM_ROW_POLICY"
	EnvAddressing      = "SPIKESIM_ADDRESSING"
	EnvROMImage        = "SPIKESIM_ROM_IMAGE"
	EnvFlashImage      = "SPIKESIM_FLASH_IMAGE"
	EnvFlashLatency    = "SPIKESIM_FLASH_LATENCY"
	EnvTraceDB         = "SPIKESIM_TRACE_DB"
	EnvMonitorPort     = "SPIKESIM_MONITOR_PORT"
)

// Settings are the settings of a run.
type Settings struct {
	Board board.Config

	// TraceDB is the path, without extension, of the database that receives
	// the traced tasks. Tracing is off when empty.
	TraceDB string

	// MonitorPort is the port of the HTTP monitor. The monitor is off when
	// zero.
	MonitorPort int
}

// Load reads the given .env files into the environment and then builds the
// settings from it. Variables already set in the environment win over the
// files. With no file given, Load reads .env in the working directory if it
// exists.
func Load(paths ...string) (Settings, error) {
	if len(paths) == 0 {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("reading .env: %w", err)
		}
	} else if err := godotenv.Load(paths...); err != nil {
		return Settings{}, fmt.Errorf("reading %v: %w", paths, err)
	}

	return FromEnv()
}

// FromEnv builds the settings from the environment. Unset variables keep the
// defaults of the real machine.
func FromEnv() (Settings, error) {
	s := Settings{Board: board.DefaultConfig()}

	err := errors.Join(
		parseFloat(EnvFreqMHz, func(v float64) error {
			if v <= 0 {
				return errors.New("must be positive")
			}

			s.Board.Freq = sim.Freq(v) * sim.MHz

			return nil
		}),
		parseInt(EnvCASLatency, func(v int) error {
			s.Board.SDRAM.CASLatency = v
			return nil
		}),
		parseInt(EnvRefreshInterval, func(v int) error {
			s.Board.SDRAM.RefreshInterval = v
			return nil
		}),
		parseString(EnvRowPolicy, func(v string) (err error) {
			s.Board.RowPolicy, err = sdram.ParseRowPolicy(v)
			return err
		}),
		parseString(EnvAddressing, func(v string) (err error) {
			s.Board.Addressing, err = addrdec.ParseAddressing(v)
			return err
		}),
		parseInt(EnvFlashLatency, func(v int) error {
			if v < 1 {
				return errors.New("must be at least 1")
			}

			s.Board.FlashLatency = v

			return nil
		}),
		parseInt(EnvMonitorPort, func(v int) error {
			if v < 0 || v > 65535 {
				return errors.New("out of range")
			}

			s.MonitorPort = v

			return nil
		}),
	)
	if err != nil {
		return Settings{}, err
	}

	s.Board.ROMImage = os.Getenv(EnvROMImage)
	s.Board.FlashImage = os.Getenv(EnvFlashImage)
	s.TraceDB = os.Getenv(EnvTraceDB)

	if err := s.Board.SDRAM.Validate(); err != nil {
		return Settings{}, fmt.Errorf("SDRAM timing: %w", err)
	}

	return s, nil
}

func parseString(name string, apply func(string) error) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}

	if err := apply(v); err != nil {
		return fmt.Errorf("%s=%q: %w", name, v, err)
	}

	return nil
}

func parseInt(name string, apply func(int) error) error {
	return parseString(name, func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}

		return apply(n)
	})
}

func parseFloat(name string, apply func(float64) error) error {
	return parseString(name, func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}

		return apply(f)
	})
}
