package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/astrolul/tinydaw/audio"
	"github.com/astrolul/tinydaw/config"
	"github.com/astrolul/tinydaw/debug"
	"github.com/astrolul/tinydaw/sampler"
	"github.com/astrolul/tinydaw/theme"
	"github.com/astrolul/tinydaw/tui"
)

func main() {
	if os.Getenv("TINYDAW_DEBUG") != "" {
		debug.Enable()
	}
	defer debug.Disable()

	// Nothing below is allowed to crash the terminal: log, restore, exit.
	defer func() {
		if r := recover(); r != nil {
			debug.Log("panic", "%v", r)
			fmt.Fprintf(os.Stderr, "tinydaw: fatal: %v\n", r)
			os.Exit(1)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tinydaw: config: %v\n", err)
		os.Exit(1)
	}

	th := loadTheme(cfg)

	// Open the audio backend; without one the program runs mute on a null
	// sink but is otherwise identical.
	var sink sampler.Sink
	engine := audio.NewEngine()
	engine.SetMaxVoices(cfg.Engine.MaxVoices)
	audioErr := engine.Initialize()
	if audioErr != nil {
		sink = sampler.NewNullSink()
		debug.Log("audio", "init failed, running mute: %v", audioErr)
	} else {
		sink = engine
	}

	trigger := sampler.NewTriggerEngine(sink, cfg.GateThreshold(), cfg.Engine.StopGateOnModeSwitch)
	meter := sampler.NewMeterEngine()
	meter.SetCoefficients(cfg.Engine.MeterAttack, cfg.Engine.MeterDecay, cfg.Engine.MeterSnap)
	meter.SetJitter(cfg.Engine.JitterMin, cfg.Engine.JitterMax)
	registry := sampler.NewRegistry(sink, trigger, meter)
	if audioErr != nil {
		registry.SetStatus("audio unavailable - running mute")
	}

	// Pad keys from the config layout, clips from argv in channel order.
	for i, r := range []rune(cfg.Keys.Pads) {
		if i >= sampler.MaxChannels {
			break
		}
		registry.AssignKey(i, int(r))
	}
	for i, path := range os.Args[1:] {
		if i >= sampler.MaxChannels {
			break
		}
		if err := registry.AssignFile(i, path); err != nil {
			fmt.Fprintf(os.Stderr, "tinydaw: channel %d: %v\n", i+1, err)
		}
	}

	m := tui.NewModel(registry, th, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadTheme(cfg *config.Config) *theme.Theme {
	if cfg.UI.Palette != "" {
		if p, err := theme.LoadGPL(cfg.UI.Palette); err == nil {
			return theme.New(p)
		} else {
			debug.Log("theme", "palette %s: %v, using built-in", cfg.UI.Palette, err)
		}
	}
	return theme.New(theme.DefaultPalette())
}
