//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"tdeckvt/app"
	"tdeckvt/console"
	"tdeckvt/hal"
	"tdeckvt/internal/buildinfo"
	"tdeckvt/internal/telemetry"
)

func main() {
	var (
		headless hal.HeadlessConfig
		host     hal.HostConfig
		tty      bool
		version  bool
		kbdAddr  uint
		board    string
		scale    int

		mqttBroker string
		mqttTopic  string
		mqttID     string
	)
	cfg := app.DefaultConfig()

	flag.BoolVar(&headless.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&headless.Hz, "hz", 60, "Tick rate in headless and tty mode.")
	flag.Uint64Var(&headless.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.StringVar(&headless.Script, "script", "", "Keys typed at start in headless mode (\\n unlocks).")
	flag.BoolVar(&tty, "tty", false, "Run on this terminal in raw mode (Ctrl-] quits).")
	flag.IntVar(&scale, "scale", 2, "Window scale factor.")
	flag.BoolVar(&version, "version", false, "Print version and exit.")

	flag.StringVar(&board, "board", string(hal.BoardSim), "Input source: sim or gpio (Linux I2C keyboard + GPIO trackball).")
	flag.StringVar(&host.I2CBus, "i2c", "", "I2C bus for -board gpio (empty = first bus).")
	flag.UintVar(&kbdAddr, "kbd-addr", uint(console.DefaultKeyboardAddr), "Keyboard controller address.")
	flag.StringVar(&host.GPIOChip, "gpiochip", "gpiochip0", "GPIO chip for -board gpio.")
	flag.IntVar(&host.Lines.Up, "line-up", hal.DefaultBoardLines.Up, "Trackball up line.")
	flag.IntVar(&host.Lines.Left, "line-left", hal.DefaultBoardLines.Left, "Trackball left line.")
	flag.IntVar(&host.Lines.Down, "line-down", hal.DefaultBoardLines.Down, "Trackball down line.")
	flag.IntVar(&host.Lines.Right, "line-right", hal.DefaultBoardLines.Right, "Trackball right line.")
	flag.IntVar(&host.Lines.Button, "line-button", hal.DefaultBoardLines.Button, "Trackball button line.")
	flag.IntVar(&host.BatteryPct, "battery", 100, "Simulated battery percentage (-1 = no battery).")

	flag.DurationVar(&cfg.Console.PollInterval, "poll", console.DefaultPollInterval, "Minimum time between input polls.")
	flag.DurationVar(&cfg.Debounce, "debounce", console.DefaultDebounceWindow, "Modifier button debounce window.")
	flag.BoolVar(&cfg.EdgeButton, "edge-button", false, "Debounce the modifier on button level edges instead of press counts.")
	flag.BoolVar(&cfg.Console.ShowUnknownBattery, "show-unknown-battery", false, "Keep the battery line on the lock screen without a battery.")

	flag.StringVar(&mqttBroker, "mqtt", "", "MQTT broker URL for console events, e.g. tcp://localhost:1883.")
	flag.StringVar(&mqttTopic, "mqtt-topic", telemetry.DefaultTopic, "MQTT topic for console events.")
	flag.StringVar(&mqttID, "mqtt-id", "tdeckvt", "MQTT client ID.")
	flag.Parse()

	if version {
		fmt.Println(buildinfo.String())
		return
	}

	headless.Script = strings.ReplaceAll(headless.Script, `\n`, "\n")
	host.Board = hal.Board(board)
	host.KeyboardAddr = uint16(kbdAddr)
	cfg.Console.KeyboardAddr = host.KeyboardAddr

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if mqttBroker != "" {
		pub, err := telemetry.NewRealPublisher(mqttBroker, mqttID, mqttTopic)
		if err != nil {
			fmt.Fprintln(os.Stderr, "mqtt:", err)
			os.Exit(1)
		}
		sink := telemetry.NewSink(pub, telemetry.DefaultQueueDepth, stderrLog{})
		cfg.Events = sink

		sinkCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = sink.Run(sinkCtx)
		}()
		defer func() {
			cancel()
			select {
			case <-done:
			case <-time.After(3 * time.Second):
			}
		}()
	}

	newApp := func(h hal.HAL) func() error {
		return app.NewWithConfig(h, cfg)
	}

	var err error
	switch {
	case tty:
		err = hal.RunTTY(ctx, newApp, hal.TTYConfig{Hz: headless.Hz, Host: host})
	case headless.Enabled:
		headless.Host = host
		err = hal.RunHeadless(ctx, newApp, headless)
	default:
		err = hal.RunWindow(newApp, hal.WindowConfig{Scale: scale, Host: host})
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

type stderrLog struct{}

func (stderrLog) WriteLineString(s string) { fmt.Fprintln(os.Stderr, s) }
