package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/go-errors/errors"
	"github.com/integrii/flaggy"

	"github.com/junsooki/stbshim/internal/config"
	"github.com/junsooki/stbshim/internal/decoder"
	"github.com/junsooki/stbshim/internal/encoder"
	"github.com/junsooki/stbshim/internal/log"
	"github.com/junsooki/stbshim/internal/probe"
)

var (
	commit  string
	version = "unversioned"
	date    string

	configPath  string
	server      string
	debugFlag   = false
	printConfig = false
	jsonOutput  = false

	files   []string
	webrtc  = false
	format  = "png"
	width   = 64
	height  = 64
	quality = 90
	outPath string
)

func main() {
	flaggy.SetName("stbshim-probe")
	flaggy.SetDescription("Runs encoded images through the stbshim loader, locally or on a server")
	flaggy.SetVersion(fmt.Sprintf("%s\nDate: %s\nCommit: %s\nOS: %s\nArch: %s", version, date, commit, runtime.GOOS, runtime.GOARCH))

	flaggy.String(&configPath, "c", "config", "Path to a YAML config file")
	flaggy.String(&server, "s", "server", "Server WebSocket URL (overrides config)")
	flaggy.Bool(&debugFlag, "d", "debug", "Enable debug logging")
	flaggy.Bool(&printConfig, "p", "print-config", "Print the effective config and exit")
	flaggy.Bool(&jsonOutput, "j", "json", "Print results as JSON lines")

	decodeCmd := flaggy.NewSubcommand("decode")
	decodeCmd.Description = "Decode files locally"
	decodeCmd.StringSlice(&files, "f", "file", "File to decode (repeatable)")
	flaggy.AttachSubcommand(decodeCmd, 1)

	sendCmd := flaggy.NewSubcommand("send")
	sendCmd.Description = "Send files to a server for decoding"
	sendCmd.StringSlice(&files, "f", "file", "File to send (repeatable)")
	sendCmd.Bool(&webrtc, "w", "webrtc", "Send over a WebRTC data channel instead of the WebSocket")
	flaggy.AttachSubcommand(sendCmd, 1)

	sampleCmd := flaggy.NewSubcommand("sample")
	sampleCmd.Description = "Write a sample encoded image"
	sampleCmd.String(&format, "t", "format", "png or jpeg")
	sampleCmd.Int(&width, "x", "width", "Image width")
	sampleCmd.Int(&height, "y", "height", "Image height")
	sampleCmd.Int(&quality, "q", "quality", "JPEG quality (1-100)")
	sampleCmd.String(&outPath, "o", "out", "Output path (required)")
	flaggy.AttachSubcommand(sampleCmd, 1)

	flaggy.Parse()

	cfg, err := config.LoadProbe(configPath)
	if err != nil {
		fatal(err)
	}
	if server != "" {
		cfg.Server = server
	}
	if webrtc {
		cfg.WebRTC = true
	}
	if debugFlag {
		cfg.Log.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	if printConfig {
		out, err := config.Dump(cfg)
		if err != nil {
			fatal(err)
		}
		fmt.Print(out)
		return
	}

	logger := log.NewLogger(cfg.Log, "stbshim-probe", version)

	switch {
	case decodeCmd.Used:
		payloads, err := probe.LoadPayloads(files)
		if err != nil {
			fatal(err)
		}
		svc := probe.NewService(decoder.NewMemoryDecoder(cfg.DesiredChannels, logger), 0, logger)
		printResults(probe.DecodeLocal(svc, payloads))
	case sendCmd.Used:
		payloads, err := probe.LoadPayloads(files)
		if err != nil {
			fatal(err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		results, err := probe.Send(ctx, cfg, payloads, logger)
		if err != nil {
			fatal(err)
		}
		printResults(results)
	case sampleCmd.Used:
		if err := writeSample(); err != nil {
			fatal(err)
		}
	default:
		flaggy.ShowHelpAndExit("a subcommand is required")
	}
}

func writeSample() error {
	if outPath == "" {
		return errors.New("--out is required")
	}
	enc, err := encoder.ForFormat(format, quality)
	if err != nil {
		return err
	}
	data, err := enc.Encode(encoder.Gradient(width, height))
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}

func printResults(results []probe.Result) {
	for _, r := range results {
		if jsonOutput {
			line, err := json.Marshal(r)
			if err != nil {
				fatal(err)
			}
			fmt.Println(string(line))
			continue
		}

		status := "ok"
		if !r.Report.OK {
			status = "failed: " + r.Report.Error
		}
		fmt.Printf("%s\t%s\t%d bytes\t%dx%dx%d\t%s\n",
			r.Name, r.Report.Format, r.Report.Bytes,
			r.Report.Width, r.Report.Height, r.Report.Channels, status)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, errors.Wrap(err, 1).ErrorStack())
	os.Exit(1)
}
