// Command usbcam lists, probes and controls V4L2 USB cameras and takes
// still pictures from them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/adamlouis/usbcam"
	"github.com/adamlouis/usbcam/internal/config"
	"github.com/adamlouis/usbcam/panel"
	"github.com/adamlouis/usbcam/snapshot"
)

var configPath = flag.String("config", "", "YAML configuration file")

const usage = `usage: usbcam [-config file] <command> [flags]

commands:
  list       list capture devices
  probe      list the formats, resolutions and frame rates of a device
  controls   print the controls of a device
  get        read a control
  set        write a control
  reset      reset every control to its default
  snap       save one frame to a file
`

type command func(cfg *config.Config, args []string, out io.Writer) error

var commands = map[string]command{
	"list":     runList,
	"probe":    runProbe,
	"controls": runControls,
	"get":      runGet,
	"set":      runSet,
	"reset":    runReset,
	"snap":     runSnap,
}

func main() {
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	run, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "usbcam: unknown command %q\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	cleanup, err := config.ConfigureLogging(cfg)
	if err != nil {
		log.Fatal(err)
	}

	err = run(cfg, flag.Args()[1:], os.Stdout)
	cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "usbcam %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
}

// streamFlags registers the stream mode flags, defaulting to cfg.
func streamFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Device.Path, "d", cfg.Device.Path, "video device")
	fs.StringVar(&cfg.Device.Format, "format", cfg.Device.Format, "pixel format (MJPEG, YUYV, H.264)")
	fs.Func("resolution", "frame size as WxH", func(s string) error {
		w, h, err := snapshot.ParseResolution(s)
		if err != nil {
			return err
		}
		cfg.Device.Width, cfg.Device.Height = uint32(w), uint32(h)
		return nil
	})
	fs.Func("fps", "frame rate", func(s string) error {
		var fps float32
		if _, err := fmt.Sscanf(s, "%g", &fps); err != nil {
			return err
		}
		cfg.Device.FPS = fps
		return nil
	})
}

// withStream runs fn while the configured device streams.
func withStream(cfg *config.Config, fn func(s *usbcam.Session) error) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s := usbcam.NewSession(nil)
	if err := s.StartStream(cfg.StreamConfig()); err != nil {
		return err
	}
	defer s.StopStream()
	return fn(s)
}

func runList(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	devices := usbcam.ListDevices()
	if len(devices) == 0 {
		fmt.Fprintf(out, "No valid video devices found in %q\n", usbcam.VIDEO4LINUX_DIR)
		return nil
	}
	fmt.Fprintln(out, "Video devices found:")
	for _, d := range devices {
		fmt.Fprintf(out, "  %q located in %s\n", d.DisplayName, d.Path)
	}
	return nil
}

func runProbe(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	device := fs.String("d", cfg.Device.Path, "video device")
	if err := fs.Parse(args); err != nil {
		return err
	}

	info := usbcam.Probe(*device)
	if !info.Usable() {
		return fmt.Errorf("%s: no usable formats", *device)
	}
	fmt.Fprintf(out, "%s (%s, %s)\n", info.DisplayName, info.DriverName, info.BusInfo)
	fmt.Fprintf(out, "  capture: %s  streaming: %s\n", yesNo(info.Capture), yesNo(info.Streaming))
	for _, f := range info.Formats {
		fmt.Fprintf(out, "  %s [%s]\n", f.FormatName, f.PixelFormat)
		for _, r := range f.Resolutions {
			fmt.Fprintf(out, "    %dx%d %v fps\n", r.Width, r.Height, r.FrameRates)
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func runControls(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("controls", flag.ContinueOnError)
	streamFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withStream(cfg, func(s *usbcam.Session) error {
		fmt.Fprintln(out, "Available controls:")
		for _, c := range s.Controls() {
			fmt.Fprintf(out, "ID:%08x %-32s  Min: %6d  Max: %6d  Default: %6d\n", uint32(c.ID), c.Name, c.Minimum, c.Maximum, c.DefaultValue)
		}

		fmt.Fprintln(out, "\nPanel:")
		sliders := panel.DefaultSliders()
		for i, state := range panel.ReadAll(s, sliders) {
			auto := ""
			if sliders[i].Coupled() {
				auto = "[ ]"
				if state.AutoChecked {
					auto = "[x]"
				}
			}
			fmt.Fprintf(out, "  %-14s %3s %6s  (%d..%d)\n", sliders[i].Name, auto, state.Label, state.Min, state.Max)
		}
		return nil
	})
}

func runGet(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	streamFlags(fs, cfg)
	name := fs.String("id", "", "control name or numeric id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseControlID(*name)
	if err != nil {
		return err
	}

	return withStream(cfg, func(s *usbcam.Session) error {
		v, err := s.GetControl(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s = %d\n", usbcam.ControlName(id), v)
		return nil
	})
}

func runSet(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	streamFlags(fs, cfg)
	name := fs.String("id", "", "control name or numeric id")
	value := fs.Int("value", 0, "value to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseControlID(*name)
	if err != nil {
		return err
	}

	return withStream(cfg, func(s *usbcam.Session) error {
		if err := s.SetControl(id, int32(*value)); err != nil {
			return err
		}
		v, err := s.GetControl(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s = %d\n", usbcam.ControlName(id), v)
		return nil
	})
}

func runReset(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	streamFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withStream(cfg, func(s *usbcam.Session) error {
		err := s.ResetAllToDefault()
		if err != nil {
			fmt.Fprintf(out, "some controls could not be reset:\n%v\n", err)
		}
		return err
	})
}

func runSnap(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("snap", flag.ContinueOnError)
	streamFlags(fs, cfg)
	output := fs.String("o", "image.png", "output file (.png, .jpg)")
	wait := fs.Duration("wait", 5*time.Second, "how long to wait for a frame")
	controls := fs.String("controls", "", "controls to set first, as name=value,name=value")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	settings, err := parseControlList(*controls)
	if err != nil {
		return err
	}

	snapper := snapshot.NewSnapper(usbcam.NewSession(nil))
	snapper.Rate = cfg.Device.FPS
	snapper.Timeout = *wait
	snapper.PollInterval = cfg.Display.PollInterval
	if err := snapper.Open(cfg.Device.Path, cfg.Device.Format, fmt.Sprintf("%dx%d", cfg.Device.Width, cfg.Device.Height)); err != nil {
		return err
	}
	defer snapper.Close()

	ids := make([]usbcam.ControlID, 0, len(settings))
	for id := range settings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := snapper.SetControl(id, settings[id]); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	img, err := snapper.Snap(ctx)
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}
	if err != nil {
		return err
	}
	if err := snapshot.Save(*output, img); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %dx%d frame to %s\n", img.Bounds().Dx(), img.Bounds().Dy(), *output)
	return nil
}
