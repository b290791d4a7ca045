// ABOUTME: Entry point for the resonate-tone generator
// ABOUTME: Parses CLI flags and streams a 440Hz tone to the default output
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
	"syscall"
	"time"

	"github.com/Resonate-Protocol/resonate-tone/internal/app"
	"github.com/Resonate-Protocol/resonate-tone/internal/ui"
	"github.com/Resonate-Protocol/resonate-tone/internal/version"
	"github.com/Resonate-Protocol/resonate-tone/pkg/audio/output"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var (
	duration    = flag.Duration("duration", app.DefaultDuration, "How long to play the tone")
	hostName    = flag.String("host", output.DefaultHostName, "Audio host (see -list)")
	format      = flag.String("format", "", "Sample format override (i8..i64, u8..u64, f32, f64). Default: device preference")
	timeout     = flag.Duration("timeout", 0, "Stream build timeout (0 waits indefinitely)")
	logFile     = flag.String("log-file", "", "Log file path (default: stderr only)")
	useTUI      = flag.Bool("tui", false, "Show a live status display")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	listDevices = flag.Bool("list", false, "List audio hosts and devices, then exit")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

var errQuitFromTUI = errors.New("quit from TUI")

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(versionLine())
		return
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}

	tui := *useTUI
	if tui && !term.IsTerminal(int(os.Stdout.Fd())) {
		log.Printf("stdout is not a terminal, TUI disabled")
		tui = false
	}

	// Set up logging
	var logOut io.Writer = os.Stderr
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		defer f.Close()

		if tui {
			logOut = f
		} else {
			logOut = io.MultiWriter(os.Stderr, f)
		}
	} else if tui {
		// TUI owns the terminal
		logOut = io.Discard
	}
	log.SetOutput(logOut)

	if *listDevices {
		listHosts(os.Stdout)
		return
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	config := app.Config{
		Host:     *hostName,
		Duration: *duration,
		Format:   *format,
		Timeout:  *timeout,
	}

	// Handle shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(config)

	var err error
	if tui {
		err = runWithTUI(ctx, application)
	} else {
		err = application.Run(ctx)
	}
	if err != nil {
		log.SetOutput(fatalOutput(tui, logOut))
		log.Fatalf("Tone stream failed: %v", err)
	}

	log.Printf("Tone stopped")
}

func versionLine() string {
	return fmt.Sprintf("%s %s (%s)", version.Product, version.Version, version.Manufacturer)
}

// fatalOutput makes sure a fatal error reaches stderr once the TUI is gone.
// Outside TUI mode logOut already includes stderr.
func fatalOutput(tui bool, logOut io.Writer) io.Writer {
	if !tui {
		return logOut
	}
	return io.MultiWriter(os.Stderr, logOut)
}

// runWithTUI streams while the TUI displays status; quitting the TUI stops the stream
func runWithTUI(ctx context.Context, application *app.App) error {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	control := ui.NewControl()
	prog := ui.Run(ui.NewModel(version.Product, version.Version, control))
	streamDone := make(chan struct{})

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer prog.Send(ui.DoneMsg{})
		defer close(streamDone)
		return application.Run(gctx)
	})

	g.Go(func() error {
		if _, err := prog.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-control.Quit:
			cancel(errQuitFromTUI)
		case <-streamDone:
		}
		return nil
	})

	g.Go(func() error {
		statusUpdateLoop(application, prog, streamDone)
		return nil
	})

	return g.Wait()
}

// statusUpdateLoop periodically pushes run status to the TUI
func statusUpdateLoop(application *app.App, prog *tea.Program, done <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			prog.Send(toStatusMsg(application.Status()))
			return
		case <-ticker.C:
			prog.Send(toStatusMsg(application.Status()))
		}
	}
}

func toStatusMsg(st app.Status) ui.StatusMsg {
	msg := ui.StatusMsg{
		Session:   st.Session,
		Host:      st.Host,
		Device:    st.Device,
		State:     st.State.String(),
		Frames:    st.Frames,
		Errors:    st.Errors,
		LastError: st.LastError,
		Elapsed:   st.Elapsed,
		Duration:  st.Duration,
	}
	if st.Config.Format.Valid() {
		msg.SampleRate = st.Config.SampleRate
		msg.Channels = st.Config.Channels
		msg.Format = st.Config.Format.String()
	}
	return msg
}

// listHosts prints every registered host with its devices and default configs
func listHosts(w io.Writer) {
	for _, name := range output.AvailableHosts() {
		host, err := output.HostByName(name)
		if err != nil {
			fmt.Fprintf(w, "%s: unavailable (%v)\n", name, err)
			continue
		}

		devices, err := host.Devices()
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", name, err)
			host.Close()
			continue
		}

		fmt.Fprintf(w, "%s:\n", name)
		for _, d := range devices {
			cfg, err := d.DefaultOutputConfig()
			if err != nil {
				fmt.Fprintf(w, "  %s: %v\n", d.Name(), err)
				continue
			}
			fmt.Fprintf(w, "  %s: %s (formats: %v)\n", d.Name(), cfg, d.SupportedFormats())
		}
		host.Close()
	}
}
