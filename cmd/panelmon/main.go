package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"

	"github.com/panelmon/panelmon/engine"
	"github.com/panelmon/panelmon/log2"
	"github.com/panelmon/panelmon/stats"
	"github.com/panelmon/panelmon/theme"
)

func main() {
	flagTheme := flag.String("theme", "theme.hcl", "path to theme file")
	flagDebug := flag.Bool("log-debug", false, "")
	flag.Parse()

	level := log2.LInfo
	if *flagDebug {
		level = log2.LDebug
	}
	lg := log2.NewStderr(level)
	if sdnotify("start") {
		// under systemd, journal adds timestamps already
		lg.SetFlags(log2.LServiceFlags)
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		lg.SetFlags(log2.LInteractiveFlags)
	}

	dir, name := filepath.Split(*flagTheme)
	fs, err := theme.NewOsFullReader(dir)
	if err != nil {
		lg.Fatal(errors.ErrorStack(err))
	}
	th, caps := theme.MustRead(lg, fs, name)
	lg.Infof("theme loaded rev=%s widgets=%d", th.Display.Rev, len(th.Widgets))

	e, err := engine.New(engine.Config{
		Theme: th,
		Caps:  caps,
		Log:   lg,
		Sources: []stats.Source{
			stats.ClockSource(time.Second, ""),
			stats.LoadAvgSource(2 * time.Second),
			stats.MemUsedSource(2 * time.Second),
		},
	})
	if err != nil {
		lg.Fatal(errors.ErrorStack(err))
	}

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigch
		lg.Infof("signal=%v stopping", sig)
		sdnotify(daemon.SdNotifyStopping)
		e.Stop()
	}()

	sdnotify(daemon.SdNotifyReady)
	if err = e.Run(); err != nil {
		lg.Fatal(errors.ErrorStack(err))
	}
	lg.Infof("stopped")
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
