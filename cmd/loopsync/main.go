// ABOUTME: Entry point for the LoopSync loop player
// ABOUTME: Parses CLI flags, loads loops, and runs the mixer with its control surface
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/LoopSync-Audio/loopsync-go/internal/audio"
	"github.com/LoopSync-Audio/loopsync-go/internal/audio/decode"
	"github.com/LoopSync-Audio/loopsync-go/internal/clock"
	"github.com/LoopSync-Audio/loopsync-go/internal/control"
	"github.com/LoopSync-Audio/loopsync-go/internal/discovery"
	"github.com/LoopSync-Audio/loopsync-go/internal/engine"
	"github.com/LoopSync-Audio/loopsync-go/internal/mixer"
	"github.com/LoopSync-Audio/loopsync-go/internal/version"
)

var (
	listenAddr     = flag.String("listen", ":8937", "Control server listen address")
	tempo          = flag.Float64("tempo", 120, "Master tempo in BPM")
	beatsPerBar    = flag.Int("beats-per-bar", clock.DefaultBeatsPerBar, "Beats per bar")
	barsPerLoop    = flag.Int("bars-per-loop", clock.DefaultBarsPerLoop, "Bars per loop")
	sampleRate     = flag.Int("sample-rate", 48000, "Output device sample rate in Hz")
	driftThreshold = flag.Float64("drift-threshold", 0, "Drift correction threshold in seconds (0 = default)")
	driftInterval  = flag.Duration("drift-interval", 0, "Drift check interval (0 = default)")
	name           = flag.String("name", "", "Mixer friendly name (default: hostname-loopsync)")
	logFile        = flag.String("log-file", "loopsync.log", "Log file path")
	noMDNS         = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	noAutoplay     = flag.Bool("no-autoplay", false, "Load loops but wait for transport/play")
)

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] loop.wav[:bpm] [loop2.mp3[:bpm] ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Each loop's native tempo is read from a \"NNNbpm\" tag in its filename\n")
		fmt.Fprintf(os.Stderr, "unless overridden with an explicit :bpm suffix.\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Log to both file and stdout
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()
	log.SetOutput(io.MultiWriter(os.Stdout, f))

	mixerName := *name
	if mixerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		mixerName = fmt.Sprintf("%s-loopsync", hostname)
	}

	log.Printf("Starting %s %s: %s at %.1f BPM", version.Product, version.Version, mixerName, *tempo)

	clk, err := clock.NewBeatClockWithLoop(*sampleRate, *tempo, *beatsPerBar, *barsPerLoop)
	if err != nil {
		log.Fatalf("Failed to create clock: %v", err)
	}

	eng, err := engine.New(*sampleRate)
	if err != nil {
		log.Fatalf("Failed to open audio device: %v", err)
	}

	mix := mixer.New(clk, eng, mixer.Config{
		DriftThreshold: *driftThreshold,
		DriftInterval:  *driftInterval,
	})
	defer mix.Close()

	for _, arg := range flag.Args() {
		sample, err := loadLoop(arg)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", arg, err)
		}
		if _, err := mix.Add(sample); err != nil {
			log.Fatalf("Failed to add %s: %v", sample.Name, err)
		}
		log.Printf("Loaded %s: %v, native %.1f BPM", sample.Name, sample.Format, sample.OriginalBPM)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mix.Run(ctx)

	ctl := control.New(control.Config{ListenAddr: *listenAddr, Name: mixerName}, mix)
	if err := ctl.Start(); err != nil {
		log.Fatalf("Failed to start control server: %v", err)
	}
	defer ctl.Stop()

	var disc *discovery.Manager
	if !*noMDNS {
		disc = discovery.NewManager(discovery.Config{
			InstanceName: mixerName,
			Port:         controlPort(ctl.Addr()),
		})
		if err := disc.Advertise(); err != nil {
			log.Printf("mDNS advertisement failed: %v", err)
		} else {
			defer disc.Stop()
		}
	}

	if !*noAutoplay {
		mix.PlayAll()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Printf("Shutdown signal received")
	mix.StopAll()
	time.Sleep(100 * time.Millisecond)
	log.Printf("Mixer stopped")
}

// loadLoop decodes one loop argument of the form path or path:bpm.
func loadLoop(arg string) (*audio.Sample, error) {
	path := arg
	override := 0.0

	if i := strings.LastIndex(arg, ":"); i > 1 {
		if bpm, err := strconv.ParseFloat(arg[i+1:], 64); err == nil {
			path = arg[:i]
			override = bpm
		}
	}

	sample, err := decode.File(path)
	if err != nil {
		return nil, err
	}
	if override > 0 {
		sample.OriginalBPM = override
	}
	if sample.OriginalBPM <= 0 {
		return nil, fmt.Errorf("no tempo for %s: add a NNNbpm filename tag or a :bpm suffix", path)
	}
	return sample, nil
}

func controlPort(addr net.Addr) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}
