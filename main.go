package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"earshot/config"
	"earshot/doctor"
	"earshot/log"
	"earshot/shutdown"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("earshot", flag.ContinueOnError)
	configFlag := fs.String("config", "", "Config file (default: $EARSHOT_CONFIG or "+config.DefaultPath+")")
	logPathFlag := fs.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	wavFlag := fs.String("wav", "", "Replay a WAV file instead of the microphone")
	engineFlag := fs.String("engine", "", "Override the transcription engine")
	profileFlag := fs.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	versionFlag := fs.Bool("version", false, "Print version and exit")
	doctorFlag := fs.Bool("doctor", false, "Run the device self test and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag {
		fmt.Printf("earshot %s\n", version)
		return 0
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *wavFlag != "" {
		cfg.Audio.WAV = *wavFlag
	}
	if *engineFlag != "" {
		cfg.Transcriber.Engine = *engineFlag
	}

	if *doctorFlag {
		return doctor.Run(context.Background(), os.Stdout, doctor.Checks(cfg))
	}

	logDir := *logPathFlag
	if logDir == "" {
		logDir = cfg.Log.Dir
	}
	logPath, err := log.ResolveDir(logDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	if err := log.SetLevel(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
		crashFile.Close()
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	a, err := build(cfg)
	if err != nil {
		log.Errorf("init: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer a.close()

	ctx, stop := shutdown.WithSignals(context.Background(), func(sig os.Signal) {
		log.Info("signal: " + sig.String())
	})
	defer stop()

	if err := a.run(ctx); err != nil {
		log.Errorf("run: %v", err)
		return 1
	}
	return 0
}
