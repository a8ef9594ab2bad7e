/*
Package main implements the bpbd-decoder server and command-line interface.

bpbd-decoder is a phrase-based statistical machine translation decoder: a
multi-stack beam search over translation-model phrase pairs, scored by a
language model, a lexicalised reordering model, and a future-cost estimator
(spec §4).

# Server Mode

The server communicates over MessagePack-encoded stdin/stdout, decoding one
sentence per request (pkg/server).

# CLI Mode

The CLI provides an interactive shell for debugging and testing the decoder
directly.

# Model Files

A language model is loaded from an ARPA-format file (-lm). Translation-model
and reordering-model files are intentionally outside this core's scope
(spec §1 treats those file formats as an external collaborator's concern);
without -tm/-rm support, every source phrase resolves to the UNK->UNK
fallback entry.

# Config

Runtime parameters are read from a bpbd.toml file (pkg/config): the -config
path, else bpbd.toml in the working directory, else bpbd.toml beside the
executable. If none is found the built-in defaults are used and no file is
written.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bpbd-project/decoder-core/internal/cli"
	"github.com/bpbd-project/decoder-core/internal/modelio"
	"github.com/bpbd-project/decoder-core/pkg/config"
	"github.com/bpbd-project/decoder-core/pkg/decoder"
	"github.com/bpbd-project/decoder-core/pkg/lm"
	"github.com/bpbd-project/decoder-core/pkg/rm"
	"github.com/bpbd-project/decoder-core/pkg/server"
	"github.com/bpbd-project/decoder-core/pkg/tm"
	"github.com/bpbd-project/decoder-core/pkg/wordidx"
)

const (
	Version = "0.1.0-beta"
	AppName = "bpbd-decoder"
	gh      = "https://github.com/bpbd-project/decoder-core"
)

// sigHandler exits normally on SIGINT/SIGTERM.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	configFile := flag.String("config", "", "Path to custom bpbd.toml file")
	lmFile := flag.String("lm", "", "Path to an ARPA-format language model file")
	debugMode := flag.Bool("v", false, "Toggle verbose mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	order := flag.Int("lm-order", defaultConfig.LM.Order, "Maximum m-gram order if -lm is not given")

	flag.Parse()

	if *showVersion {
		printVersionBanner()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.Debugf("using config file: %s", configPath)

	words := wordidx.New()
	words.AddIfAbsent("<s>")
	words.AddIfAbsent("</s>")

	var lmTrie *lm.Trie
	if *lmFile != "" {
		f, err := os.Open(*lmFile)
		if err != nil {
			log.Fatalf("failed to open LM file: %v", err)
		}
		defer f.Close()
		lmTrie, err = modelio.ReadARPA(f, words, appConfig.LM.Order)
		if err != nil {
			log.Fatalf("failed to load ARPA model: %v", err)
		}
	} else {
		log.Warn("no -lm file given, running with an empty language model")
		lmTrie = lm.NewBuilder(*order).Finalize()
	}

	tmStore := tm.NewStore(tm.Config{
		TransLim:     appConfig.TM.TransLim,
		MinTransProb: appConfig.TM.MinTransProb,
		UnknownTotal: appConfig.TM.UnknownTotal,
		UnknownPEF:   appConfig.TM.UnknownPEF,
	})
	rmStore := rm.NewStore([6]float32{})

	dec := decoder.New(words, lmTrie, tmStore, rmStore, *appConfig)

	if *cliMode {
		log.SetReportTimestamp(false)
		handler := cli.NewInputHandler(dec)
		if err := handler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC server")
	srv := server.NewServer(dec, appConfig, configPath)

	showStartupInfo()

	if err := srv.Start(); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

func printVersionBanner() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})
	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print(fmt.Sprintf("[%s] Phrase-based statistical machine translation decoder", AppName))
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use --help to see available options")
	logger.Print("")
	logger.Print("Find out more at", "gh", gh)
}

func showStartupInfo() {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println(" bpbd-decoder ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("status: ready")
	println("===========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
