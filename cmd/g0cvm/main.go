// Command g0cvm loads and executes a bytecode image produced by g0cc.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"g0c/pkg/bytecode"
	"g0c/pkg/config"
	"g0c/pkg/history"
	"g0c/pkg/vm"
)

const version = "g0cvm 0.1.0"

func main() {
	var (
		showVersion  = flag.Bool("version", false, "print version and exit")
		debug        = flag.Bool("d", false, "trace each executed instruction")
		stats        = flag.Bool("s", false, "print instruction and memory stats after halting")
		disassemble  = flag.Bool("disassemble", false, "print a disassembly of the loaded image and exit")
		dumpStack    = flag.Bool("dump-stack", false, "print the integer stack after halting")
		dumpMemory   = flag.Bool("dump-memory", false, "print static memory after halting")
		configPath   = flag.String("config", "", "TOML config overriding memory-layout defaults")
		historyPath  = flag.String("history", "", "SQLite database recording this run")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: g0cvm [-d] [-s] [--disassemble] [--dump-stack] [--dump-memory] [-config path] [-history path] [-h|--help] [--version] <bytecode file>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	bcPath := flag.Arg(0)

	data, err := os.ReadFile(bcPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "g0cvm:", err)
		os.Exit(1)
	}
	img, err := bytecode.Decode(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, "g0cvm:", err)
		os.Exit(1)
	}

	if *disassemble {
		if err := vm.Disassemble(os.Stdout, img.Code); err != nil {
			fmt.Fprintln(os.Stderr, "g0cvm:", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "g0cvm:", err)
		os.Exit(1)
	}

	m := vm.NewWithConfig(img, os.Stdout, os.Stdin, cfg)
	m.Debug = *debug

	start := time.Now()
	runErr := m.Run()
	elapsed := time.Since(start)

	if *stats {
		fmt.Fprintf(os.Stderr, "instructions: %d, max stack depth: %d, heap words in use: %d\n",
			m.Stats.InstructionsExecuted, m.Stats.MaxStackDepth, m.Stats.HeapWordsInUse)
	}
	if *dumpStack {
		fmt.Fprintln(os.Stderr, "stack:", m.Stack())
	}
	if *dumpMemory {
		fmt.Fprintln(os.Stderr, "static memory:", m.StaticMemory())
	}

	exitCode := m.ExitCode
	errMsg := ""
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "g0cvm: runtime error:", runErr)
		exitCode = 1
		errMsg = runErr.Error()
	}

	histPath := *historyPath
	if histPath == "" {
		histPath = cfg.HistoryPath
	}
	if histPath != "" {
		recordRun(histPath, bcPath, m, runErr == nil, errMsg, elapsed, exitCode)
	}

	os.Exit(exitCode)
}

func recordRun(path, bcPath string, m *vm.VM, cleanly bool, errMsg string, elapsed time.Duration, exitCode int) {
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "g0cvm: history:", err)
		return
	}
	defer store.Close()

	_, err = store.Record(history.Run{
		BytecodePath:  bcPath,
		Stats:         m.Stats,
		HaltedCleanly: cleanly,
		ErrorMessage:  errMsg,
		DurationMS:    elapsed.Milliseconds(),
		ExitCode:      exitCode,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "g0cvm: history:", err)
	}
}
