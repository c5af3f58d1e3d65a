package main

import (
	"flag"
	"fmt"
	"os"

	"rv32emu/config"
	"rv32emu/debugger"
	"rv32emu/disasm"
	"rv32emu/loader"
	"rv32emu/logging"
	"rv32emu/vm"
)

// Version information, overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	var (
		showVersion     = flag.Bool("version", false, "Show version information")
		showHelp        = flag.Bool("help", false, "Show help information")
		debugMode       = flag.Bool("debug", false, "Start in TUI debugger mode")
		disassemble     = flag.Bool("d", false, "Disassemble executable sections and exit")
		disassembleOnly = flag.Bool("D", false, "Disassemble all sections and exit")
		maxInstructions = flag.Uint64("max-instructions", cfg.Execution.MaxInstructions, "Maximum instructions before a fatal InstructionLimit fault (0 disables the cap)")
		logLevel        = flag.String("log", "", "Log level: trace, debug, info, warn, error (default: RV32_LOG env var, else info)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("rv32emu %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp || flag.NArg() == 0 {
		printHelp(cfg.Execution.MaxInstructions)
		if *showHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	elfPath := flag.Arg(0)
	image, err := os.ReadFile(elfPath) // #nosec G304 -- user-specified ELF image path
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", elfPath, err)
		os.Exit(1)
	}

	elf, err := loader.ParseELF32(image)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing ELF image: %v\n", err)
		os.Exit(1)
	}

	symbols := make(map[string]uint32, len(elf.Symbols))
	for _, sym := range elf.Symbols {
		symbols[sym.Name] = sym.Value
	}
	symbolLookup := func(addr uint32) string {
		for name, a := range symbols {
			if a == addr {
				return name
			}
		}
		return ""
	}

	if *disassemble || *disassembleOnly {
		runDisassemble(elf, image, symbolLookup, *disassembleOnly)
		os.Exit(0)
	}

	logLevelName := *logLevel
	if logLevelName == "" {
		logLevelName = os.Getenv("RV32_LOG")
	}
	log := logging.New(os.Stderr, logLevelName)

	opts := loader.Options{
		MaxInstructions: int64(*maxInstructions),
		StackSize:       cfg.Execution.StackSize,
		HeapCap:         cfg.Execution.HeapCap,
		EnableRV32M:     cfg.Execution.EnableRV32M,
	}
	if *maxInstructions == 0 {
		opts.MaxInstructions = -1
	}

	machine, err := loader.Load(image, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		os.Exit(1)
	}
	machine.Log = log

	if *debugMode {
		dbg := debugger.NewDebuggerWithConfig(machine, cfg)
		dbg.LoadSymbols(symbols)

		if err := debugger.RunTUI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	machine.State = vm.StateRunning
	for machine.State == vm.StateRunning {
		if err := machine.Step(); err != nil {
			if machine.State == vm.StateExited {
				break
			}
			fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
			os.Exit(1)
		}
	}

	os.Exit(int(machine.ExitCode))
}

// elfFlagExec is ELF's PF_X program header flag bit.
const elfFlagExec = 1

func runDisassemble(elf *loader.Elf32, image []byte, symbols disasm.SymbolLookup, allSegments bool) {
	for i, ph := range elf.Programs {
		if ph.MemSz == 0 || ph.FileSz == 0 {
			continue
		}
		if !allSegments && ph.Flags&elfFlagExec == 0 {
			continue
		}
		fmt.Printf("segment %d: 0x%08X (%d bytes)\n", i, ph.VAddr, ph.FileSz)

		data := image[ph.Offset : ph.Offset+ph.FileSz]
		for off := uint32(0); off+4 <= uint32(len(data)); off += 4 {
			addr := ph.VAddr + off
			word := uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
			line := disasm.Instruction(addr, word, symbols)
			fmt.Println(disasm.FormatLine(line))
		}
		fmt.Println()
	}
}

func printHelp(defaultMaxInstructions uint64) {
	fmt.Printf(`rv32emu %s - a RISC-V RV32I/RV32M user-mode emulator

Usage: rv32emu [options] <elf-file>

Options:
  -help                 Show this help message
  -version              Show version information
  -debug                Start in TUI debugger mode
  -d                     Disassemble executable sections then exit; do not run
  -D                     Disassemble all sections then exit; do not run
  -max-instructions N    Maximum instructions before a fatal fault (default: %d, 0 disables the cap)
  -log LEVEL             Log level: trace, debug, info, warn, error (default: RV32_LOG env var, else info)

Examples:
  rv32emu program.elf
  rv32emu -debug program.elf
  rv32emu -d program.elf
  rv32emu -max-instructions 5000000 program.elf

Configuration is read from ~/.config/rv32emu/config.toml (or
%%APPDATA%%\rv32emu on Windows); missing files fall back to defaults.
`, Version, defaultMaxInstructions)
}
