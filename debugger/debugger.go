package debugger

import (
	"fmt"
	"strings"

	"rv32emu/config"
	"rv32emu/vm"
)

// Debugger represents the debugger state and functionality.
type Debugger struct {
	VM *vm.VM

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory
	Evaluator   *ExpressionEvaluator

	Running           bool
	StepMode          StepMode
	StepOverCallDepth int
	StepOverPC        uint32

	// Symbols maps label names to addresses, loaded from the ELF image's
	// optional SHT_SYMTAB.
	Symbols map[string]uint32

	LastCommand string

	Output strings.Builder
}

// StepMode represents different stepping modes.
type StepMode int

const (
	StepNone   StepMode = iota // Not stepping
	StepSingle                 // Step one instruction
	StepOver                   // Step over calls (JAL/JALR with rd=ra)
	StepOut                    // Step out of the current call
)

// NewDebugger creates a new debugger instance with the default command
// history capacity.
func NewDebugger(machine *vm.VM) *Debugger {
	return NewDebuggerWithConfig(machine, nil)
}

// NewDebuggerWithConfig creates a debugger instance whose command history
// is capped per cfg.Debugger.HistorySize. A nil cfg falls back to
// NewCommandHistory's default.
func NewDebuggerWithConfig(machine *vm.VM, cfg *config.Config) *Debugger {
	history := NewCommandHistory()
	if cfg != nil {
		history = NewCommandHistoryWithSize(cfg.Debugger.HistorySize)
	}

	return &Debugger{
		VM:          machine,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     history,
		Evaluator:   NewExpressionEvaluator(),
		Running:     false,
		StepMode:    StepNone,
		Symbols:     make(map[string]uint32),
	}
}

// LoadSymbols loads the symbol table for label resolution.
func (d *Debugger) LoadSymbols(symbols map[string]uint32) {
	d.Symbols = symbols
}

// ResolveAddress resolves a label to an address, or parses a numeric address.
func (d *Debugger) ResolveAddress(addrStr string) (uint32, error) {
	if addr, exists := d.Symbols[addrStr]; exists {
		return addr, nil
	}

	var addr uint32
	if strings.HasPrefix(addrStr, "0x") || strings.HasPrefix(addrStr, "0X") {
		if _, err := fmt.Sscanf(addrStr, "0x%x", &addr); err != nil {
			return 0, fmt.Errorf("invalid address: %s", addrStr)
		}
	} else {
		if _, err := fmt.Sscanf(addrStr, "%d", &addr); err != nil {
			return 0, fmt.Errorf("invalid address: %s", addrStr)
		}
	}

	return addr, nil
}

// ExecuteCommand processes and executes a debugger command.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)

	if cmdLine == "" {
		cmdLine = d.LastCommand
	}

	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	return d.handleCommand(cmd, args)
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return d.cmdRun(args)
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s", "si":
		return d.cmdStep(args)
	case "next", "n":
		return d.cmdNext(args)
	case "finish", "fin":
		return d.cmdFinish(args)

	case "break", "b":
		return d.cmdBreak(args)
	case "tbreak", "tb":
		return d.cmdTBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)

	case "watch", "w":
		return d.cmdWatch(args)
	case "rwatch":
		return d.cmdRWatch(args)
	case "awatch":
		return d.cmdAWatch(args)

	case "print", "p":
		return d.cmdPrint(args)
	case "x":
		return d.cmdExamine(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "backtrace", "bt", "where":
		return d.cmdBacktrace(args)
	case "list", "l":
		return d.cmdList(args)

	case "set":
		return d.cmdSet(args)

	case "load":
		return d.cmdLoad(args)
	case "reset":
		return d.cmdReset(args)

	case "help", "h", "?":
		return d.cmdHelp(args)

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// ShouldBreak checks if execution should pause at the current PC.
func (d *Debugger) ShouldBreak() (bool, string) {
	pc := d.VM.Regs.PC

	switch d.StepMode {
	case StepSingle:
		d.StepMode = StepNone
		return true, "single step"

	case StepOver:
		if pc == d.StepOverPC {
			d.StepMode = StepNone
			return true, "step over complete"
		}

	case StepOut:
		// No call-depth tracking: StepOut adds no stop condition, so
		// execution stops only at a breakpoint.
	}

	if bp := d.Breakpoints.GetBreakpoint(pc); bp != nil {
		if !bp.Enabled {
			return false, ""
		}

		if bp.Condition != "" {
			result, err := d.Evaluator.Evaluate(bp.Condition, d.VM, d.Symbols)
			if err != nil {
				return true, fmt.Sprintf("breakpoint %d (condition error: %v)", bp.ID, err)
			}
			if !result {
				return false, ""
			}
		}

		bp.HitCount++

		if bp.Temporary {
			_ = d.Breakpoints.DeleteBreakpoint(bp.ID)
		}

		return true, fmt.Sprintf("breakpoint %d", bp.ID)
	}

	if wp, changed := d.Watchpoints.CheckWatchpoints(d.VM); wp != nil && changed {
		return true, fmt.Sprintf("watchpoint %d: %s", wp.ID, wp.Expression)
	}

	return false, ""
}

// GetOutput returns and clears the output buffer.
func (d *Debugger) GetOutput() string {
	output := d.Output.String()
	d.Output.Reset()
	return output
}

// Printf writes formatted output to the output buffer.
func (d *Debugger) Printf(format string, args ...interface{}) {
	d.Output.WriteString(fmt.Sprintf(format, args...))
}

// Println writes a line to the output buffer.
func (d *Debugger) Println(args ...interface{}) {
	d.Output.WriteString(fmt.Sprintln(args...))
}

// SetStepOver configures the debugger to step over the instruction at PC:
// JAL/JALR with rd=ra (x1) is treated as a call, stepped over by running
// to the return address; anything else single-steps.
func (d *Debugger) SetStepOver() {
	word, err := d.VM.Memory.Fetch(d.VM.Regs.PC)
	if err != nil {
		d.StepMode = StepSingle
		d.Running = true
		return
	}

	op, err := vm.Decode(word)
	if err != nil {
		d.StepMode = StepSingle
		d.Running = true
		return
	}

	isCall := (op.Kind == vm.KindJAL || op.Kind == vm.KindJALR) && op.Rd == vm.RegRA

	if isCall {
		d.StepOverPC = d.VM.Regs.PC + 4
		d.StepMode = StepOver
		d.Running = true
	} else {
		d.StepMode = StepSingle
		d.Running = true
	}
}

// SetStepOut configures the debugger to step out of the current call.
func (d *Debugger) SetStepOut() {
	d.StepMode = StepOut
	d.Running = true
}
