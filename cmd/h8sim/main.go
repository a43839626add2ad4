// Command h8sim runs the H8/300H-class core against an ELF image, optionally
// bridged to a host event channel over TCP. Flags and exit codes per
// spec.md §6. Grounded on oisee-z80-optimizer/cmd/z80opt/main.go's
// cobra.Command{Use, Short, RunE} usage, the only real cobra usage with
// actual .go source in the retrieved corpus.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	h8 "github.com/h8sim/h8core"
	"github.com/h8sim/h8core/bus"
	"github.com/h8sim/h8core/elfimage"
	"github.com/h8sim/h8core/hostchan"
)

// Exit codes, per spec.md §6.
const (
	exitOK          = 0
	exitLoadFailure = 1
	exitRuntimeFault = 2
)

// statesPerSecond is the CPU clock (20 MHz) used to derive the `1sec` host
// marker from accumulated simulated cycles rather than wall-clock time,
// per spec.md §9.
const statesPerSecond = 20_000_000

type opts struct {
	image         string
	listen        string
	waitStart     bool
	printOpcode   bool
	printMessages bool
}

func main() {
	o := &opts{}

	root := &cobra.Command{
		Use:   "h8sim",
		Short: "H8/300H-class microcontroller core emulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(o)
		},
	}

	root.Flags().StringVar(&o.image, "image", "", "ELF image path to load")
	root.Flags().StringVar(&o.listen, "listen", "", "host:port for the event channel")
	root.Flags().BoolVar(&o.waitStart, "wait-start", false, `block until host sends a "start" event before executing`)
	root.Flags().BoolVar(&o.printOpcode, "print-opcode", false, "log each instruction")
	root.Flags().BoolVar(&o.printMessages, "print-messages", false, "log each outgoing message")
	_ = root.MarkFlagRequired("image")

	if err := root.Execute(); err != nil {
		if code, ok := err.(exitCoder); ok {
			os.Exit(code.ExitCode())
		}
		log.Printf("[h8] %v", err)
		os.Exit(exitRuntimeFault)
	}
}

// exitCoder lets a returned error carry a specific process exit code
// through cobra's RunE -> Execute() path.
type exitCoder interface {
	error
	ExitCode() int
}

type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string  { return e.err.Error() }
func (e *codedError) Unwrap() error  { return e.err }
func (e *codedError) ExitCode() int  { return e.code }

func run(o *opts) error {
	raw, err := os.ReadFile(o.image)
	if err != nil {
		return &codedError{exitLoadFailure, fmt.Errorf("h8sim: read image: %w", err)}
	}

	b := bus.New()
	cpu := h8.New(b)
	peripherals := bus.NewPeripherals(cpu)
	b.WithPeripherals(peripherals)

	img, err := elfimage.Load(raw, b)
	if err != nil {
		return &codedError{exitLoadFailure, fmt.Errorf("h8sim: load image: %w", err)}
	}
	cpu.SetEntry(img.Entry)

	var ch *hostchan.Channel
	if o.listen != "" {
		ch, err = hostchan.Listen(o.listen, b)
		if err != nil {
			return &codedError{exitLoadFailure, fmt.Errorf("h8sim: %w", err)}
		}
		ch.SetPrintMessages(o.printMessages)
		b.WithPortSink(ch)
		cpu.SetHostWriter(ch)

		go func() {
			if err := ch.Serve(); err != nil {
				log.Printf("[h8] host channel closed: %v", err)
			}
		}()

		if o.waitStart {
			if err := ch.WaitForStart(0); err != nil {
				return &codedError{exitLoadFailure, fmt.Errorf("h8sim: %w", err)}
			}
		}
	}

	var nextSecond uint64 = statesPerSecond
	for !cpu.Halted() {
		if o.printOpcode {
			log.Printf("[h8] pc=%06x", cpu.Registers().PC)
		}
		cpu.Step()
		if ch != nil && cpu.Cycles() >= nextSecond {
			ch.SendSecondMarker()
			nextSecond += statesPerSecond
		}
	}

	if err := cpu.Err(); err != nil {
		return &codedError{exitRuntimeFault, fmt.Errorf("h8sim: %w", err)}
	}
	return nil
}
