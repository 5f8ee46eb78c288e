// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/ezrec/avrmc/abstract"
	"github.com/ezrec/avrmc/analysis"
	"github.com/ezrec/avrmc/checker"
	avrio "github.com/ezrec/avrmc/io"
	"github.com/ezrec/avrmc/property"
	"github.com/ezrec/avrmc/translate"
)

// report prints the checker statistics.
func report(stats checker.Stats) {
	log.Printf("steps %v, forks %v, halts %v, duplicates %v, pruned %v, states %v, peak %v, pcs %v",
		stats.Steps, stats.Forks, stats.Halts, stats.Duplicates, stats.Pruned,
		stats.States, stats.Peak, len(stats.VisitedPCs()))
}

// options applies the command line budget to a checker.
func options[T any](stepLimit int, prune bool) func(mc *checker.Checker[T]) {
	return func(mc *checker.Checker[T]) {
		mc.StepLimit = stepLimit
		mc.PruneFailures = prune
	}
}

func main() {
	var compile string
	var hex string
	var output string
	var prop string
	var address int
	var pulses int
	var stepLimit int
	var prune bool
	var dump bool
	var verbose bool
	var lang string

	an := analysis.NewAnalyzer()

	flag.StringVar(&compile, "c", "", ".S file to assemble")
	flag.StringVar(&hex, "x", "", ".hex file to load")
	flag.StringVar(&output, "o", "", ".hex file to write the firmware to, do not check")
	flag.StringVar(&prop, "p", "exit", "Property: stack, exit, assert, reach")
	flag.IntVar(&address, "a", 0, "Assertion data address, or reach program address")
	flag.IntVar(&an.CodeSize, "f", an.CodeSize, "Flash size, in bytes")
	flag.IntVar(&an.DataSize, "d", an.DataSize, "Data memory size, in bytes")
	flag.IntVar(&an.StackTop, "s", an.StackTop, "Initial stack pointer")
	flag.IntVar(&pulses, "i", 0, "Interrupts queued on vector 1")
	flag.IntVar(&stepLimit, "n", 0, "Step limit (0 is unlimited)")
	flag.BoolVar(&prune, "prune", false, "Drop failing branches instead of stopping")
	flag.BoolVar(&dump, "dump", false, "Print the seed state, do not check")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.StringVar(&lang, "lang", "", "Message locale, ie en-US")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	an.Verbose = verbose

	if len(lang) != 0 {
		translate.SetLocale(lang)
	}

	switch {
	case len(compile) != 0:
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		err = an.Assemble(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	case len(hex) != 0:
		inf, err := os.Open(hex)
		if err != nil {
			log.Fatalf("%v: %v", hex, err)
		}
		defer inf.Close()

		err = an.LoadHex(inf)
		if err != nil {
			log.Fatalf("%v: %v", hex, err)
		}
	default:
		log.Fatalf("%v: One of -c or -x is required", os.Args[0])
	}

	if pulses > 0 {
		queue := &avrio.Queue{}
		queue.Pulse(pulses)
		an.Interrupts = append(an.Interrupts, queue)
	}

	if len(output) != 0 {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()

		err = an.Rom.WriteHex(ouf)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	if dump {
		seed, err := an.Seed()
		if err != nil {
			log.Fatal(err)
		}
		err = seed.Print(os.Stdout)
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	var stats checker.Stats
	var err error

	switch prop {
	case "stack":
		var depth int
		depth, stats, err = analysis.Check(an, property.StackDepth{Top: an.StackTop}, options[int](stepLimit, prune))
		if depth == math.MaxInt {
			fmt.Println("stack depth: unbounded")
		} else {
			fmt.Printf("stack depth: %d\n", depth)
		}
	case "exit":
		var codes property.Codes
		codes, stats, err = analysis.Check(an, property.ExitCodes{}, options[property.Codes](stepLimit, prune))
		for _, code := range codes.Sorted() {
			if code == property.EXIT_UNKNOWN {
				fmt.Println("exit: ?")
			} else {
				fmt.Printf("exit: %d\n", code)
			}
		}
	case "assert":
		var failed abstract.Bit
		failed, stats, err = analysis.Check(an, property.AssertionFailed{Address: address}, options[abstract.Bit](stepLimit, prune))
		fmt.Printf("assertion failed: %v\n", failed)
	case "reach":
		var reached bool
		reached, stats, err = analysis.Check(an, property.Reaches{Pc: address}, options[bool](stepLimit, prune))
		fmt.Printf("reached: %v\n", reached)
	default:
		log.Fatalf("%v: Unknown property: %v", os.Args[0], prop)
	}

	if verbose {
		report(stats)
	}

	if err != nil {
		log.Fatal(err)
	}
}
