package main

import (
	"flag"
	"log"
	"os"

	"github.com/ryandavidperry/COSC365-VM-Machine/emulator"
	"github.com/ryandavidperry/COSC365-VM-Machine/vm"
)

func main() {
	var compile string
	var save bool
	var binary string
	var input string
	var output string
	var verbose bool

	flag.StringVar(&compile, "c", "", ".vasm file to assemble")
	flag.BoolVar(&save, "s", false, "Save assembled binary, do not execute")
	flag.StringVar(&binary, "b", "out.v", "Binary file written by -s")
	flag.StringVar(&input, "i", "-", "Input stream")
	flag.StringVar(&output, "o", "-", "Output stream")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	if len(compile) != 0 {
		if flag.NArg() != 0 {
			log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
		}

		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &vm.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		emu.Program = prog

		if save {
			ouf, err := os.Create(binary)
			if err != nil {
				log.Fatalf("%v: %v", binary, err)
			}
			defer ouf.Close()

			err = vm.WriteProgram(ouf, prog.Binary())
			if err != nil {
				log.Fatalf("%v: %v", binary, err)
			}
			return
		}

		err = emu.Reset()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	} else {
		if flag.NArg() != 1 {
			log.Fatalf("Usage: %v [-c file.vasm] [file.v]", os.Args[0])
		}
		file := flag.Arg(0)

		inf, err := os.Open(file)
		if err != nil {
			log.Fatalf("%v: %v", file, err)
		}
		words, err := vm.ReadProgram(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", file, err)
		}

		emu.Machine.Verbose = verbose
		err = emu.Machine.Load(words)
		if err != nil {
			log.Fatalf("%v: %v", file, err)
		}
	}

	if input == "-" {
		emu.Machine.Input = os.Stdin
	} else {
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Machine.Input = inf
	}

	if output == "-" {
		emu.Machine.Output = os.Stdout
	} else {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		emu.Machine.Output = ouf
	}

	code, err := emu.Run()
	if err != nil {
		log.Fatal(err)
	}

	os.Exit(int(code))
}
