/*

Command vmasm assembles or disassembles VM bytecode.

Usage:

	vmasm [-d] [SRC]

SRC is read from the argument or, if there is none, from stdin.
Without -d, vmasm reads the text notation and writes the
bytecode to stdout in hex. With -d, it reads hex, ignoring
white space, and writes the text notation.

The notation is a sequence of space-separated words:

	ADD            mnemonic
	-12345         integer, pushed with the shortest PUSH form
	0x0a0b         bytes, pushed with the shortest PUSHDATA form
	'foo'          text, pushed with the shortest PUSHDATA form
	$loop          label marking the next instruction
	JMP:$loop      operand; jump operands are labels or byte offsets
	TRY:$c,0       two operands; 0 marks an absent catch or finally
	SYSCALL:name   syscall by name or by 0x-prefixed id
	# comment      ignored to end of line

Disassembling and then assembling reproduces the input bytes.

*/
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"chainvm/protocol/vm"
)

var flagD = flag.Bool("d", false, "disassemble hex bytecode")

func main() {
	flag.Parse()
	if flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "usage: vmasm [-d] [SRC]")
		os.Exit(2)
	}

	var src string
	if flag.NArg() == 1 {
		src = flag.Arg(0)
	} else {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal(err)
		}
		src = string(b)
	}

	if *flagD {
		prog, err := hex.DecodeString(strings.Join(strings.Fields(src), ""))
		if err != nil {
			fatal(err)
		}
		text, err := vm.Disassemble(prog)
		if err != nil {
			fatal(err)
		}
		fmt.Println(text)
		return
	}

	prog, err := vm.Assemble(src)
	if err != nil {
		fatal(err)
	}
	fmt.Println(hex.EncodeToString(prog))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "vmasm:", err)
	os.Exit(1)
}
