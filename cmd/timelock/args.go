package main

import (
	"errors"
	"flag"
	"io"
	"strconv"
	"time"
)

type kind int

const (
	cmdSolve kind = iota
	cmdNew
	cmdEncrypt
	cmdBenchmark
)

type command struct {
	kind  kind
	file  string
	delay time.Duration
}

var errUsage = errors.New("usage")

const usage = `Usage: timelock <command>
    new [seconds]               create a sample puzzle with solution time 'seconds'
    encrypt <file> [seconds]    encrypt a file with a key locked for 'seconds'
    benchmark                   print number of squarings per second
    solve <puzzle>              print the puzzle solution (and payload to stdout)
    <puzzle>                    same as solve <puzzle>
    -h, --help                  display this message

Without arguments the puzzle embedded in this binary, if any, is solved.
`

// parseDelay accepts whole seconds or a Go duration; anything else falls
// back to def.
func parseDelay(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	return def
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func parseArgs(args []string, defaultDelay time.Duration) (command, error) {
	fs := flag.NewFlagSet("timelock", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return command{}, errUsage
	}
	rest := fs.Args()
	switch arg(rest, 0) {
	case "":
		return command{kind: cmdSolve}, nil
	case "new":
		return command{kind: cmdNew, delay: parseDelay(arg(rest, 1), defaultDelay)}, nil
	case "encrypt":
		if arg(rest, 1) == "" {
			return command{}, errUsage
		}
		return command{kind: cmdEncrypt, file: rest[1], delay: parseDelay(arg(rest, 2), defaultDelay)}, nil
	case "benchmark":
		return command{kind: cmdBenchmark}, nil
	case "solve":
		if arg(rest, 1) == "" {
			return command{}, errUsage
		}
		return command{kind: cmdSolve, file: rest[1]}, nil
	}
	if len(rest) > 1 {
		return command{}, errUsage
	}
	return command{kind: cmdSolve, file: rest[0]}, nil
}
