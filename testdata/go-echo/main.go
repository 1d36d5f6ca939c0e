//go:build ignore

// Command go-echo is the helper process driven by integration tests.
//
// Modes:
//
//	echo-string        echo stdin lines to stdout until a line "EXIT"
//	echo-bytes         echo 4-byte stdin chunks to stdout until "EXIT"
//	echo-bytes-stderr  as echo-bytes, writing to stderr
//	pwd                print the working directory
//	env KEY            print the value of KEY
//	exit N             exit with code N
//	both               print one line to stdout and one to stderr
//	wait-stdin         block until stdin reaches EOF
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
)

var stop = []byte("EXIT")

func main() {
	if len(os.Args) < 2 {
		os.Exit(0)
	}

	switch os.Args[1] {
	case "echo-string":
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "EXIT" {
				os.Exit(0)
			}
			if _, err := fmt.Println(line); err != nil {
				os.Exit(3)
			}
		}
	case "echo-bytes":
		echoBytes(os.Stdout)
	case "echo-bytes-stderr":
		echoBytes(os.Stderr)
	case "pwd":
		dir, err := os.Getwd()
		if err != nil {
			os.Exit(10)
		}
		fmt.Println(dir)
	case "env":
		fmt.Println(os.Getenv(arg(2)))
	case "exit":
		code, err := strconv.Atoi(arg(2))
		if err != nil {
			os.Exit(11)
		}
		os.Exit(code)
	case "both":
		fmt.Fprintln(os.Stdout, "out")
		fmt.Fprintln(os.Stderr, "err")
	case "wait-stdin":
		_, _ = io.Copy(io.Discard, os.Stdin)
	default:
		fmt.Fprintf(os.Stderr, "go-echo: unknown mode %q\n", os.Args[1])
		os.Exit(1)
	}
}

func arg(i int) string {
	if len(os.Args) <= i {
		return ""
	}
	return os.Args[i]
}

func echoBytes(w io.Writer) {
	buf := make([]byte, len(stop))
	for {
		if _, err := io.ReadFull(os.Stdin, buf); err != nil {
			os.Exit(4)
		}
		if bytes.Equal(buf, stop) {
			os.Exit(0)
		}
		if _, err := w.Write(buf); err != nil {
			os.Exit(6)
		}
	}
}
