// Package commands wires one cobra subcommand per tool in spec.md §6 on
// top of an *appctx.AppContext, each emitting a JSON envelope to stdout.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
)

// Response is the envelope every subcommand prints to stdout, generalizing
// the teacher's httputil.Response shape from HTTP bodies to CLI output.
type Response struct {
	IsError bool        `json:"is_error"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// emit prints a success envelope and exits 0.
func emit(data interface{}) {
	printResponse(Response{Data: data})
}

// emitError prints a tool-level error envelope. Per spec.md §6 ("a
// tool-call returning is_error=true still exits 0"), this always exits 0 —
// only cobra's own argument-parsing failures exit non-zero.
func emitError(message string) {
	printResponse(Response{IsError: true, Message: message})
}

// emitErr wraps context around err and prints it as a tool-level error.
func emitErr(context string, err error) {
	emitError(fmt.Sprintf("%s: %v", context, err))
}

func printResponse(r Response) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		fmt.Fprintf(os.Stderr, "findit: failed to encode response: %v\n", err)
		os.Exit(1)
	}
}
