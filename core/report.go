package core

import (
	"fmt"
	"io"

	"github.com/oclaw/polybuild/types"
)

const CompletionLine = "Done!"

// Report writes the captured result in a fixed order: stderr (if any), the
// execution error (if any), stdout, then the completion line.
func Report(w io.Writer, res *types.InvocationResult) error {
	if len(res.Stderr) > 0 {
		if err := writeBlock(w, res.Stderr); err != nil {
			return err
		}
	}
	if res.Err != nil {
		if _, err := fmt.Fprintf(w, "error: %v\n", res.Err); err != nil {
			return err
		}
	}
	if err := writeBlock(w, res.Stdout); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, CompletionLine)
	return err
}

func writeBlock(w io.Writer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if data[len(data)-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
