package safety

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Options carries the global safety flags.
type Options struct {
	DryRun bool
	Yes    bool
	Batch  bool
}

// Confirm asks before a destructive step, such as restoring into a
// non-empty directory.
// - DryRun accepts without prompting; nothing will be changed anyway.
// - Yes accepts without prompting.
// - Batch accepts without prompting: batch mode never blocks on input,
//   and a scripted run has nobody to answer for it.
func Confirm(opts Options, in io.Reader, out io.Writer, question string) (bool, error) {
	if opts.DryRun || opts.Yes || opts.Batch {
		return true, nil
	}
	if out != nil {
		fmt.Fprintf(out, "%s [y/N]: ", strings.TrimSpace(question))
	}
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	ans := strings.TrimSpace(strings.ToLower(line))
	return ans == "y" || ans == "yes", nil
}
