// Command chitieu is the terminal front end of the expense tracker: it
// parses free text into transactions, runs the confirm/dismiss workflow,
// and prints monthly, budget and recurring reports.
package main

import (
	"os"
)

func main() {
	a := newApp(os.Stdin, os.Stdout)
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}
