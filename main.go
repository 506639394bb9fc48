// The main package for the examdump executable.
package main

import "github.com/jfalgout/examdump/cmd"

func main() {
	cmd.Execute()
}
